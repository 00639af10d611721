// internal/docstore/memory.go
//
// In-memory backend.  Used for local development and tests.  Commit is
// atomic under a single mutex, so it satisfies Batcher.

package docstore

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"
)

// Memory is a concurrency-safe in-process Store.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]Data
	now  func() time.Time
}

var (
	_ Store   = (*Memory)(nil)
	_ Batcher = (*Memory)(nil)
)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]Data),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, path string) (Snapshot, error) {
	if _, _, err := Split(path); err != nil {
		return Snapshot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[path]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return Snapshot{Path: path, Data: copyData(d)}, nil
}

// QueryEqual implements Store.
func (m *Memory) QueryEqual(_ context.Context, collection, field string, value any) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Snapshot
	for p, d := range m.docs {
		if parent, _, err := Split(p); err != nil || parent != collection {
			continue
		}
		if v, ok := d[field]; ok && reflect.DeepEqual(v, value) {
			out = append(out, Snapshot{Path: p, Data: copyData(d)})
		}
	}
	sortSnapshots(out)
	return out, nil
}

// List implements Store.
func (m *Memory) List(_ context.Context, collection string) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Snapshot
	for p, d := range m.docs {
		if parent, _, err := Split(p); err == nil && parent == collection {
			out = append(out, Snapshot{Path: p, Data: copyData(d)})
		}
	}
	sortSnapshots(out)
	return out, nil
}

// Apply implements Store.
func (m *Memory) Apply(ctx context.Context, w Write) error {
	return m.Commit(ctx, []Write{w})
}

// Commit implements Batcher.  Every write is checked before any is applied.
func (m *Memory) Commit(_ context.Context, writes []Write) error {
	for _, w := range writes {
		if _, _, err := Split(w.Path); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range writes {
		if w.Op == OpCreate {
			if _, exists := m.docs[w.Path]; exists {
				return ErrAlreadyExists
			}
		}
	}

	now := m.now()
	for _, w := range writes {
		data := resolveServerTime(w.Data, now)
		switch w.Op {
		case OpMerge:
			cur, ok := m.docs[w.Path]
			if !ok {
				cur = make(Data, len(data))
			}
			for k, v := range data {
				cur[k] = v
			}
			m.docs[w.Path] = cur
		default:
			m.docs[w.Path] = data
		}
	}
	return nil
}

// Len reports the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

func copyData(d Data) Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func sortSnapshots(s []Snapshot) {
	sort.Slice(s, func(i, j int) bool { return s[i].Path < s[j].Path })
}
