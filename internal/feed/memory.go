package feed

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("feed: closed")

// Memory is an in-process Feed.
type Memory struct {
	mu     sync.RWMutex
	subs   map[chan []byte]struct{}
	closed bool
	done   chan struct{}
}

// NewMemory returns an empty broker.
func NewMemory() *Memory {
	return &Memory{subs: make(map[chan []byte]struct{}), done: make(chan struct{})}
}

// Publish delivers payload to every subscriber with room in its buffer.
func (m *Memory) Publish(_ context.Context, payload []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	for ch := range m.subs {
		select {
		case ch <- payload:
		default: // subscriber is behind; drop
		}
	}
	return nil
}

// Subscribe registers a new subscriber.
func (m *Memory) Subscribe(ctx context.Context) (*Subscription, error) {
	ch := make(chan []byte, SubscriberBuffer)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{C: ch, cancel: cancel}
	go func() {
		select {
		case <-ctx.Done():
		case <-m.done:
		}
		cancel()
		m.remove(ch)
	}()
	return sub, nil
}

func (m *Memory) remove(ch chan []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[ch]; ok {
		delete(m.subs, ch)
		close(ch)
	}
}

// Close ends every subscription.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	for ch := range m.subs {
		delete(m.subs, ch)
		close(ch)
	}
	return nil
}
