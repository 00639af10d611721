// internal/leads/writer.go
//
// Fan-out writer.
//
// Context
//   One lead is written to five paths (see Paths).  The primary
//   leads/{email} write is a create-if-absent, which makes the store itself
//   the final arbiter of email uniqueness.
//
// Workflow
//   •  Stores that implement docstore.Batcher get all five writes in one
//      atomic Commit: either every document exists afterwards or none does.
//   •  Other stores get the primary create first.  Only when it succeeds do
//      the four index writes run concurrently; the call returns after all of
//      them finish.  Failed index paths are reported in a PartialWriteError.
//
//------------------------------------------------------------------------------

package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanizio/leadflow/internal/docstore"
	"github.com/yanizio/leadflow/internal/logger"
	"github.com/yanizio/leadflow/internal/metrics"
)

// PathError is one failed index write.
type PathError struct {
	Path string
	Err  error
}

// PartialWriteError reports index writes that failed after the primary
// document was created.  The primary record exists; the listed index
// documents may not.
type PartialWriteError struct {
	Email  string
	Failed []PathError
}

func (e *PartialWriteError) Error() string {
	paths := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		paths[i] = f.Path
	}
	return fmt.Sprintf("leads: partial fan-out for %s: %d index write(s) failed: %s",
		e.Email, len(e.Failed), strings.Join(paths, ", "))
}

// Unwrap exposes the underlying store errors to errors.Is.
func (e *PartialWriteError) Unwrap() []error {
	out := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		out[i] = f.Err
	}
	return out
}

// Writer performs the fan-out.
type Writer struct {
	store docstore.Store
}

// NewWriter returns a Writer for s.
func NewWriter(s docstore.Store) *Writer {
	return &Writer{store: s}
}

// Writes builds the five writes for l in path order.
func Writes(l *Lead) []docstore.Write {
	p := PathsFor(l)
	return []docstore.Write{
		{Path: p.Primary, Data: l.data(), Op: docstore.OpCreate},
		{Path: p.Niche, Data: l.data(), Op: docstore.OpSet},
		{Path: p.Country, Data: docstore.Data{
			"name":      l.Country,
			"code":      l.CountryCode,
			"updatedAt": docstore.ServerTime,
		}, Op: docstore.OpMerge},
		{Path: p.CountryLeads, Data: l.data(), Op: docstore.OpSet},
		{Path: p.CountryNiche, Data: l.data(), Op: docstore.OpSet},
	}
}

// Write stores l at every fan-out path.  A conflict on the primary path is
// returned as ErrDuplicateEmail.
func (w *Writer) Write(ctx context.Context, l *Lead) error {
	start := time.Now()
	defer func() { metrics.FanoutDuration.Observe(time.Since(start).Seconds()) }()

	writes := Writes(l)

	if b, ok := w.store.(docstore.Batcher); ok {
		if err := b.Commit(ctx, writes); err != nil {
			return w.primaryErr(l, err)
		}
		return nil
	}

	if err := w.store.Apply(ctx, writes[0]); err != nil {
		return w.primaryErr(l, err)
	}

	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed []PathError
	)
	for _, wr := range writes[1:] {
		wr := wr // per-iteration copy; module targets go 1.21 loop semantics
		g.Go(func() error {
			if err := w.store.Apply(ctx, wr); err != nil {
				mu.Lock()
				failed = append(failed, PathError{Path: wr.Path, Err: err})
				mu.Unlock()
				return err
			}
			return nil
		})
	}
	_ = g.Wait() // every failure is collected above

	if len(failed) > 0 {
		perr := &PartialWriteError{Email: l.Email, Failed: sortFailed(failed, writes)}
		logger.FromContext(ctx).Errorw("lead fan-out incomplete", "email", l.Email, "failed", len(failed), "err", perr)
		return perr
	}
	return nil
}

func (w *Writer) primaryErr(l *Lead, err error) error {
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, l.Email)
	}
	return fmt.Errorf("leads: write %s: %w", l.Email, err)
}

// sortFailed orders failures by write order so errors read deterministically.
func sortFailed(failed []PathError, writes []docstore.Write) []PathError {
	out := make([]PathError, 0, len(failed))
	for _, wr := range writes {
		for _, f := range failed {
			if f.Path == wr.Path {
				out = append(out, f)
			}
		}
	}
	return out
}
