// internal/docstore/store.go
//
// Path-addressed document store.
//
// Context
//   Leads are denormalized across several collections so dashboards can read
//   a niche or a country without secondary indexes.  Every backend (memory,
//   Firestore, DynamoDB, MySQL) exposes the same small surface: documents
//   are addressed by slash-separated paths that alternate collection and
//   document IDs, e.g. “countries/brazil/leads/jane@x.com”.
//
// Workflow
//   •  Store is the minimum every backend provides: point reads, equality
//      queries, collection listing, and single-document writes.
//   •  Batcher is implemented by backends that can apply several writes
//      atomically.  Callers type-assert for it and fall back to concurrent
//      single writes when it is missing.
//   •  Backends translate their native failures into the sentinels below so
//      callers never import a driver package.
//
//------------------------------------------------------------------------------

package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// -----------------------------------------------------------------------------
// Sentinels
// -----------------------------------------------------------------------------

var (
	// ErrNotFound is returned by Get when no document exists at the path.
	ErrNotFound = errors.New("docstore: document not found")

	// ErrAlreadyExists is returned when a Create targets an existing path.
	ErrAlreadyExists = errors.New("docstore: document already exists")

	// ErrPermissionDenied is returned when the backend refuses the call.
	ErrPermissionDenied = errors.New("docstore: permission denied")

	// ErrInvalidPath is returned for empty paths or paths with an odd
	// number of segments.
	ErrInvalidPath = errors.New("docstore: invalid document path")
)

// ServerTime is a sentinel field value.  Backends replace it with their own
// commit timestamp (Firestore) or the wall clock at write time.
var ServerTime = serverTime{}

type serverTime struct{}

// -----------------------------------------------------------------------------
// Data types
// -----------------------------------------------------------------------------

// Data is the field map of one document.
type Data map[string]any

// Snapshot is one document returned by a read.
type Snapshot struct {
	Path string
	Data Data
}

// ID returns the last path segment.
func (s Snapshot) ID() string {
	if i := strings.LastIndexByte(s.Path, '/'); i != -1 {
		return s.Path[i+1:]
	}
	return s.Path
}

// Op selects the write semantics.
type Op int

const (
	// OpSet overwrites the whole document.
	OpSet Op = iota
	// OpMerge upserts, touching only the given fields.
	OpMerge
	// OpCreate writes only if nothing exists at the path.
	OpCreate
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpMerge:
		return "merge"
	case OpCreate:
		return "create"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Write is one document mutation.
type Write struct {
	Path string
	Data Data
	Op   Op
}

// -----------------------------------------------------------------------------
// Interfaces
// -----------------------------------------------------------------------------

// Store is implemented by every backend.
type Store interface {
	// Get returns the document at path or ErrNotFound.
	Get(ctx context.Context, path string) (Snapshot, error)

	// QueryEqual returns the direct children of collection whose field
	// equals value.
	QueryEqual(ctx context.Context, collection, field string, value any) ([]Snapshot, error)

	// List returns every direct child of collection.
	List(ctx context.Context, collection string) ([]Snapshot, error)

	// Apply performs a single write.
	Apply(ctx context.Context, w Write) error

	// Close releases client resources.
	Close() error
}

// Batcher is implemented by backends that commit several writes atomically.
// Either every write is applied or none is.
type Batcher interface {
	Commit(ctx context.Context, writes []Write) error
}

// -----------------------------------------------------------------------------
// Path helpers
// -----------------------------------------------------------------------------

// Join builds a path from segments.  Segments are used verbatim; callers
// escape user-supplied IDs before joining.
func Join(segments ...string) string { return strings.Join(segments, "/") }

// Split validates a document path and returns its parent collection path and
// document ID.
func Split(path string) (collection, id string, err error) {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	parts := strings.Split(path, "/")
	if len(parts)%2 != 0 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, p := range parts {
		if p == "" {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	i := strings.LastIndexByte(path, '/')
	return path[:i], path[i+1:], nil
}

// resolveServerTime returns a copy of d with ServerTime sentinels replaced by
// now.  Nested maps are walked.
func resolveServerTime(d Data, now time.Time) Data {
	out := make(Data, len(d))
	for k, v := range d {
		switch tv := v.(type) {
		case serverTime:
			out[k] = now
		case Data:
			out[k] = resolveServerTime(tv, now)
		case map[string]any:
			out[k] = map[string]any(resolveServerTime(Data(tv), now))
		default:
			out[k] = v
		}
	}
	return out
}
