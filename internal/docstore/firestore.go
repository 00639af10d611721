// internal/docstore/firestore.go
//
// Google Cloud Firestore backend.
//
// Context
//   Firestore is the native home of the path layout: collections and
//   sub-collections map one-to-one onto our slash paths.  Commit runs inside
//   a Firestore transaction so a Create conflict aborts every other write in
//   the batch.  ServerTime becomes firestore.ServerTimestamp, so createdAt is
//   assigned by the database, not the web node.
//
// Notes
//   •  The client is built once in cmd/web and injected.  There is no
//      package-level client.
//   •  gRPC status codes are mapped onto the docstore sentinels.
//
//------------------------------------------------------------------------------

package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreOptions configures NewFirestore.
type FirestoreOptions struct {
	ProjectID       string
	DatabaseID      string // empty means “(default)”
	CredentialsFile string // empty means application-default credentials
}

// Firestore is a Store and Batcher backed by Cloud Firestore.
type Firestore struct {
	client *firestore.Client
}

var (
	_ Store   = (*Firestore)(nil)
	_ Batcher = (*Firestore)(nil)
)

// NewFirestore dials Firestore.  FIRESTORE_EMULATOR_HOST is honoured by the
// SDK, which is how the integration tests run.
func NewFirestore(ctx context.Context, o FirestoreOptions) (*Firestore, error) {
	if o.ProjectID == "" {
		return nil, fmt.Errorf("docstore: firestore project id required")
	}
	var opts []option.ClientOption
	if o.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(o.CredentialsFile))
	}

	var (
		client *firestore.Client
		err    error
	)
	if o.DatabaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, o.ProjectID, o.DatabaseID, opts...)
	} else {
		client, err = firestore.NewClient(ctx, o.ProjectID, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

// NewFirestoreFromClient wraps an existing client.
func NewFirestoreFromClient(c *firestore.Client) *Firestore { return &Firestore{client: c} }

// Get implements Store.
func (f *Firestore) Get(ctx context.Context, path string) (Snapshot, error) {
	ref, err := f.doc(path)
	if err != nil {
		return Snapshot{}, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return Snapshot{}, mapFirestoreErr(err)
	}
	return Snapshot{Path: path, Data: Data(snap.Data())}, nil
}

// QueryEqual implements Store.
func (f *Firestore) QueryEqual(ctx context.Context, collection, field string, value any) ([]Snapshot, error) {
	snaps, err := f.client.Collection(collection).
		Where(field, "==", value).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, mapFirestoreErr(err)
	}
	return toSnapshots(collection, snaps), nil
}

// List implements Store.
func (f *Firestore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	snaps, err := f.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapFirestoreErr(err)
	}
	return toSnapshots(collection, snaps), nil
}

// Apply implements Store.
func (f *Firestore) Apply(ctx context.Context, w Write) error {
	ref, err := f.doc(w.Path)
	if err != nil {
		return err
	}
	data := firestoreData(w.Data)
	switch w.Op {
	case OpCreate:
		_, err = ref.Create(ctx, data)
	case OpMerge:
		_, err = ref.Set(ctx, data, firestore.MergeAll)
	default:
		_, err = ref.Set(ctx, data)
	}
	return mapFirestoreErr(err)
}

// Commit implements Batcher using a read-write transaction.
func (f *Firestore) Commit(ctx context.Context, writes []Write) error {
	refs := make([]*firestore.DocumentRef, len(writes))
	for i, w := range writes {
		ref, err := f.doc(w.Path)
		if err != nil {
			return err
		}
		refs[i] = ref
	}

	err := f.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		for i, w := range writes {
			data := firestoreData(w.Data)
			var err error
			switch w.Op {
			case OpCreate:
				err = tx.Create(refs[i], data)
			case OpMerge:
				err = tx.Set(refs[i], data, firestore.MergeAll)
			default:
				err = tx.Set(refs[i], data)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	return mapFirestoreErr(err)
}

// Close implements Store.
func (f *Firestore) Close() error { return f.client.Close() }

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func (f *Firestore) doc(path string) (*firestore.DocumentRef, error) {
	if _, _, err := Split(path); err != nil {
		return nil, err
	}
	ref := f.client.Doc(path)
	if ref == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return ref, nil
}

func toSnapshots(collection string, snaps []*firestore.DocumentSnapshot) []Snapshot {
	out := make([]Snapshot, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, Snapshot{
			Path: Join(collection, s.Ref.ID),
			Data: Data(s.Data()),
		})
	}
	return out
}

// firestoreData converts Data into plain maps and swaps ServerTime for the
// SDK sentinel.
func firestoreData(d Data) map[string]any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		switch tv := v.(type) {
		case serverTime:
			out[k] = firestore.ServerTimestamp
		case Data:
			out[k] = firestoreData(tv)
		case map[string]any:
			out[k] = firestoreData(Data(tv))
		default:
			out[k] = v
		}
	}
	return out
}

func mapFirestoreErr(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	default:
		return fmt.Errorf("docstore: firestore: %w", err)
	}
}
