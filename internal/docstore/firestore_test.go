package docstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only against the Firestore emulator:
//
//	gcloud emulators firestore start --host-port=localhost:8686
//	FIRESTORE_EMULATOR_HOST=localhost:8686 go test ./internal/docstore -run Firestore
func newEmulatorFirestore(t *testing.T) *Firestore {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	fs, err := NewFirestore(context.Background(), FirestoreOptions{ProjectID: "leadflow-test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fs.Close() })
	return fs
}

func TestFirestore_CommitCreateConflict(t *testing.T) {
	fs := newEmulatorFirestore(t)
	ctx := context.Background()
	email := fmt.Sprintf("t%d@x.com", time.Now().UnixNano())

	require.NoError(t, fs.Commit(ctx, []Write{
		{Path: Join("leads", email), Data: Data{"email": email, "createdAt": ServerTime}, Op: OpCreate},
		{Path: Join("countries", "brazil"), Data: Data{"name": "Brazil"}, Op: OpMerge},
	}))

	err := fs.Commit(ctx, []Write{
		{Path: Join("leads", email), Data: Data{"email": email}, Op: OpCreate},
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	got, err := fs.QueryEqual(ctx, "leads", "email", email)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, email, got[0].ID())
	_, isTime := got[0].Data["createdAt"].(time.Time)
	assert.True(t, isTime)
}

func TestFirestore_GetMissing(t *testing.T) {
	fs := newEmulatorFirestore(t)
	_, err := fs.Get(context.Background(), "leads/missing@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
