package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	coll, id, err := Split("countries/brazil/leads/jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, "countries/brazil/leads", coll)
	assert.Equal(t, "jane@x.com", id)

	for _, bad := range []string{"", "leads", "/leads/a", "leads/a/", "leads//a/b", "a/b/c"} {
		_, _, err := Split(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, "path %q", bad)
	}
}

func TestMemory_CommitIsAtomicOnCreateConflict(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Apply(ctx, Write{Path: "leads/a@x.com", Data: Data{"name": "A"}, Op: OpCreate}))

	err := m.Commit(ctx, []Write{
		{Path: "health/b@x.com", Data: Data{"name": "B"}, Op: OpSet},
		{Path: "leads/a@x.com", Data: Data{"name": "B"}, Op: OpCreate},
	})
	require.ErrorIs(t, err, ErrAlreadyExists)

	_, err = m.Get(ctx, "health/b@x.com")
	assert.ErrorIs(t, err, ErrNotFound, "no write may land when the batch fails")

	snap, err := m.Get(ctx, "leads/a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "A", snap.Data["name"])
}

func TestMemory_MergeKeepsExistingFields(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Apply(ctx, Write{Path: "countries/brazil", Data: Data{"name": "Brazil", "code": "BR"}}))
	require.NoError(t, m.Apply(ctx, Write{Path: "countries/brazil", Data: Data{"updatedAt": ServerTime}, Op: OpMerge}))

	snap, err := m.Get(ctx, "countries/brazil")
	require.NoError(t, err)
	assert.Equal(t, "Brazil", snap.Data["name"])
	assert.Equal(t, "BR", snap.Data["code"])
	_, isTime := snap.Data["updatedAt"].(time.Time)
	assert.True(t, isTime, "ServerTime must resolve to a timestamp")
}

func TestMemory_QueryEqualOnlyDirectChildren(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Commit(ctx, []Write{
		{Path: "leads/a@x.com", Data: Data{"email": "a@x.com"}},
		{Path: "leads/b@x.com", Data: Data{"email": "b@x.com"}},
		{Path: "countries/us/leads/a@x.com", Data: Data{"email": "a@x.com"}},
	}))

	got, err := m.QueryEqual(ctx, "leads", "email", "a@x.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "leads/a@x.com", got[0].Path)
	assert.Equal(t, "a@x.com", got[0].ID())

	all, err := m.List(ctx, "leads")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemory_RejectsInvalidPath(t *testing.T) {
	err := NewMemory().Apply(context.Background(), Write{Path: "leads", Data: Data{}})
	assert.True(t, errors.Is(err, ErrInvalidPath))
}
