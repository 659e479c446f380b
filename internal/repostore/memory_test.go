package repostore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ParichayaHQ/status-manager/pkg/apperr"
)

func TestMemoryCreateGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	f, err := m.Create(ctx, "config.json", []byte(`{"a":1}`))
	require.NoError(t, err)
	require.NotEmpty(t, f.Revision)

	got, err := m.Get(ctx, "config.json")
	require.NoError(t, err)
	require.Equal(t, f.Revision, got.Revision)
	require.Equal(t, []byte(`{"a":1}`), got.Content)
}

func TestMemoryCreateDuplicateFails(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.Create(ctx, "config.json", []byte("a"))
	require.NoError(t, err)
	_, err = m.Create(ctx, "config.json", []byte("b"))
	require.Error(t, err)
}

func TestMemoryUpdateRequiresCurrentRevision(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	f, err := m.Create(ctx, "a.json", []byte("one"))
	require.NoError(t, err)

	_, err = m.Update(ctx, "a.json", []byte("two"), "stale-revision")
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.InvalidToken))

	updated, err := m.Update(ctx, "a.json", []byte("two"), f.Revision)
	require.NoError(t, err)
	require.NotEqual(t, f.Revision, updated.Revision)
}

func TestMemoryDeleteRequiresCurrentRevision(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	f, err := m.Create(ctx, "a.json", []byte("one"))
	require.NoError(t, err)

	err = m.Delete(ctx, "a.json", "stale-revision")
	require.Error(t, err)

	err = m.Delete(ctx, "a.json", f.Revision)
	require.NoError(t, err)

	exists, err := m.Exists(ctx, "a.json")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestMemoryListFilenames(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.Create(ctx, "status/revocation/list1.json", []byte("a"))
	require.NoError(t, err)
	_, err = m.Create(ctx, "status/revocation/list2.json", []byte("b"))
	require.NoError(t, err)
	_, err = m.Create(ctx, "config.json", []byte("c"))
	require.NoError(t, err)

	names, err := m.ListFilenames(ctx, "status/revocation")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"list1.json", "list2.json"}, names)
}

func TestMemoryIsEmpty(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	empty, err := m.IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	_, err = m.Create(ctx, "config.json", []byte("a"))
	require.NoError(t, err)

	empty, err = m.IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestMemoryGetNotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.Get(ctx, "missing.json")
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.NotFound))
}
