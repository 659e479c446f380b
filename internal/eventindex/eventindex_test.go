package eventindex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ParichayaHQ/status-manager/pkg/types"
)

func TestRebuildAndLookup(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	log := []types.EventLogEntry{
		{Timestamp: time.Unix(1, 0), CredentialId: "cred-a"},
		{Timestamp: time.Unix(2, 0), CredentialId: "cred-b"},
		{Timestamp: time.Unix(3, 0), CredentialId: "cred-a"},
	}
	require.NoError(t, idx.Rebuild(ctx, log))

	pos, ok, err := idx.LatestPosition(ctx, "cred-a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, pos)

	pos, ok, err = idx.LatestPosition(ctx, "cred-b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, pos)

	_, ok, err = idx.LatestPosition(ctx, "cred-missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestObserveIncrementallyUpdates(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	ctx := context.Background()
	require.NoError(t, idx.Observe(ctx, "cred-a", 5))
	require.NoError(t, idx.Observe(ctx, "cred-a", 9))

	pos, ok, err := idx.LatestPosition(ctx, "cred-a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 9, pos)
}
