package allocator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ParichayaHQ/status-manager/internal/identity"
	"github.com/ParichayaHQ/status-manager/internal/repostore"
	"github.com/ParichayaHQ/status-manager/internal/statuscredstore"
	"github.com/ParichayaHQ/status-manager/pkg/apperr"
	"github.com/ParichayaHQ/status-manager/pkg/types"
)

func newTestAllocator(t *testing.T, listSize int) *Allocator {
	t.Helper()
	id, err := identity.Derive(types.DidMethodKey, "this-is-a-thirty-two-byte-seed!!", "")
	require.NoError(t, err)
	credStore := statuscredstore.New(repostore.NewMemory())
	return New(credStore, nil, id, "https://owner.github.io/status-list", listSize)
}

func freshConfig() *types.Config {
	return &types.Config{
		StatusCredentialInfo: make(map[types.Purpose]*types.StatusCredentialInfo),
	}
}

func TestAllocateGeneratesIDWhenMissing(t *testing.T) {
	ctx := context.Background()
	a := newTestAllocator(t, types.ListSize)
	cfg := freshConfig()

	cred := types.Credential{
		"@context":          []interface{}{types.VC20ContextURL},
		"credentialSubject": map[string]interface{}{"id": "did:example:subject"},
	}

	updated, err := a.Allocate(ctx, cfg, cred, types.Purposes, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(updated.ID(), "urn:uuid:"))
}

func TestAllocateRejectsUnsupportedContext(t *testing.T) {
	ctx := context.Background()
	a := newTestAllocator(t, types.ListSize)
	cfg := freshConfig()

	cred := types.Credential{
		"@context":          []interface{}{"https://example.com/not-a-vc-context"},
		"id":                "urn:uuid:11111111-1111-1111-1111-111111111111",
		"credentialSubject": map[string]interface{}{"id": "did:example:subject"},
	}

	_, err := a.Allocate(ctx, cfg, cred, types.Purposes, time.Now().UTC())
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.BadRequest))
}

func TestAllocateRejectsMalformedID(t *testing.T) {
	ctx := context.Background()
	a := newTestAllocator(t, types.ListSize)
	cfg := freshConfig()

	cred := types.Credential{
		"@context":          []interface{}{types.VC20ContextURL},
		"id":                "not-a-url-uuid-or-did",
		"credentialSubject": map[string]interface{}{"id": "did:example:subject"},
	}

	_, err := a.Allocate(ctx, cfg, cred, types.Purposes, time.Now().UTC())
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.BadRequest))
}

func TestAllocateStripsExistingStatusAndProof(t *testing.T) {
	ctx := context.Background()
	a := newTestAllocator(t, types.ListSize)
	cfg := freshConfig()

	cred := types.Credential{
		"@context":          []interface{}{types.VC20ContextURL},
		"id":                "urn:uuid:22222222-2222-2222-2222-222222222222",
		"credentialSubject": map[string]interface{}{"id": "did:example:subject"},
		"credentialStatus":  map[string]interface{}{"id": "stale"},
		"proof":             map[string]interface{}{"type": "stale-proof"},
	}

	updated, err := a.Allocate(ctx, cfg, cred, types.Purposes, time.Now().UTC())
	require.NoError(t, err)
	_, hasProof := updated["proof"]
	require.False(t, hasProof)

	status := updated["credentialStatus"].([]interface{})
	for _, e := range status {
		entry := e.(map[string]interface{})
		require.NotEqual(t, "stale", entry["id"])
	}
}

// TestAllocateRollsOverAtListBoundary exercises rollover with a list
// size small enough to drive through it directly: with a list size of
// 2, three allocations for the same purpose must produce two lists.
func TestAllocateRollsOverAtListBoundary(t *testing.T) {
	ctx := context.Background()
	a := newTestAllocator(t, 2)
	cfg := freshConfig()
	purposes := []types.Purpose{types.Revocation}

	var lastInfo *types.CredentialStatusInfo
	for i := 0; i < 3; i++ {
		cred := types.Credential{
			"@context":          []interface{}{types.VC20ContextURL},
			"id":                "urn:uuid:33333333-3333-3333-3333-33333333333" + string(rune('0'+i)),
			"credentialSubject": map[string]interface{}{"id": "did:example:subject"},
		}
		_, err := a.Allocate(ctx, cfg, cred, purposes, time.Now().UTC())
		require.NoError(t, err)
		entry := cfg.EventLog[len(cfg.EventLog)-1]
		lastInfo = entry.CredentialStatusInfo[types.Revocation]
	}

	require.Len(t, cfg.StatusCredentialIds, 2)
	require.Equal(t, 1, lastInfo.StatusListIndex)
	require.Equal(t, 2, cfg.StatusCredentialInfo[types.Revocation].StatusCredentialsCounter)
}
