package manager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ParichayaHQ/status-manager/internal/repostore"
	"github.com/ParichayaHQ/status-manager/pkg/apperr"
	"github.com/ParichayaHQ/status-manager/pkg/types"
)

func testOptions() types.ManagerOptions {
	opts := types.DefaultManagerOptions()
	opts.DidSeed = "this-is-a-thirty-two-byte-seed!!"
	opts.GitService = "github"
	opts.OwnerAccountName = "example-owner"
	opts.RepoName = "status-list"
	return opts
}

func TestCreateBootstrapsEmptyRepo(t *testing.T) {
	ctx := context.Background()
	repo := repostore.NewMemory()

	m, err := Create(ctx, repo, testOptions(), nil)
	require.NoError(t, err)
	defer m.Close()

	empty, err := repo.IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestAllocateStatusAttachesBothPurposes(t *testing.T) {
	ctx := context.Background()
	repo := repostore.NewMemory()
	m, err := Create(ctx, repo, testOptions(), nil)
	require.NoError(t, err)
	defer m.Close()

	cred := types.Credential{
		"@context":         []interface{}{types.VC20ContextURL},
		"id":                "urn:uuid:cred-1",
		"credentialSubject": map[string]interface{}{"id": "did:example:subject"},
	}

	updated, err := m.AllocateStatus(ctx, cred)
	require.NoError(t, err)

	status, ok := updated["credentialStatus"]
	require.True(t, ok)
	entries, ok := status.([]interface{})
	require.True(t, ok)
	require.Len(t, entries, 2)
}

func TestAllocateStatusIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := repostore.NewMemory()
	m, err := Create(ctx, repo, testOptions(), nil)
	require.NoError(t, err)
	defer m.Close()

	cred := types.Credential{
		"@context":         []interface{}{types.VC20ContextURL},
		"id":                "urn:uuid:cred-2",
		"credentialSubject": map[string]interface{}{"id": "did:example:subject"},
	}

	first, err := m.AllocateStatus(ctx, cred)
	require.NoError(t, err)
	second, err := m.AllocateStatus(ctx, cred)
	require.NoError(t, err)

	require.Equal(t, first["credentialStatus"], second["credentialStatus"])
}

func TestUpdateStatusRevokeThenCheck(t *testing.T) {
	ctx := context.Background()
	repo := repostore.NewMemory()
	m, err := Create(ctx, repo, testOptions(), nil)
	require.NoError(t, err)
	defer m.Close()

	cred := types.Credential{
		"@context":         []interface{}{types.VC20ContextURL},
		"id":                "urn:uuid:cred-3",
		"credentialSubject": map[string]interface{}{"id": "did:example:subject"},
	}
	_, err = m.AllocateStatus(ctx, cred)
	require.NoError(t, err)

	valid, err := m.GetStatus(ctx, "urn:uuid:cred-3", types.Revocation)
	require.NoError(t, err)
	require.True(t, valid)

	err = m.UpdateStatus(ctx, "urn:uuid:cred-3", types.Revocation, false)
	require.NoError(t, err)

	valid, err = m.GetStatus(ctx, "urn:uuid:cred-3", types.Revocation)
	require.NoError(t, err)
	require.False(t, valid)
}

func TestRevocationIsPermanent(t *testing.T) {
	ctx := context.Background()
	repo := repostore.NewMemory()
	m, err := Create(ctx, repo, testOptions(), nil)
	require.NoError(t, err)
	defer m.Close()

	cred := types.Credential{
		"@context":         []interface{}{types.VC20ContextURL},
		"id":                "urn:uuid:cred-4",
		"credentialSubject": map[string]interface{}{"id": "did:example:subject"},
	}
	_, err = m.AllocateStatus(ctx, cred)
	require.NoError(t, err)

	require.NoError(t, m.UpdateStatus(ctx, "urn:uuid:cred-4", types.Revocation, false))
	err = m.UpdateStatus(ctx, "urn:uuid:cred-4", types.Revocation, true)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.BadRequest))
}

func TestRevokedCredentialBlocksSuspensionChange(t *testing.T) {
	ctx := context.Background()
	repo := repostore.NewMemory()
	m, err := Create(ctx, repo, testOptions(), nil)
	require.NoError(t, err)
	defer m.Close()

	cred := types.Credential{
		"@context":         []interface{}{types.VC20ContextURL},
		"id":                "urn:uuid:cred-5",
		"credentialSubject": map[string]interface{}{"id": "did:example:subject"},
	}
	_, err = m.AllocateStatus(ctx, cred)
	require.NoError(t, err)

	require.NoError(t, m.UpdateStatus(ctx, "urn:uuid:cred-5", types.Revocation, false))

	err = m.UpdateStatus(ctx, "urn:uuid:cred-5", types.Suspension, false)
	require.Error(t, err)
}

func TestGetCredentialInfo(t *testing.T) {
	ctx := context.Background()
	repo := repostore.NewMemory()
	m, err := Create(ctx, repo, testOptions(), nil)
	require.NoError(t, err)
	defer m.Close()

	cred := types.Credential{
		"@context":         []interface{}{types.VC20ContextURL},
		"id":                "urn:uuid:cred-6",
		"credentialSubject": map[string]interface{}{"id": "did:example:subject-6"},
	}
	_, err = m.AllocateStatus(ctx, cred)
	require.NoError(t, err)

	info, err := m.GetCredentialInfo(ctx, "urn:uuid:cred-6")
	require.NoError(t, err)
	require.Equal(t, "did:example:subject-6", info.CredentialSubject)
	require.Len(t, info.Status, 2)
}

func TestStatsReflectsAllocationsAndRevocations(t *testing.T) {
	ctx := context.Background()
	repo := repostore.NewMemory()
	m, err := Create(ctx, repo, testOptions(), nil)
	require.NoError(t, err)
	defer m.Close()

	for i := 0; i < 3; i++ {
		cred := types.Credential{
			"@context":         []interface{}{types.VC20ContextURL},
			"id":                "urn:uuid:cred-stats-" + string(rune('a'+i)),
			"credentialSubject": map[string]interface{}{"id": "did:example:subject"},
		}
		_, err := m.AllocateStatus(ctx, cred)
		require.NoError(t, err)
	}
	require.NoError(t, m.UpdateStatus(ctx, "urn:uuid:cred-stats-a", types.Revocation, false))

	stats, err := m.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.CredentialsIssued)
	require.Equal(t, 3, stats.PerPurpose[types.Revocation].EntriesIssued)
	require.Equal(t, 1, stats.PerPurpose[types.Revocation].CurrentlyRevoked)
}
