// Package statuscredstore is a typed wrapper over a repostore.RepoStore
// for status-credential JSON files.
package statuscredstore

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ParichayaHQ/status-manager/internal/configstore"
	"github.com/ParichayaHQ/status-manager/internal/repostore"
	"github.com/ParichayaHQ/status-manager/pkg/apperr"
	"github.com/ParichayaHQ/status-manager/pkg/types"
)

// Store reads and writes status-credential files, one per status list,
// stored flat at the repository root: the filename is the list's own
// id with a .json suffix.
type Store struct {
	repo repostore.RepoStore
}

func New(repo repostore.RepoStore) *Store {
	return &Store{repo: repo}
}

func pathFor(statusCredentialID string) string {
	return statusCredentialID + ".json"
}

// Get reads and decodes a status credential file.
func (s *Store) Get(ctx context.Context, statusCredentialID string) (*types.StatusCredential, string, error) {
	f, err := s.repo.Get(ctx, pathFor(statusCredentialID))
	if err != nil {
		return nil, "", err
	}
	var cred types.StatusCredential
	if err := json.Unmarshal(f.Content, &cred); err != nil {
		return nil, "", apperr.Wrap(apperr.BadRequest, "statuscredstore.Get", "status credential is not valid JSON", err)
	}
	return &cred, f.Revision, nil
}

// Create writes a brand-new status credential file.
func (s *Store) Create(ctx context.Context, statusCredentialID string, cred *types.StatusCredential) (string, error) {
	encoded, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return "", apperr.Wrap(apperr.BadRequest, "statuscredstore.Create", "failed to encode status credential", err)
	}
	f, err := s.repo.Create(ctx, pathFor(statusCredentialID), encoded)
	if err != nil {
		return "", err
	}
	return f.Revision, nil
}

// Update overwrites an existing status credential file, using
// expectedRevision as the concurrency token.
func (s *Store) Update(ctx context.Context, statusCredentialID string, cred *types.StatusCredential, expectedRevision string) (string, error) {
	encoded, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return "", apperr.Wrap(apperr.BadRequest, "statuscredstore.Update", "failed to encode status credential", err)
	}
	f, err := s.repo.Update(ctx, pathFor(statusCredentialID), encoded, expectedRevision)
	if err != nil {
		return "", err
	}
	return f.Revision, nil
}

// Exists reports whether a status credential file is present.
func (s *Store) Exists(ctx context.Context, statusCredentialID string) (bool, error) {
	return s.repo.Exists(ctx, pathFor(statusCredentialID))
}

// ListFilenames returns every status-credential id present at the
// repository root, with the .json suffix stripped.
func (s *Store) ListFilenames(ctx context.Context) ([]string, error) {
	files, err := s.repo.ListFilenames(ctx, "")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(files))
	for _, f := range files {
		if f == configstore.ConfigPath || f == configstore.SnapshotPath {
			continue
		}
		if !strings.HasSuffix(f, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(f, ".json"))
	}
	return ids, nil
}
