// Package configstore is a typed wrapper over a repostore.RepoStore for
// the two JSON files that make up the manager's authoritative metadata:
// config.json and, while one is in flight, snapshot.json.
package configstore

import (
	"context"
	"encoding/json"

	"github.com/ParichayaHQ/status-manager/internal/repostore"
	"github.com/ParichayaHQ/status-manager/pkg/apperr"
	"github.com/ParichayaHQ/status-manager/pkg/types"
)

const (
	ConfigPath   = "config.json"
	SnapshotPath = "snapshot.json"
)

// Store reads and writes config.json/snapshot.json against a RepoStore.
type Store struct {
	repo repostore.RepoStore
}

func New(repo repostore.RepoStore) *Store {
	return &Store{repo: repo}
}

// GetConfig reads and decodes config.json, returning its current
// revision token alongside the parsed value.
func (s *Store) GetConfig(ctx context.Context) (*types.Config, string, error) {
	f, err := s.repo.Get(ctx, ConfigPath)
	if err != nil {
		return nil, "", err
	}
	var cfg types.Config
	if err := json.Unmarshal(f.Content, &cfg); err != nil {
		return nil, "", apperr.Wrap(apperr.BadRequest, "configstore.GetConfig", "config.json is not valid JSON", err)
	}
	return &cfg, f.Revision, nil
}

// PutConfig creates config.json if it doesn't exist yet, or updates it
// using expectedRevision as the concurrency token.
func (s *Store) PutConfig(ctx context.Context, cfg *types.Config, expectedRevision string) (string, error) {
	encoded, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", apperr.Wrap(apperr.BadRequest, "configstore.PutConfig", "failed to encode config", err)
	}

	if expectedRevision == "" {
		f, err := s.repo.Create(ctx, ConfigPath, encoded)
		if err != nil {
			return "", err
		}
		return f.Revision, nil
	}

	f, err := s.repo.Update(ctx, ConfigPath, encoded, expectedRevision)
	if err != nil {
		return "", err
	}
	return f.Revision, nil
}

// HasSnapshot reports whether an in-flight snapshot.json exists.
func (s *Store) HasSnapshot(ctx context.Context) (bool, error) {
	return s.repo.Exists(ctx, SnapshotPath)
}

// GetSnapshot reads and decodes snapshot.json.
func (s *Store) GetSnapshot(ctx context.Context) (*types.Snapshot, string, error) {
	f, err := s.repo.Get(ctx, SnapshotPath)
	if err != nil {
		return nil, "", err
	}
	var snap types.Snapshot
	if err := json.Unmarshal(f.Content, &snap); err != nil {
		return nil, "", apperr.Wrap(apperr.BadRequest, "configstore.GetSnapshot", "snapshot.json is not valid JSON", err)
	}
	return &snap, f.Revision, nil
}

// PutSnapshot creates snapshot.json. Returns SnapshotExists if one is
// already present — a new snapshot is never taken over an existing one.
func (s *Store) PutSnapshot(ctx context.Context, snap *types.Snapshot) error {
	exists, err := s.HasSnapshot(ctx)
	if err != nil {
		return err
	}
	if exists {
		return apperr.New(apperr.SnapshotExists, "configstore.PutSnapshot", "snapshot.json already exists")
	}

	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.BadRequest, "configstore.PutSnapshot", "failed to encode snapshot", err)
	}
	_, err = s.repo.Create(ctx, SnapshotPath, encoded)
	return err
}

// DeleteSnapshot removes snapshot.json using its current revision.
func (s *Store) DeleteSnapshot(ctx context.Context, revision string) error {
	return s.repo.Delete(ctx, SnapshotPath, revision)
}
