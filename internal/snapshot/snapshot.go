// Package snapshot implements crash-consistent rollback: before any
// mutating operation runs, the current config.json and every status
// credential file it references are captured in snapshot.json. If the
// process dies mid-operation, the next manager startup finds the
// snapshot and restores from it before anything else runs.
package snapshot

import (
	"context"

	"github.com/ParichayaHQ/status-manager/internal/configstore"
	"github.com/ParichayaHQ/status-manager/internal/statuscredstore"
	"github.com/ParichayaHQ/status-manager/pkg/apperr"
	"github.com/ParichayaHQ/status-manager/pkg/types"
)

// Engine saves, restores, and cleans up snapshot.json.
type Engine struct {
	cfgStore  *configstore.Store
	credStore *statuscredstore.Store
}

func New(cfgStore *configstore.Store, credStore *statuscredstore.Store) *Engine {
	return &Engine{cfgStore: cfgStore, credStore: credStore}
}

// Save captures cfg and every status credential it currently references
// into snapshot.json. Returns SnapshotExists if one is already present —
// the caller must restore and clean up the existing snapshot before a
// new critical section may begin.
func (e *Engine) Save(ctx context.Context, cfg *types.Config) error {
	snap := &types.Snapshot{
		Config:            cfg.Clone(),
		StatusCredentials: make(map[string]*types.StatusCredential),
	}

	for _, info := range cfg.StatusCredentialInfo {
		if info.LatestStatusCredentialId == "" {
			continue
		}
		cred, _, err := e.credStore.Get(ctx, info.LatestStatusCredentialId)
		if err != nil {
			return err
		}
		snap.StatusCredentials[info.LatestStatusCredentialId] = cred
	}

	return e.cfgStore.PutSnapshot(ctx, snap)
}

// Restore writes snapshot.json's pre-image back over config.json and
// every status credential file it covers, undoing a partially-applied
// mutation.
func (e *Engine) Restore(ctx context.Context) error {
	snap, _, err := e.cfgStore.GetSnapshot(ctx)
	if err != nil {
		return err
	}

	for id, cred := range snap.StatusCredentials {
		_, _, err := e.credStore.Get(ctx, id)
		if err != nil {
			if apperr.Is(err, apperr.NotFound) {
				if _, err := e.credStore.Create(ctx, id, cred); err != nil {
					return err
				}
				continue
			}
			return err
		}
		currentRev, revErr := e.currentRevision(ctx, id)
		if revErr != nil {
			return revErr
		}
		if _, err := e.credStore.Update(ctx, id, cred, currentRev); err != nil {
			return err
		}
	}

	_, currentCfgRev, err := e.cfgStore.GetConfig(ctx)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			_, err := e.cfgStore.PutConfig(ctx, snap.Config, "")
			return err
		}
		return err
	}
	_, err = e.cfgStore.PutConfig(ctx, snap.Config, currentCfgRev)
	return err
}

// Cleanup deletes snapshot.json. It is always called after Restore
// succeeds, and after a critical-section operation completes
// successfully without needing a restore. Deletion is ordered before
// any subsequent Save, so a crash between Cleanup and the next Save can
// never observe two snapshots.
func (e *Engine) Cleanup(ctx context.Context) error {
	exists, err := e.cfgStore.HasSnapshot(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	_, revision, err := e.cfgStore.GetSnapshot(ctx)
	if err != nil {
		return err
	}
	return e.cfgStore.DeleteSnapshot(ctx, revision)
}

func (e *Engine) currentRevision(ctx context.Context, id string) (string, error) {
	_, rev, err := e.credStore.Get(ctx, id)
	return rev, err
}
