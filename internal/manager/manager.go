// Package manager implements the orchestrator: the single mutex-
// serialized entry point that ties RepoStore, ConfigStore,
// StatusCredentialStore, the allocator, the updater, the repo-state
// validator, and the snapshot engine together into consistent
// allocate/update/read operations.
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ParichayaHQ/status-manager/internal/allocator"
	"github.com/ParichayaHQ/status-manager/internal/configstore"
	"github.com/ParichayaHQ/status-manager/internal/deploy"
	"github.com/ParichayaHQ/status-manager/internal/eventindex"
	"github.com/ParichayaHQ/status-manager/internal/identity"
	"github.com/ParichayaHQ/status-manager/internal/obslog"
	"github.com/ParichayaHQ/status-manager/internal/repostore"
	"github.com/ParichayaHQ/status-manager/internal/snapshot"
	"github.com/ParichayaHQ/status-manager/internal/statuscredstore"
	"github.com/ParichayaHQ/status-manager/internal/updater"
	valid "github.com/ParichayaHQ/status-manager/internal/validator"
	"github.com/ParichayaHQ/status-manager/pkg/apperr"
	"github.com/ParichayaHQ/status-manager/pkg/types"
)

var optionsValidator = validator.New()

// Manager is the orchestrator. All mutating operations serialize
// through mu; nothing in this package spawns a goroutine.
type Manager struct {
	mu sync.Mutex

	repo      repostore.RepoStore
	cfgStore  *configstore.Store
	credStore *statuscredstore.Store
	index     *eventindex.Index
	identity  *identity.Identity

	allocator *allocator.Allocator
	updater   *updater.Updater
	validator *valid.Validator
	snap      *snapshot.Engine
	deployer  deploy.StaticSiteDeployer
	logger    *obslog.Logger

	opts types.ManagerOptions
}

// Create builds a Manager against repo: deriving the issuer identity
// from opts, bootstrapping config.json if the repository is empty, and
// otherwise recovering from any in-flight snapshot left by a prior
// crash before any new operation is allowed to run.
func Create(ctx context.Context, repo repostore.RepoStore, opts types.ManagerOptions, deployer deploy.StaticSiteDeployer) (*Manager, error) {
	if err := optionsValidator.Struct(opts); err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "manager.Create", "invalid manager options", err)
	}

	id, err := identity.Derive(opts.DidMethod, opts.DidSeed, opts.DidWebUrl)
	if err != nil {
		return nil, err
	}

	idx, err := eventindex.Open(opts.EventIndexPath)
	if err != nil {
		return nil, err
	}

	if deployer == nil {
		deployer = deploy.NoOp{}
	}

	cfgStore := configstore.New(repo)
	credStore := statuscredstore.New(repo)
	baseURL := opts.PagesBaseURL()
	logger := obslog.New("[status-manager]", obslog.LevelInfo)

	m := &Manager{
		repo:      repo,
		cfgStore:  cfgStore,
		credStore: credStore,
		index:     idx,
		identity:  id,
		allocator: allocator.New(credStore, idx, id, baseURL, opts.ListSize),
		updater:   updater.New(credStore, idx, id, baseURL, opts.ListSize),
		validator: valid.New(credStore, opts.Purposes, baseURL, opts.ListSize, logger),
		snap:      snapshot.New(cfgStore, credStore),
		deployer:  deployer,
		logger:    logger,
		opts:      opts,
	}

	if err := m.bootstrapOrRecover(ctx); err != nil {
		idx.Close()
		return nil, err
	}
	return m, nil
}

// Close releases the manager's resources (its event index database).
func (m *Manager) Close() error {
	return m.index.Close()
}

func (m *Manager) bootstrapOrRecover(ctx context.Context) error {
	empty, err := m.repo.IsEmpty(ctx)
	if err != nil {
		return err
	}

	if empty {
		return m.bootstrap(ctx)
	}

	return m.recover(ctx)
}

// bootstrap initializes a brand-new repository: one initial, empty
// status list per tracked purpose, config.json pointing at them with
// statusCredentialsCounter=1, and a deploy so the freshly created lists
// are reachable at their published URL immediately.
func (m *Manager) bootstrap(ctx context.Context) error {
	cfg := &types.Config{
		StatusCredentialInfo: make(map[types.Purpose]*types.StatusCredentialInfo),
	}

	now := time.Now().UTC()
	for _, p := range m.opts.Purposes {
		if err := m.allocator.Bootstrap(ctx, cfg, p, now); err != nil {
			return err
		}
	}

	if _, err := m.cfgStore.PutConfig(ctx, cfg, ""); err != nil {
		return err
	}
	if err := m.index.Rebuild(ctx, cfg.EventLog); err != nil {
		return err
	}

	if err := m.deployer.Deploy(ctx); err != nil {
		m.logger.Warnf("deploy hook failed during bootstrap: %v", err)
	}
	return nil
}

func (m *Manager) recover(ctx context.Context) error {
	hasSnapshot, err := m.cfgStore.HasSnapshot(ctx)
	if err != nil {
		return err
	}
	if hasSnapshot {
		m.logger.Warnf("recovering from snapshot left by a previous incomplete operation")
		if err := m.snap.Restore(ctx); err != nil {
			return err
		}
		if err := m.snap.Cleanup(ctx); err != nil {
			return err
		}
	}

	cfg, _, err := m.cfgStore.GetConfig(ctx)
	if err != nil {
		return err
	}
	if err := m.validator.Validate(ctx, cfg); err != nil {
		return err
	}
	return m.index.Rebuild(ctx, cfg.EventLog)
}

// runCritical implements the save -> unsafe-op -> cleanup protocol
// shared by every mutating operation, bounded to
// opts.SnapshotRetryLimit attempts. Any error other than
// InvalidRepoState is retried; InvalidRepoState is returned
// immediately, since retrying cannot fix a repo state the validator has
// rejected.
func (m *Manager) runCritical(ctx context.Context, op func(cfg *types.Config) (types.Credential, error)) (types.Credential, error) {
	var lastErr error
	for attempt := 0; attempt < m.opts.SnapshotRetryLimit; attempt++ {
		result, err := m.attemptCritical(ctx, op)
		if err == nil {
			return result, nil
		}
		if apperr.Is(err, apperr.InvalidRepoState) {
			return nil, err
		}
		lastErr = err
		m.logger.Warnf("critical section attempt %d failed: %v", attempt+1, err)
	}
	return nil, apperr.Wrap(apperr.BadRequest, "manager.runCritical", "exhausted retry attempts", lastErr)
}

func (m *Manager) attemptCritical(ctx context.Context, op func(cfg *types.Config) (types.Credential, error)) (types.Credential, error) {
	hasSnapshot, err := m.cfgStore.HasSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if hasSnapshot {
		if err := m.snap.Restore(ctx); err != nil {
			return nil, err
		}
		if err := m.snap.Cleanup(ctx); err != nil {
			return nil, err
		}
	}

	cfg, revision, err := m.cfgStore.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.validator.Validate(ctx, cfg); err != nil {
		return nil, err
	}

	if err := m.snap.Save(ctx, cfg); err != nil {
		return nil, err
	}

	result, opErr := op(cfg)
	if opErr != nil {
		if restoreErr := m.snap.Restore(ctx); restoreErr != nil {
			return nil, restoreErr
		}
		if cleanupErr := m.snap.Cleanup(ctx); cleanupErr != nil {
			return nil, cleanupErr
		}
		return nil, opErr
	}

	if _, err := m.cfgStore.PutConfig(ctx, cfg, revision); err != nil {
		return nil, err
	}
	if err := m.snap.Cleanup(ctx); err != nil {
		return nil, err
	}

	if deployErr := m.deployer.Deploy(ctx); deployErr != nil {
		m.logger.Warnf("deploy hook failed: %v", deployErr)
	}

	return result, nil
}

// AllocateStatus attaches a credentialStatus entry to credential for
// every tracked purpose, allocating fresh status-list indices as
// needed, and returns the updated credential.
func (m *Manager) AllocateStatus(ctx context.Context, credential types.Credential) (types.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	return m.runCritical(ctx, func(cfg *types.Config) (types.Credential, error) {
		return m.allocator.Allocate(ctx, cfg, credential, m.opts.Purposes, now)
	})
}

// UpdateStatus flips credentialID's bit for purpose. newValid=false
// revokes/suspends; newValid=true restores (except revocation, which is
// permanent).
func (m *Manager) UpdateStatus(ctx context.Context, credentialID string, purpose types.Purpose, newValid bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	_, err := m.runCritical(ctx, func(cfg *types.Config) (types.Credential, error) {
		if err := m.updater.Update(ctx, cfg, credentialID, purpose, newValid, now); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// GetStatus returns whether credentialID is currently valid for
// purpose.
func (m *Manager) GetStatus(ctx context.Context, credentialID string, purpose types.Purpose) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, _, err := m.cfgStore.GetConfig(ctx)
	if err != nil {
		return false, err
	}
	for i := len(cfg.EventLog) - 1; i >= 0; i-- {
		if cfg.EventLog[i].CredentialId != credentialID {
			continue
		}
		info, ok := cfg.EventLog[i].CredentialStatusInfo[purpose]
		if !ok {
			return false, apperr.New(apperr.NotFound, "manager.GetStatus", "no allocation for purpose "+string(purpose))
		}
		return info.Valid, nil
	}
	return false, apperr.New(apperr.NotFound, "manager.GetStatus", "credential not found: "+credentialID)
}

// CredentialInfo is the per-credential view returned by
// GetCredentialInfo: its subject and current status per purpose.
type CredentialInfo struct {
	CredentialID      string
	CredentialSubject string
	Status            map[types.Purpose]types.CredentialStatusInfo
}

// GetCredentialInfo returns everything tracked about credentialID.
func (m *Manager) GetCredentialInfo(ctx context.Context, credentialID string) (*CredentialInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, _, err := m.cfgStore.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(cfg.EventLog) - 1; i >= 0; i-- {
		entry := cfg.EventLog[i]
		if entry.CredentialId != credentialID {
			continue
		}
		status := make(map[types.Purpose]types.CredentialStatusInfo, len(entry.CredentialStatusInfo))
		for p, info := range entry.CredentialStatusInfo {
			status[p] = *info
		}
		return &CredentialInfo{
			CredentialID:      credentialID,
			CredentialSubject: entry.CredentialSubject,
			Status:            status,
		}, nil
	}
	return nil, apperr.New(apperr.NotFound, "manager.GetCredentialInfo", "credential not found: "+credentialID)
}

// Stats is a lightweight on-demand snapshot of operational counters,
// computed from config.json with no background collection.
type Stats struct {
	CredentialsIssued int
	PerPurpose        map[types.Purpose]PurposeStats
}

// PurposeStats summarizes one purpose's allocation state.
type PurposeStats struct {
	ListsUsed          int
	EntriesIssued      int
	CurrentlyRevoked   int
	CurrentlySuspended int
}

// Stats computes current operational counters from config.json.
func (m *Manager) Stats(ctx context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, _, err := m.cfgStore.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	out := &Stats{
		CredentialsIssued: cfg.CredentialsIssuedCounter,
		PerPurpose:        make(map[types.Purpose]PurposeStats, len(cfg.StatusCredentialInfo)),
	}

	latest := latestEntryPerCredential(cfg.EventLog)
	for p, info := range cfg.StatusCredentialInfo {
		ps := PurposeStats{ListsUsed: info.StatusCredentialsCounter}
		for _, entry := range latest {
			status, ok := entry.CredentialStatusInfo[p]
			if !ok {
				continue
			}
			ps.EntriesIssued++
			if !status.Valid {
				if p == types.Revocation {
					ps.CurrentlyRevoked++
				} else if p == types.Suspension {
					ps.CurrentlySuspended++
				}
			}
		}
		out.PerPurpose[p] = ps
	}
	return out, nil
}

func latestEntryPerCredential(log []types.EventLogEntry) map[string]types.EventLogEntry {
	out := make(map[string]types.EventLogEntry)
	for _, entry := range log {
		out[entry.CredentialId] = entry
	}
	return out
}
