// Package validator checks the cross-resource invariants that must hold
// across config.json and the status-credential files it references
// before any mutating operation is allowed to proceed.
package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/ParichayaHQ/status-manager/internal/obslog"
	"github.com/ParichayaHQ/status-manager/internal/statuscredstore"
	"github.com/ParichayaHQ/status-manager/pkg/apperr"
	"github.com/ParichayaHQ/status-manager/pkg/types"
)

// Validator checks repo state against an in-memory config.
type Validator struct {
	credStore *statuscredstore.Store
	purposes  []types.Purpose
	baseURL   string
	listSize  int
	logger    *obslog.Logger
}

func New(credStore *statuscredstore.Store, purposes []types.Purpose, baseURL string, listSize int, logger *obslog.Logger) *Validator {
	return &Validator{credStore: credStore, purposes: purposes, baseURL: baseURL, listSize: listSize, logger: logger}
}

// Validate runs every invariant check against cfg and returns an
// InvalidRepoState error describing the first violation found, or nil
// if the repo state is consistent.
func (v *Validator) Validate(ctx context.Context, cfg *types.Config) error {
	if err := v.checkTrackedPurposes(cfg); err != nil {
		return err
	}
	if err := v.checkCountersNonNegative(cfg); err != nil {
		return err
	}
	if err := v.checkStatusCredentialIdsReferenced(cfg); err != nil {
		return err
	}

	tracked, err := v.checkListsAndShapes(ctx, cfg)
	if err != nil {
		return err
	}
	if err := v.checkEveryPurposeTracked(tracked); err != nil {
		return err
	}
	if err := v.checkNoMissingFiles(ctx, cfg); err != nil {
		return err
	}
	if err := v.checkEventLogCounters(cfg); err != nil {
		return err
	}
	return nil
}

// checkTrackedPurposes: every purpose this manager tracks has a
// statusCredentialInfo entry.
func (v *Validator) checkTrackedPurposes(cfg *types.Config) error {
	for _, p := range v.purposes {
		if _, ok := cfg.StatusCredentialInfo[p]; !ok {
			return invalid("missing statusCredentialInfo for purpose %q", p)
		}
	}
	return nil
}

// checkCountersNonNegative: all counters are non-negative and a
// purpose's latestCredentialsIssuedCounter never exceeds the global
// credentialsIssuedCounter.
func (v *Validator) checkCountersNonNegative(cfg *types.Config) error {
	if cfg.CredentialsIssuedCounter < 0 {
		return invalid("credentialsIssuedCounter is negative")
	}
	for p, info := range cfg.StatusCredentialInfo {
		if info.LatestCredentialsIssuedCounter < 0 || info.StatusCredentialsCounter < 0 {
			return invalid("negative counter for purpose %q", p)
		}
		if info.LatestCredentialsIssuedCounter > cfg.CredentialsIssuedCounter {
			return invalid("purpose %q latestCredentialsIssuedCounter exceeds global counter", p)
		}
	}
	return nil
}

// checkStatusCredentialIdsReferenced: every purpose's
// latestStatusCredentialId must appear in the global
// statusCredentialIds list.
func (v *Validator) checkStatusCredentialIdsReferenced(cfg *types.Config) error {
	known := make(map[string]bool, len(cfg.StatusCredentialIds))
	for _, id := range cfg.StatusCredentialIds {
		known[id] = true
	}
	for p, info := range cfg.StatusCredentialInfo {
		if info.LatestStatusCredentialId == "" {
			continue
		}
		if !known[info.LatestStatusCredentialId] {
			return invalid("purpose %q references untracked status credential id %q", p, info.LatestStatusCredentialId)
		}
	}
	return nil
}

// checkListsAndShapes walks every id in statusCredentialIds, requiring
// its file to exist and have the shape a BitstringStatusList credential
// must have, and returns the set of purposes whose
// latestStatusCredentialId was seen and confirmed well-formed.
func (v *Validator) checkListsAndShapes(ctx context.Context, cfg *types.Config) (map[types.Purpose]bool, error) {
	tracked := make(map[types.Purpose]bool, len(v.purposes))

	for _, id := range cfg.StatusCredentialIds {
		cred, _, err := v.credStore.Get(ctx, id)
		if err != nil {
			if apperr.Is(err, apperr.NotFound) {
				return nil, invalid("status credential file missing for id %q", id)
			}
			return nil, err
		}

		purpose, err := v.checkShape(cred, id)
		if err != nil {
			return nil, err
		}

		if info, ok := cfg.StatusCredentialInfo[purpose]; ok && info.LatestStatusCredentialId == id {
			tracked[purpose] = true
		}
	}

	return tracked, nil
}

// checkShape enforces the BitstringStatusList document shape: the
// credential's type list names BitstringStatusListCredential, its
// subject type is BitstringStatusList, its statusPurpose is a purpose
// this manager recognizes, and its subject id begins with the file's
// own published URL.
func (v *Validator) checkShape(cred *types.StatusCredential, id string) (types.Purpose, error) {
	hasType := false
	for _, t := range cred.Type {
		if t == types.BitstringStatusListType {
			hasType = true
			break
		}
	}
	if !hasType {
		return "", invalid("status credential %q does not declare type %q", id, types.BitstringStatusListType)
	}

	if cred.CredentialSubject.Type != types.BitstringStatusListSubjectType {
		return "", invalid("status credential %q subject type is %q, want %q", id, cred.CredentialSubject.Type, types.BitstringStatusListSubjectType)
	}

	purpose := types.Purpose(cred.CredentialSubject.StatusPurpose)
	if !purpose.Valid() {
		return "", invalid("status credential %q has unrecognized statusPurpose %q", id, cred.CredentialSubject.StatusPurpose)
	}

	wantPrefix := v.baseURL + "/" + id
	if !strings.HasPrefix(cred.CredentialSubject.ID, wantPrefix) {
		return "", invalid("status credential %q subject id %q does not begin with %q", id, cred.CredentialSubject.ID, wantPrefix)
	}

	return purpose, nil
}

// checkEveryPurposeTracked: every purpose this manager tracks must have
// had its latestStatusCredentialId confirmed present among the files
// walked by checkListsAndShapes — a map entry alone is not enough.
func (v *Validator) checkEveryPurposeTracked(tracked map[types.Purpose]bool) error {
	for _, p := range v.purposes {
		if !tracked[p] {
			return invalid("purpose %q has no confirmed current status credential", p)
		}
	}
	return nil
}

// checkNoMissingFiles: the repository's file listing must be a superset
// of statusCredentialIds — every id config.json tracks must actually be
// present on disk. Files present on disk but not tracked are tolerated
// and merely logged, since a prior crash can leave an orphaned file
// behind without corrupting anything config.json relies on.
func (v *Validator) checkNoMissingFiles(ctx context.Context, cfg *types.Config) error {
	files, err := v.credStore.ListFilenames(ctx)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f] = true
	}
	for _, id := range cfg.StatusCredentialIds {
		if !present[id] {
			return invalid("status credential id %q is tracked but has no file", id)
		}
	}
	if v.logger != nil {
		known := make(map[string]bool, len(cfg.StatusCredentialIds))
		for _, id := range cfg.StatusCredentialIds {
			known[id] = true
		}
		for _, f := range files {
			if !known[f] {
				v.logger.Warnf("untracked status credential file %q present in repository", f)
			}
		}
	}
	return nil
}

// checkEventLogCounters enforces the two numeric invariants tying the
// event log to the counters in config.json: the number of distinct
// credential ids ever logged must equal credentialsIssuedCounter, and
// no purpose's count of distinct credentials carrying an allocation for
// it may exceed the capacity its lists have actually been given
// (statusCredentialsCounter-1 full lists, plus the indices allocated in
// its current one).
func (v *Validator) checkEventLogCounters(cfg *types.Config) error {
	distinctCredentials := make(map[string]bool)
	perPurpose := make(map[types.Purpose]map[string]bool, len(v.purposes))
	for _, p := range v.purposes {
		perPurpose[p] = make(map[string]bool)
	}

	for _, entry := range cfg.EventLog {
		distinctCredentials[entry.CredentialId] = true
		for p := range entry.CredentialStatusInfo {
			if perPurpose[p] == nil {
				perPurpose[p] = make(map[string]bool)
			}
			perPurpose[p][entry.CredentialId] = true
		}
	}

	if len(distinctCredentials) != cfg.CredentialsIssuedCounter {
		return invalid("eventLog carries %d distinct credential ids, credentialsIssuedCounter says %d", len(distinctCredentials), cfg.CredentialsIssuedCounter)
	}

	for p, info := range cfg.StatusCredentialInfo {
		upperBound := (info.StatusCredentialsCounter-1)*v.listSize + info.LatestCredentialsIssuedCounter
		if len(perPurpose[p]) > upperBound {
			return invalid("purpose %q has %d credentials allocated, exceeding capacity %d", p, len(perPurpose[p]), upperBound)
		}
	}

	return nil
}

func invalid(format string, args ...interface{}) error {
	return apperr.New(apperr.InvalidRepoState, "validator.Validate", fmt.Sprintf(format, args...))
}
