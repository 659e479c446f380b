// Package allocator implements status-bit allocation: assigning a fresh
// credential a statusListIndex in the current status credential for
// each tracked purpose, rolling over to a new list when the current one
// is full.
package allocator

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/ParichayaHQ/status-manager/internal/codec"
	"github.com/ParichayaHQ/status-manager/internal/composer"
	"github.com/ParichayaHQ/status-manager/internal/eventindex"
	"github.com/ParichayaHQ/status-manager/internal/identity"
	"github.com/ParichayaHQ/status-manager/internal/statuscredstore"
	"github.com/ParichayaHQ/status-manager/pkg/apperr"
	"github.com/ParichayaHQ/status-manager/pkg/types"
)

// Allocator assigns status-list indices and writes the resulting status
// credential files. It never touches config.json directly — its
// Allocate method mutates the *types.Config the caller passes in and
// returns the updated credential; the caller (the orchestrator) is
// responsible for persisting config.json within its critical section.
type Allocator struct {
	credStore *statuscredstore.Store
	index     *eventindex.Index
	identity  *identity.Identity
	baseURL   string
	listSize  int
}

func New(credStore *statuscredstore.Store, index *eventindex.Index, id *identity.Identity, baseURL string, listSize int) *Allocator {
	return &Allocator{credStore: credStore, index: index, identity: id, baseURL: baseURL, listSize: listSize}
}

// Allocate attaches a credentialStatus entry, for every purpose in
// purposes, to credential. If credential's id already has an event-log
// entry for a given purpose, the existing allocation is reused
// (idempotency) instead of consuming a new index.
//
// Before allocation, credential is brought into the shape the manager
// requires: any pre-existing credentialStatus and proof are stripped, a
// missing id is replaced with a freshly generated urn:uuid, the id's
// format and length are checked, and the @context dialect is
// validated.
func (a *Allocator) Allocate(ctx context.Context, cfg *types.Config, credential types.Credential, purposes []types.Purpose, issuedAt time.Time) (types.Credential, error) {
	credential = credential.Stripped()

	credentialID := credential.ID()
	if credentialID == "" {
		credentialID = generateCredentialID()
		credential = credential.WithID(credentialID)
	}
	if err := checkCredentialID(credentialID); err != nil {
		return nil, err
	}

	isVC11, err := checkContextDialect(credential.Context())
	if err != nil {
		return nil, err
	}

	existing, existingIdx, found := findByCredentialID(cfg.EventLog, credentialID)

	statuses := make(map[types.Purpose]*types.CredentialStatusInfo, len(purposes))
	if found {
		for p, info := range existing.CredentialStatusInfo {
			infoCopy := *info
			statuses[p] = &infoCopy
		}
	}

	entries := make([]map[string]interface{}, 0, len(purposes))
	for _, purpose := range purposes {
		info, ok := statuses[purpose]
		if !ok {
			allocated, err := a.allocateUnsafe(ctx, cfg, purpose, issuedAt)
			if err != nil {
				return nil, err
			}
			info = allocated
			statuses[purpose] = info
		}
		url := a.baseURL + "/" + info.StatusCredentialId
		entries = append(entries, composer.CredentialStatusEntry(url, purpose, info.StatusListIndex))
	}

	if !found {
		cfg.CredentialsIssuedCounter++
		cfg.EventLog = append(cfg.EventLog, types.EventLogEntry{
			Timestamp:            issuedAt,
			CredentialId:         credentialID,
			CredentialIssuer:     a.identity.DID,
			CredentialSubject:    credential.Subject(),
			CredentialStatusInfo: statuses,
		})
		if a.index != nil {
			if err := a.index.Observe(ctx, credentialID, len(cfg.EventLog)-1); err != nil {
				return nil, err
			}
		}
	} else {
		cfg.EventLog[existingIdx].CredentialStatusInfo = statuses
	}

	out := credential.WithCredentialStatus(entries...)
	if isVC11 {
		out = out.WithContext(types.BitstringStatusListContextURL)
	}
	return out, nil
}

// allocateUnsafe assigns a fresh index in purpose's current status
// list, rolling over to a new list when the current one is exhausted.
// cfg is mutated in place: its StatusCredentialIds,
// StatusCredentialInfo[purpose], and CredentialsIssuedCounter advance.
func (a *Allocator) allocateUnsafe(ctx context.Context, cfg *types.Config, purpose types.Purpose, issuedAt time.Time) (*types.CredentialStatusInfo, error) {
	info, ok := cfg.StatusCredentialInfo[purpose]
	if !ok {
		info = &types.StatusCredentialInfo{}
		cfg.StatusCredentialInfo[purpose] = info
	}

	needsNewList := info.LatestStatusCredentialId == "" || info.LatestCredentialsIssuedCounter >= a.listSize

	if needsNewList {
		if err := a.createList(ctx, cfg, info, purpose, issuedAt); err != nil {
			return nil, err
		}
	}

	info.LatestCredentialsIssuedCounter++ // index 0 is never assigned
	index := info.LatestCredentialsIssuedCounter

	return &types.CredentialStatusInfo{
		StatusCredentialId: info.LatestStatusCredentialId,
		StatusListIndex:    index,
		Valid:              true,
	}, nil
}

// createList composes, signs, and persists a fresh, all-unset status
// list for purpose, then advances info to point at it. statusCredentialsCounter
// counts every list ever created for purpose and never resets; it is
// what lets an external reader tell how many lists a purpose has
// cycled through.
func (a *Allocator) createList(ctx context.Context, cfg *types.Config, info *types.StatusCredentialInfo, purpose types.Purpose, issuedAt time.Time) error {
	newID, err := generateStatusCredentialID()
	if err != nil {
		return err
	}

	bs := codec.New(a.listSize + 1) // index 0 is never assigned; valid indices run 1..listSize
	encoded, err := bs.Encode()
	if err != nil {
		return err
	}
	cred, err := composer.Compose(a.identity, a.baseURL, newID, purpose, encoded, issuedAt)
	if err != nil {
		return err
	}
	if _, err := a.credStore.Create(ctx, newID, cred); err != nil {
		return err
	}

	cfg.StatusCredentialIds = append(cfg.StatusCredentialIds, newID)
	info.LatestStatusCredentialId = newID
	info.StatusCredentialsCounter++
	info.LatestCredentialsIssuedCounter = 0
	return nil
}

func findByCredentialID(log []types.EventLogEntry, credentialID string) (types.EventLogEntry, int, bool) {
	for i := len(log) - 1; i >= 0; i-- {
		if log[i].CredentialId == credentialID {
			return log[i], i, true
		}
	}
	return types.EventLogEntry{}, -1, false
}

func generateStatusCredentialID() (string, error) {
	alphabet := types.StatusCredentialIDAlphabet
	out := make([]byte, types.StatusCredentialIDLength)
	buf := make([]byte, types.StatusCredentialIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", apperr.Wrap(apperr.BadRequest, "allocator.generateStatusCredentialID", "failed to read randomness", err)
	}
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}

// Bootstrap creates the initial, empty status list for purpose,
// populating cfg.StatusCredentialInfo[purpose] and
// cfg.StatusCredentialIds as if the first list had just been created by
// ordinary rollover. Used once, by the orchestrator, when a brand-new
// repository is first initialized.
func (a *Allocator) Bootstrap(ctx context.Context, cfg *types.Config, purpose types.Purpose, issuedAt time.Time) error {
	info, ok := cfg.StatusCredentialInfo[purpose]
	if !ok {
		info = &types.StatusCredentialInfo{}
		cfg.StatusCredentialInfo[purpose] = info
	}
	return a.createList(ctx, cfg, info, purpose, issuedAt)
}
