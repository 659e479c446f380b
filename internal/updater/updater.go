// Package updater implements status transitions: flipping a credential's
// bit for a given purpose, enforcing that a revoked credential can never
// be un-revoked or have its suspension toggled back to valid.
package updater

import (
	"context"
	"time"

	"github.com/ParichayaHQ/status-manager/internal/codec"
	"github.com/ParichayaHQ/status-manager/internal/composer"
	"github.com/ParichayaHQ/status-manager/internal/eventindex"
	"github.com/ParichayaHQ/status-manager/internal/identity"
	"github.com/ParichayaHQ/status-manager/internal/statuscredstore"
	"github.com/ParichayaHQ/status-manager/pkg/apperr"
	"github.com/ParichayaHQ/status-manager/pkg/types"
)

// Updater flips status bits for already-allocated credentials.
type Updater struct {
	credStore *statuscredstore.Store
	index     *eventindex.Index
	identity  *identity.Identity
	baseURL   string
	listSize  int
}

func New(credStore *statuscredstore.Store, index *eventindex.Index, id *identity.Identity, baseURL string, listSize int) *Updater {
	return &Updater{credStore: credStore, index: index, identity: id, baseURL: baseURL, listSize: listSize}
}

// Update sets credentialID's bit for purpose to newValid (false means
// revoked/suspended, true means restored). Mutates cfg in place by
// appending a new event-log entry; the caller persists config.json.
//
// Revocation is permanent: once a credential's revocation bit is set to
// false (revoked), no later call — for any purpose — can set it back to
// true. Attempting to do so is rejected as a BadRequest rather than
// silently ignored.
func (u *Updater) Update(ctx context.Context, cfg *types.Config, credentialID string, purpose types.Purpose, newValid bool, updatedAt time.Time) error {
	position, found, err := u.lookupLatestPosition(ctx, cfg, credentialID)
	if err != nil {
		return err
	}
	if !found {
		return apperr.New(apperr.NotFound, "updater.Update", "credential not found: "+credentialID)
	}

	entry := cfg.EventLog[position]
	info, ok := entry.CredentialStatusInfo[purpose]
	if !ok {
		return apperr.New(apperr.NotFound, "updater.Update", "credential has no allocation for purpose "+string(purpose))
	}

	if revoked, rok := entry.CredentialStatusInfo[types.Revocation]; rok && !revoked.Valid && purpose != types.Revocation {
		return apperr.New(apperr.BadRequest, "updater.Update", "credential is revoked; no other purpose may change its status")
	}
	if purpose == types.Revocation && !info.Valid && newValid {
		return apperr.New(apperr.BadRequest, "updater.Update", "a revoked credential can never be un-revoked")
	}

	if info.Valid == newValid {
		return nil
	}

	if err := u.flipBit(ctx, purpose, info.StatusCredentialId, info.StatusListIndex, !newValid, updatedAt); err != nil {
		return err
	}

	newEntry := entry.Clone()
	newEntry.Timestamp = updatedAt
	infoCopy := *info
	infoCopy.Valid = newValid
	newEntry.CredentialStatusInfo[purpose] = &infoCopy

	cfg.EventLog = append(cfg.EventLog, newEntry)
	if u.index != nil {
		if err := u.index.Observe(ctx, credentialID, len(cfg.EventLog)-1); err != nil {
			return err
		}
	}
	return nil
}

// flipBit re-encodes and re-signs the status credential for
// statusCredentialId with its bit at index set to bitValue (true means
// the credential is revoked/suspended, per the BitstringStatusList
// convention that a set bit signals the purpose condition applies).
func (u *Updater) flipBit(ctx context.Context, purpose types.Purpose, statusCredentialID string, index int, bitValue bool, updatedAt time.Time) error {
	cred, revision, err := u.credStore.Get(ctx, statusCredentialID)
	if err != nil {
		return err
	}

	bs, err := codec.Decode(cred.CredentialSubject.EncodedList, u.listSize+1) // index 0 is never assigned; valid indices run 1..listSize
	if err != nil {
		return err
	}
	if err := bs.Set(index, bitValue); err != nil {
		return err
	}
	encoded, err := bs.Encode()
	if err != nil {
		return err
	}

	newCred, err := composer.Compose(u.identity, u.baseURL, statusCredentialID, purpose, encoded, updatedAt)
	if err != nil {
		return err
	}

	_, err = u.credStore.Update(ctx, statusCredentialID, newCred, revision)
	return err
}

// lookupLatestPosition consults the acceleration index first, falling
// back to a reverse scan of cfg.EventLog if the index has no entry
// (e.g. it hasn't been rebuilt since the last restart).
func (u *Updater) lookupLatestPosition(ctx context.Context, cfg *types.Config, credentialID string) (int, bool, error) {
	if u.index != nil {
		if pos, ok, err := u.index.LatestPosition(ctx, credentialID); err != nil {
			return 0, false, err
		} else if ok {
			return pos, true, nil
		}
	}
	for i := len(cfg.EventLog) - 1; i >= 0; i-- {
		if cfg.EventLog[i].CredentialId == credentialID {
			return i, true, nil
		}
	}
	return 0, false, nil
}
