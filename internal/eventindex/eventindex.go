// Package eventindex accelerates the reverse-scan lookup described in
// the manager's design notes: given a credential id, find its latest
// event-log entry without scanning the whole log from the end each
// time. The index is a local SQLite table, rebuilt from config.json's
// event log whenever a manager starts; it is purely an acceleration
// structure and is never treated as authoritative.
package eventindex

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ParichayaHQ/status-manager/pkg/apperr"
	"github.com/ParichayaHQ/status-manager/pkg/types"
)

// Index maps credential id to the position (0-based) of its latest
// entry in the authoritative event log.
type Index struct {
	db *sql.DB
}

// Open opens (creating if necessary) the index database at path. An
// empty path opens a private in-memory database, used when a manager
// has no durable index configured.
func Open(path string) (*Index, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "eventindex.Open", "failed to open index database", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS latest_position (
		credential_id TEXT PRIMARY KEY,
		position      INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.BadRequest, "eventindex.Open", "failed to create schema", err)
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Rebuild truncates the index and repopulates it from log, which is
// assumed to be in append order. Called once on manager startup.
func (idx *Index) Rebuild(ctx context.Context, log []types.EventLogEntry) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.BadRequest, "eventindex.Rebuild", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM latest_position`); err != nil {
		return apperr.Wrap(apperr.BadRequest, "eventindex.Rebuild", "failed to clear index", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO latest_position (credential_id, position)
		VALUES (?, ?)
		ON CONFLICT(credential_id) DO UPDATE SET position = excluded.position`)
	if err != nil {
		return apperr.Wrap(apperr.BadRequest, "eventindex.Rebuild", "failed to prepare upsert", err)
	}
	defer stmt.Close()

	for i, entry := range log {
		if _, err := stmt.ExecContext(ctx, entry.CredentialId, i); err != nil {
			return apperr.Wrap(apperr.BadRequest, "eventindex.Rebuild", "failed to index entry", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.BadRequest, "eventindex.Rebuild", "failed to commit index rebuild", err)
	}
	return nil
}

// LatestPosition returns the position of credentialId's latest event
// log entry, or ok=false if the credential has never been seen.
func (idx *Index) LatestPosition(ctx context.Context, credentialID string) (position int, ok bool, err error) {
	row := idx.db.QueryRowContext(ctx, `SELECT position FROM latest_position WHERE credential_id = ?`, credentialID)
	if scanErr := row.Scan(&position); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, apperr.Wrap(apperr.BadRequest, "eventindex.LatestPosition", "query failed", scanErr)
	}
	return position, true, nil
}

// Observe records that credentialId's latest entry is now at position,
// called incrementally as new entries are appended so a full Rebuild
// isn't needed after every write.
func (idx *Index) Observe(ctx context.Context, credentialID string, position int) error {
	_, err := idx.db.ExecContext(ctx, `INSERT INTO latest_position (credential_id, position)
		VALUES (?, ?)
		ON CONFLICT(credential_id) DO UPDATE SET position = excluded.position`, credentialID, position)
	if err != nil {
		return apperr.Wrap(apperr.BadRequest, "eventindex.Observe", fmt.Sprintf("failed to observe %s", credentialID), err)
	}
	return nil
}
