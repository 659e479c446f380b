package types

import "fmt"

// DidMethod is a supported DID method for the issuer's own signing identity.
type DidMethod string

const (
	DidMethodKey DidMethod = "did:key"
	DidMethodWeb DidMethod = "did:web"
)

// ManagerOptions configures a single status-manager instance. It follows
// the flat-struct-plus-constructor pattern used for config types in this
// codebase: build one with DefaultManagerOptions, then override fields
// before passing it to createManager.
type ManagerOptions struct {
	// DidMethod selects how the issuer's signing identity is derived.
	DidMethod DidMethod `validate:"required,oneof=did:key did:web"`

	// DidSeed is either a multibase "z"-prefixed encoded seed or a raw
	// UTF-8 string of at least 32 bytes (truncated to 32). Required.
	DidSeed string `validate:"required"`

	// DidWebUrl is required when DidMethod is did:web; it is the https
	// URL the DID document will be published at.
	DidWebUrl string `validate:"required_if=DidMethod did:web"`

	// Purposes lists which status purposes this manager tracks. Defaults
	// to revocation and suspension.
	Purposes []Purpose `validate:"required,min=1,dive,oneof=revocation suspension"`

	// SnapshotRetryLimit bounds how many times a critical-section
	// operation retries after a non-InvalidRepoState failure before
	// giving up.
	SnapshotRetryLimit int `validate:"min=1"`

	// EventIndexPath is the filesystem path for the local sqlite
	// acceleration index (credentialId -> latest event log position).
	// Empty means in-memory only, rebuilt from config.json every start.
	EventIndexPath string

	// GitService selects the pages host used to build a status list's
	// public URL: "github" -> *.github.io, "gitlab" -> *.gitlab.io.
	GitService string `validate:"required,oneof=github gitlab"`

	// OwnerAccountName is the account/group that owns the status
	// repository, used to build the pages URL.
	OwnerAccountName string `validate:"required"`

	// RepoName is the status repository's name, used to build the pages
	// URL: https://<owner>.<github.io|gitlab.io>/<repoName>/<listId>.
	RepoName string `validate:"required"`

	// ListSize is the number of indices in one status list (1..ListSize,
	// index 0 never assigned) before rollover to a new list. Defaults to
	// types.ListSize; only lowered in tests to exercise rollover.
	ListSize int `validate:"min=1"`
}

// DefaultManagerOptions returns a ManagerOptions with the manager's
// documented defaults: both purposes tracked, a bounded retry limit, and
// an in-memory event index.
func DefaultManagerOptions() ManagerOptions {
	return ManagerOptions{
		DidMethod:          DidMethodKey,
		Purposes:           append([]Purpose(nil), Purposes...),
		SnapshotRetryLimit: 5,
		ListSize:           ListSize,
	}
}

// PagesBaseURL builds the public base URL status-list ids are published
// under: https://<owner>.<github.io|gitlab.io>/<repoName>.
func (o ManagerOptions) PagesBaseURL() string {
	host := "github.io"
	if o.GitService == "gitlab" {
		host = "gitlab.io"
	}
	return fmt.Sprintf("https://%s.%s/%s", o.OwnerAccountName, host, o.RepoName)
}
