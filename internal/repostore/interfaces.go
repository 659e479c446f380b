// Package repostore abstracts Git-hosted file storage behind a narrow
// capability interface, so the manager never talks to GitHub/GitLab
// directly.
package repostore

import "context"

// File is a single file read from a repository, together with the
// opaque concurrency token ("revision") the backend needs to perform a
// conditional update or delete.
type File struct {
	Path     string
	Content  []byte
	Revision string
}

// RepoStore is the capability interface every backend (GitHub, GitLab,
// in-memory) implements. All operations are scoped to a single file path
// within a single configured repository/branch.
type RepoStore interface {
	// Create adds a new file. Returns MissingRepository if the
	// repository/branch does not exist, and a conflict error if the
	// file already exists.
	Create(ctx context.Context, path string, content []byte) (*File, error)

	// Get reads a file and its current revision. Returns a not-found
	// error if the path does not exist.
	Get(ctx context.Context, path string) (*File, error)

	// Update overwrites a file's content, using expectedRevision as an
	// optimistic-concurrency token. Returns an InvalidToken error if
	// expectedRevision is stale.
	Update(ctx context.Context, path string, content []byte, expectedRevision string) (*File, error)

	// Delete removes a file, using expectedRevision as the concurrency
	// token.
	Delete(ctx context.Context, path string, expectedRevision string) error

	// Exists reports whether path currently exists.
	Exists(ctx context.Context, path string) (bool, error)

	// ListFilenames returns the base names of every file directly under
	// prefix (non-recursive).
	ListFilenames(ctx context.Context, prefix string) ([]string, error)

	// IsEmpty reports whether the repository/branch has no files at
	// all.
	IsEmpty(ctx context.Context) (bool, error)

	// HasAuthority reports whether the credentials this RepoStore was
	// constructed with have write access to the configured repository.
	HasAuthority(ctx context.Context) (bool, error)
}
