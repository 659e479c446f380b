package repostore

import (
	"context"
	"strings"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/ParichayaHQ/status-manager/pkg/apperr"
)

// Memory is an in-process RepoStore test double. Its revision token for
// each file is a real CIDv1(raw, sha2-256) of the file's content,
// computed with the same libraries a production content-addressed
// backend would use, rather than an ad hoc hash stand-in.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory returns an empty in-process RepoStore.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

func cidFor(data []byte) (string, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return cid.NewCidV1(cid.Raw, mh).String(), nil
}

func (m *Memory) Create(ctx context.Context, path string, content []byte) (*File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[path]; ok {
		return nil, apperr.New(apperr.BadRequest, "repostore.Memory.Create", "file already exists: "+path)
	}
	m.files[path] = append([]byte(nil), content...)
	rev, err := cidFor(content)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "repostore.Memory.Create", "failed to compute revision", err)
	}
	return &File{Path: path, Content: content, Revision: rev}, nil
}

func (m *Memory) Get(ctx context.Context, path string) (*File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.files[path]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "repostore.Memory.Get", "file not found: "+path)
	}
	rev, err := cidFor(content)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "repostore.Memory.Get", "failed to compute revision", err)
	}
	return &File{Path: path, Content: append([]byte(nil), content...), Revision: rev}, nil
}

func (m *Memory) Update(ctx context.Context, path string, content []byte, expectedRevision string) (*File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.files[path]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "repostore.Memory.Update", "file not found: "+path)
	}
	currentRev, err := cidFor(existing)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "repostore.Memory.Update", "failed to compute revision", err)
	}
	if currentRev != expectedRevision {
		return nil, apperr.New(apperr.InvalidToken, "repostore.Memory.Update", "stale revision for "+path)
	}

	m.files[path] = append([]byte(nil), content...)
	newRev, err := cidFor(content)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "repostore.Memory.Update", "failed to compute revision", err)
	}
	return &File{Path: path, Content: content, Revision: newRev}, nil
}

func (m *Memory) Delete(ctx context.Context, path string, expectedRevision string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.files[path]
	if !ok {
		return apperr.New(apperr.NotFound, "repostore.Memory.Delete", "file not found: "+path)
	}
	currentRev, err := cidFor(existing)
	if err != nil {
		return apperr.Wrap(apperr.BadRequest, "repostore.Memory.Delete", "failed to compute revision", err)
	}
	if currentRev != expectedRevision {
		return apperr.New(apperr.InvalidToken, "repostore.Memory.Delete", "stale revision for "+path)
	}
	delete(m.files, path)
	return nil
}

func (m *Memory) Exists(ctx context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[path]
	return ok, nil
}

func (m *Memory) ListFilenames(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for path := range m.files {
		dir, name := splitDirName(path)
		if dir == strings.TrimSuffix(prefix, "/") {
			names = append(names, name)
		}
	}
	return names, nil
}

func (m *Memory) IsEmpty(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files) == 0, nil
}

func (m *Memory) HasAuthority(ctx context.Context) (bool, error) {
	return true, nil
}

func splitDirName(path string) (dir, name string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

var _ RepoStore = (*Memory)(nil)
