package deploy

import (
	"context"

	"github.com/ParichayaHQ/status-manager/internal/repostore"
	"github.com/ParichayaHQ/status-manager/pkg/apperr"
)

// GitHubPages touches a .nojekyll marker file to trigger a Pages
// rebuild of the status-credential site served out of the same
// repository the manager writes to.
type GitHubPages struct {
	repo repostore.RepoStore
}

func NewGitHubPages(repo repostore.RepoStore) *GitHubPages {
	return &GitHubPages{repo: repo}
}

const nojekyllPath = ".nojekyll"

func (g *GitHubPages) Deploy(ctx context.Context) error {
	exists, err := g.repo.Exists(ctx, nojekyllPath)
	if err != nil {
		return err
	}
	if !exists {
		_, err := g.repo.Create(ctx, nojekyllPath, []byte{})
		return err
	}

	f, err := g.repo.Get(ctx, nojekyllPath)
	if err != nil {
		return err
	}
	_, err = g.repo.Update(ctx, nojekyllPath, []byte{}, f.Revision)
	if err != nil && !apperr.Is(err, apperr.InvalidToken) {
		return err
	}
	return nil
}

var _ StaticSiteDeployer = (*GitHubPages)(nil)
