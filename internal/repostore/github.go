package repostore

import (
	"context"
	"strings"

	"github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"

	"github.com/ParichayaHQ/status-manager/pkg/apperr"
)

// GitHub is a RepoStore backed by the GitHub Contents API. The blob SHA
// GitHub returns for a file is used directly as the optimistic-
// concurrency revision token.
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

// NewGitHub builds a GitHub-backed RepoStore authenticated with a
// static personal-access or installation token.
func NewGitHub(ctx context.Context, token, owner, repo, branch string) *GitHub {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)
	return &GitHub{
		client: github.NewClient(httpClient),
		owner:  owner,
		repo:   repo,
		branch: branch,
	}
}

func (g *GitHub) opts() *github.RepositoryContentFileOptions {
	return &github.RepositoryContentFileOptions{Branch: github.Ptr(g.branch)}
}

func (g *GitHub) Create(ctx context.Context, path string, content []byte) (*File, error) {
	opts := g.opts()
	opts.Message = github.Ptr("create " + path)
	opts.Content = content

	resp, _, err := g.client.Repositories.CreateFile(ctx, g.owner, g.repo, path, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "repostore.GitHub.Create", "failed to create file", err)
	}
	return &File{Path: path, Content: content, Revision: resp.GetContent().GetSHA()}, nil
}

func (g *GitHub) Get(ctx context.Context, path string) (*File, error) {
	fileContent, _, resp, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path,
		&github.RepositoryContentGetOptions{Ref: g.branch})
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, apperr.Wrap(apperr.NotFound, "repostore.GitHub.Get", "file not found: "+path, err)
		}
		return nil, apperr.Wrap(apperr.BadRequest, "repostore.GitHub.Get", "failed to read file", err)
	}
	if fileContent == nil {
		return nil, apperr.New(apperr.NotFound, "repostore.GitHub.Get", "path is a directory, not a file: "+path)
	}
	decoded, err := fileContent.GetContent()
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "repostore.GitHub.Get", "failed to decode file content", err)
	}
	return &File{Path: path, Content: []byte(decoded), Revision: fileContent.GetSHA()}, nil
}

func (g *GitHub) Update(ctx context.Context, path string, content []byte, expectedRevision string) (*File, error) {
	opts := g.opts()
	opts.Message = github.Ptr("update " + path)
	opts.Content = content
	opts.SHA = github.Ptr(expectedRevision)

	resp, _, err := g.client.Repositories.UpdateFile(ctx, g.owner, g.repo, path, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidToken, "repostore.GitHub.Update", "failed to update file (stale revision?)", err)
	}
	return &File{Path: path, Content: content, Revision: resp.GetContent().GetSHA()}, nil
}

func (g *GitHub) Delete(ctx context.Context, path string, expectedRevision string) error {
	opts := g.opts()
	opts.Message = github.Ptr("delete " + path)
	opts.SHA = github.Ptr(expectedRevision)

	_, _, err := g.client.Repositories.DeleteFile(ctx, g.owner, g.repo, path, opts)
	if err != nil {
		return apperr.Wrap(apperr.InvalidToken, "repostore.GitHub.Delete", "failed to delete file (stale revision?)", err)
	}
	return nil
}

func (g *GitHub) Exists(ctx context.Context, path string) (bool, error) {
	_, err := g.Get(ctx, path)
	if err == nil {
		return true, nil
	}
	if apperr.Is(err, apperr.NotFound) {
		return false, nil
	}
	return false, err
}

func (g *GitHub) ListFilenames(ctx context.Context, prefix string) ([]string, error) {
	_, dirContent, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, prefix,
		&github.RepositoryContentGetOptions{Ref: g.branch})
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "repostore.GitHub.ListFilenames", "failed to list directory", err)
	}
	names := make([]string, 0, len(dirContent))
	for _, entry := range dirContent {
		if entry.GetType() == "file" {
			names = append(names, strings.TrimPrefix(entry.GetPath(), strings.TrimSuffix(prefix, "/")+"/"))
		}
	}
	return names, nil
}

func (g *GitHub) IsEmpty(ctx context.Context) (bool, error) {
	names, err := g.ListFilenames(ctx, "")
	if err != nil {
		return false, err
	}
	return len(names) == 0, nil
}

func (g *GitHub) HasAuthority(ctx context.Context) (bool, error) {
	repo, _, err := g.client.Repositories.Get(ctx, g.owner, g.repo)
	if err != nil {
		return false, apperr.Wrap(apperr.MissingRepository, "repostore.GitHub.HasAuthority", "failed to read repository", err)
	}
	return repo.GetPermissions()["push"], nil
}

var _ RepoStore = (*GitHub)(nil)
