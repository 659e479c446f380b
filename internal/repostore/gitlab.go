package repostore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/ParichayaHQ/status-manager/pkg/apperr"
)

// GitLab is a RepoStore backed by the GitLab Repository Files API. No
// GitLab client library is present anywhere in the retrieved example
// corpus, so this is a deliberately thin net/http client rather than a
// wrapped SDK. The file's blob SHA (returned in the commit response, or
// read back via the content endpoint) is used as the revision token.
type GitLab struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	token      string
	projectID  string
	branch     string
}

// NewGitLab builds a GitLab-backed RepoStore. baseURL is the instance
// root (e.g. "https://gitlab.com"); projectID may be numeric or a
// URL-encoded "group/project" path, matching the GitLab API's own
// convention.
func NewGitLab(baseURL, token, projectID, branch string) *GitLab {
	return &GitLab{
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		projectID:  projectID,
		branch:     branch,
	}
}

type gitlabFileResponse struct {
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
	BlobID   string `json:"blob_id"`
	Encoding string `json:"encoding"`
}

type gitlabTreeEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

func (g *GitLab) filesURL(path string) string {
	return fmt.Sprintf("%s/api/v4/projects/%s/repository/files/%s",
		g.baseURL, url.PathEscape(g.projectID), url.PathEscape(path))
}

func (g *GitLab) do(ctx context.Context, method, rawURL string, body interface{}) (*http.Response, []byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, nil, apperr.Wrap(apperr.BadRequest, "repostore.GitLab.do", "rate limiter wait failed", err)
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, nil, apperr.Wrap(apperr.BadRequest, "repostore.GitLab.do", "failed to encode request body", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.BadRequest, "repostore.GitLab.do", "failed to build request", err)
	}
	req.Header.Set("PRIVATE-TOKEN", g.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.BadRequest, "repostore.GitLab.do", "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, apperr.Wrap(apperr.BadRequest, "repostore.GitLab.do", "failed to read response body", err)
	}
	return resp, data, nil
}

func (g *GitLab) Create(ctx context.Context, path string, content []byte) (*File, error) {
	body := map[string]string{
		"branch":         g.branch,
		"content":        base64.StdEncoding.EncodeToString(content),
		"encoding":       "base64",
		"commit_message": "create " + path,
	}
	resp, data, err := g.do(ctx, http.MethodPost, g.filesURL(path), body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, apperr.New(apperr.BadRequest, "repostore.GitLab.Create", "unexpected status "+resp.Status+": "+string(data))
	}
	return g.Get(ctx, path)
}

func (g *GitLab) Get(ctx context.Context, path string) (*File, error) {
	u := g.filesURL(path) + "?ref=" + url.QueryEscape(g.branch)
	resp, data, err := g.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.New(apperr.NotFound, "repostore.GitLab.Get", "file not found: "+path)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.BadRequest, "repostore.GitLab.Get", "unexpected status "+resp.Status+": "+string(data))
	}

	var parsed gitlabFileResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "repostore.GitLab.Get", "failed to decode response", err)
	}
	content, err := base64.StdEncoding.DecodeString(parsed.Content)
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "repostore.GitLab.Get", "failed to decode file content", err)
	}
	return &File{Path: path, Content: content, Revision: parsed.BlobID}, nil
}

func (g *GitLab) Update(ctx context.Context, path string, content []byte, expectedRevision string) (*File, error) {
	current, err := g.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if current.Revision != expectedRevision {
		return nil, apperr.New(apperr.InvalidToken, "repostore.GitLab.Update", "stale revision for "+path)
	}

	body := map[string]string{
		"branch":         g.branch,
		"content":        base64.StdEncoding.EncodeToString(content),
		"encoding":       "base64",
		"commit_message": "update " + path,
	}
	resp, data, err := g.do(ctx, http.MethodPut, g.filesURL(path), body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.BadRequest, "repostore.GitLab.Update", "unexpected status "+resp.Status+": "+string(data))
	}
	return g.Get(ctx, path)
}

func (g *GitLab) Delete(ctx context.Context, path string, expectedRevision string) error {
	current, err := g.Get(ctx, path)
	if err != nil {
		return err
	}
	if current.Revision != expectedRevision {
		return apperr.New(apperr.InvalidToken, "repostore.GitLab.Delete", "stale revision for "+path)
	}

	body := map[string]string{
		"branch":         g.branch,
		"commit_message": "delete " + path,
	}
	resp, data, err := g.do(ctx, http.MethodDelete, g.filesURL(path), body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return apperr.New(apperr.BadRequest, "repostore.GitLab.Delete", "unexpected status "+resp.Status+": "+string(data))
	}
	return nil
}

func (g *GitLab) Exists(ctx context.Context, path string) (bool, error) {
	_, err := g.Get(ctx, path)
	if err == nil {
		return true, nil
	}
	if apperr.Is(err, apperr.NotFound) {
		return false, nil
	}
	return false, err
}

func (g *GitLab) ListFilenames(ctx context.Context, prefix string) ([]string, error) {
	u := fmt.Sprintf("%s/api/v4/projects/%s/repository/tree?path=%s&ref=%s&per_page=100",
		g.baseURL, url.PathEscape(g.projectID), url.QueryEscape(prefix), url.QueryEscape(g.branch))
	resp, data, err := g.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.BadRequest, "repostore.GitLab.ListFilenames", "unexpected status "+resp.Status+": "+string(data))
	}

	var entries []gitlabTreeEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "repostore.GitLab.ListFilenames", "failed to decode tree listing", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type == "blob" {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

func (g *GitLab) IsEmpty(ctx context.Context) (bool, error) {
	names, err := g.ListFilenames(ctx, "")
	if err != nil {
		return false, err
	}
	return len(names) == 0, nil
}

func (g *GitLab) HasAuthority(ctx context.Context) (bool, error) {
	u := fmt.Sprintf("%s/api/v4/projects/%s", g.baseURL, url.PathEscape(g.projectID))
	resp, data, err := g.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	if resp.StatusCode != http.StatusOK {
		return false, apperr.New(apperr.MissingRepository, "repostore.GitLab.HasAuthority", "unexpected status "+resp.Status+": "+string(data))
	}

	var project struct {
		Permissions struct {
			ProjectAccess *struct {
				AccessLevel int `json:"access_level"`
			} `json:"project_access"`
		} `json:"permissions"`
	}
	if err := json.Unmarshal(data, &project); err != nil {
		return false, apperr.Wrap(apperr.BadRequest, "repostore.GitLab.HasAuthority", "failed to decode project", err)
	}
	// Developer access level (30) or above can push to a branch.
	return project.Permissions.ProjectAccess != nil && project.Permissions.ProjectAccess.AccessLevel >= 30, nil
}

var _ RepoStore = (*GitLab)(nil)
