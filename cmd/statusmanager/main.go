package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ParichayaHQ/status-manager/internal/deploy"
	"github.com/ParichayaHQ/status-manager/internal/manager"
	"github.com/ParichayaHQ/status-manager/internal/repostore"
	"github.com/ParichayaHQ/status-manager/pkg/types"
)

var (
	backend        = flag.String("backend", "memory", "repo store backend: github, gitlab, memory")
	githubToken    = flag.String("github-token", "", "GitHub access token (backend=github)")
	githubOwner    = flag.String("github-owner", "", "GitHub repository owner (backend=github)")
	githubRepo     = flag.String("github-repo", "", "GitHub repository name (backend=github)")
	githubBranch   = flag.String("github-branch", "main", "GitHub branch (backend=github)")
	gitlabBaseURL  = flag.String("gitlab-url", "https://gitlab.com", "GitLab instance base URL (backend=gitlab)")
	gitlabToken    = flag.String("gitlab-token", "", "GitLab access token (backend=gitlab)")
	gitlabProject  = flag.String("gitlab-project", "", "GitLab project id or path (backend=gitlab)")
	gitlabBranch   = flag.String("gitlab-branch", "main", "GitLab branch (backend=gitlab)")
	didMethod      = flag.String("did-method", "did:key", "issuer did method: did:key or did:web")
	didSeed        = flag.String("did-seed", "", "issuer DID seed (multibase or >=32 byte string)")
	didWebURL      = flag.String("did-web-url", "", "https URL for did:web (required if did-method=did:web)")
	eventIndexPath = flag.String("event-index", "", "path to local sqlite event index (empty = in-memory)")
	deployPages    = flag.Bool("deploy-github-pages", false, "touch .nojekyll after each mutation (backend=github)")
	pagesService   = flag.String("pages-service", "github", "pages host serving the status lists: github or gitlab")
	pagesOwner     = flag.String("pages-owner", "", "account/group that owns the published status repository")
	pagesRepo      = flag.String("pages-repo", "", "name of the published status repository")
	listSize       = flag.Int("list-size", 0, "entries per status list before rollover (0 = manager default)")
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		log.Fatal("usage: statusmanager [flags] <allocate|update|status|info|stats> ...")
	}

	repo, err := buildRepoStore()
	if err != nil {
		log.Fatalf("failed to build repo store: %v", err)
	}

	opts := types.DefaultManagerOptions()
	opts.DidSeed = *didSeed
	if *didMethod == "did:web" {
		opts.DidMethod = types.DidMethodWeb
		opts.DidWebUrl = *didWebURL
	}
	opts.EventIndexPath = *eventIndexPath
	opts.GitService = *pagesService
	opts.OwnerAccountName = owner(*pagesOwner)
	opts.RepoName = repoName(*pagesRepo)
	if *listSize > 0 {
		opts.ListSize = *listSize
	}

	var deployer deploy.StaticSiteDeployer
	if *deployPages {
		deployer = deploy.NewGitHubPages(repo)
	}

	ctx := context.Background()
	m, err := manager.Create(ctx, repo, opts, deployer)
	if err != nil {
		log.Fatalf("failed to create manager: %v", err)
	}
	defer m.Close()

	if err := run(ctx, m, args); err != nil {
		log.Fatalf("%v", err)
	}
}

// owner resolves the pages owner: an explicit -pages-owner wins,
// otherwise it falls back to whichever backend-specific owner flag was
// set for the configured backend.
func owner(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if *backend == "github" {
		return *githubOwner
	}
	return ""
}

// repoName resolves the pages repository name the same way owner does.
func repoName(explicit string) string {
	if explicit != "" {
		return explicit
	}
	switch *backend {
	case "github":
		return *githubRepo
	case "gitlab":
		return *gitlabProject
	default:
		return ""
	}
}

func buildRepoStore() (repostore.RepoStore, error) {
	switch *backend {
	case "github":
		if *githubToken == "" || *githubOwner == "" || *githubRepo == "" {
			return nil, fmt.Errorf("backend=github requires -github-token, -github-owner, -github-repo")
		}
		return repostore.NewGitHub(context.Background(), *githubToken, *githubOwner, *githubRepo, *githubBranch), nil
	case "gitlab":
		if *gitlabToken == "" || *gitlabProject == "" {
			return nil, fmt.Errorf("backend=gitlab requires -gitlab-token, -gitlab-project")
		}
		return repostore.NewGitLab(*gitlabBaseURL, *gitlabToken, *gitlabProject, *gitlabBranch), nil
	case "memory":
		return repostore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", *backend)
	}
}

func run(ctx context.Context, m *manager.Manager, args []string) error {
	switch args[0] {
	case "allocate":
		return cmdAllocate(ctx, m, args[1:])
	case "update":
		return cmdUpdate(ctx, m, args[1:])
	case "status":
		return cmdStatus(ctx, m, args[1:])
	case "info":
		return cmdInfo(ctx, m, args[1:])
	case "stats":
		return cmdStats(ctx, m)
	default:
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func cmdAllocate(ctx context.Context, m *manager.Manager, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: allocate <credential.json path>")
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	cred, err := types.ParseCredential(raw)
	if err != nil {
		return err
	}
	updated, err := m.AllocateStatus(ctx, cred)
	if err != nil {
		return err
	}
	return printJSON(updated)
}

func cmdUpdate(ctx context.Context, m *manager.Manager, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: update <credentialId> <revocation|suspension> <valid|invalid>")
	}
	newValid := args[2] == "valid"
	return m.UpdateStatus(ctx, args[0], types.Purpose(args[1]), newValid)
}

func cmdStatus(ctx context.Context, m *manager.Manager, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: status <credentialId> <revocation|suspension>")
	}
	valid, err := m.GetStatus(ctx, args[0], types.Purpose(args[1]))
	if err != nil {
		return err
	}
	fmt.Println(valid)
	return nil
}

func cmdInfo(ctx context.Context, m *manager.Manager, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: info <credentialId>")
	}
	info, err := m.GetCredentialInfo(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(info)
}

func cmdStats(ctx context.Context, m *manager.Manager) error {
	stats, err := m.Stats(ctx)
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
