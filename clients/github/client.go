package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v48/github"
	"github.com/samber/mo"
	"golang.org/x/oauth2"

	"convbackend/clients"
	"convbackend/core"
	"convbackend/models"
)

const (
	treeEntryModeFile = "100644"
	treeEntryTypeBlob = "blob"
)

// GitHubClientFactory implements the clients.GitHubClientFactory interface
type GitHubClientFactory struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewGitHubClientFactory creates a factory. apiBaseURL may be empty to use api.github.com.
func NewGitHubClientFactory(apiBaseURL string) (*GitHubClientFactory, error) {
	factory := &GitHubClientFactory{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if apiBaseURL != "" {
		if !strings.HasSuffix(apiBaseURL, "/") {
			apiBaseURL += "/"
		}
		parsed, err := url.Parse(apiBaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse GitHub API base URL: %w", err)
		}
		factory.baseURL = parsed
	}
	return factory, nil
}

// ForToken returns a client that authenticates every request with accessToken
func (f *GitHubClientFactory) ForToken(accessToken string) clients.GitHubAPIClient {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, f.httpClient)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})

	gitHubClient := github.NewClient(oauth2.NewClient(ctx, ts))
	if f.baseURL != nil {
		gitHubClient.BaseURL = f.baseURL
	}

	return &GitHubAPIClient{client: gitHubClient}
}

// GitHubAPIClient implements the clients.GitHubAPIClient interface
type GitHubAPIClient struct {
	client *github.Client
}

func (c *GitHubAPIClient) GetAuthenticatedUser(ctx context.Context) (*clients.GitHubUser, error) {
	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated user: %w", err)
	}

	return &clients.GitHubUser{
		ID:        user.GetID(),
		Login:     user.GetLogin(),
		Name:      user.GetName(),
		Email:     user.GetEmail(),
		AvatarURL: user.GetAvatarURL(),
	}, nil
}

// ListOwnedRepositories lists repositories owned by the user, most recently updated first
func (c *GitHubAPIClient) ListOwnedRepositories(ctx context.Context) ([]clients.GitHubRepository, error) {
	opts := &github.RepositoryListOptions{
		Type:        "owner",
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	repos, _, err := c.client.Repositories.List(ctx, "", opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	result := make([]clients.GitHubRepository, 0, len(repos))
	for _, repo := range repos {
		result = append(result, toGitHubRepository(repo))
	}
	return result, nil
}

func (c *GitHubAPIClient) GetRepositoryByID(ctx context.Context, repoID int64) (*clients.GitHubRepository, error) {
	repo, _, err := c.client.Repositories.GetByID(ctx, repoID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("repository %d: %w", repoID, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get repository %d: %w", repoID, err)
	}

	result := toGitHubRepository(repo)
	return &result, nil
}

func (c *GitHubAPIClient) GetFileContent(ctx context.Context, owner, repo, path string) (mo.Option[string], error) {
	fileContent, _, _, err := c.client.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		if isNotFound(err) {
			return mo.None[string](), nil
		}
		return mo.None[string](), fmt.Errorf("failed to get contents of %s: %w", path, err)
	}
	if fileContent == nil {
		return mo.None[string](), fmt.Errorf("path %s is a directory", path)
	}

	// Files over 1 MB come back without inline content
	if fileContent.GetEncoding() == "none" {
		raw, _, err := c.client.Git.GetBlobRaw(ctx, owner, repo, fileContent.GetSHA())
		if err != nil {
			return mo.None[string](), fmt.Errorf("failed to get blob of %s: %w", path, err)
		}
		return mo.Some(string(raw)), nil
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return mo.None[string](), fmt.Errorf("failed to decode contents of %s: %w", path, err)
	}
	return mo.Some(content), nil
}

func (c *GitHubAPIClient) GetBranchHeadSHA(ctx context.Context, owner, repo, branch string) (string, error) {
	ref, _, err := c.client.Git.GetRef(ctx, owner, repo, "heads/"+branch)
	if err != nil {
		return "", fmt.Errorf("failed to get ref heads/%s: %w", branch, err)
	}
	sha := ref.GetObject().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("ref heads/%s has no object", branch)
	}
	return sha, nil
}

func (c *GitHubAPIClient) CreateBranch(ctx context.Context, owner, repo, branch, sha string) error {
	_, _, err := c.client.Git.CreateRef(ctx, owner, repo, &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.String(sha)},
	})
	if err != nil {
		return fmt.Errorf("failed to create ref heads/%s: %w", branch, err)
	}
	return nil
}

// CreateTree writes a tree whose entries carry inline content, so GitHub creates the blobs
func (c *GitHubAPIClient) CreateTree(ctx context.Context, owner, repo string, files models.OutputFileSet) (string, error) {
	entries := make([]*github.TreeEntry, 0, len(files))
	for _, file := range files {
		entries = append(entries, &github.TreeEntry{
			Path:    github.String(file.Path),
			Mode:    github.String(treeEntryModeFile),
			Type:    github.String(treeEntryTypeBlob),
			Content: github.String(file.Content),
		})
	}

	tree, _, err := c.client.Git.CreateTree(ctx, owner, repo, "", entries)
	if err != nil {
		return "", fmt.Errorf("failed to create tree: %w", err)
	}
	return tree.GetSHA(), nil
}

func (c *GitHubAPIClient) CreateCommit(ctx context.Context, owner, repo, message, treeSHA, parentSHA string) (string, error) {
	commit, _, err := c.client.Git.CreateCommit(ctx, owner, repo, &github.Commit{
		Message: github.String(message),
		Tree:    &github.Tree{SHA: github.String(treeSHA)},
		Parents: []*github.Commit{{SHA: github.String(parentSHA)}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create commit: %w", err)
	}
	return commit.GetSHA(), nil
}

func (c *GitHubAPIClient) UpdateBranch(ctx context.Context, owner, repo, branch, sha string) error {
	_, _, err := c.client.Git.UpdateRef(ctx, owner, repo, &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.String(sha)},
	}, false)
	if err != nil {
		return fmt.Errorf("failed to update ref heads/%s: %w", branch, err)
	}
	return nil
}

func toGitHubRepository(repo *github.Repository) clients.GitHubRepository {
	return clients.GitHubRepository{
		ID:            repo.GetID(),
		Name:          repo.GetName(),
		FullName:      repo.GetFullName(),
		Owner:         repo.GetOwner().GetLogin(),
		DefaultBranch: repo.GetDefaultBranch(),
	}
}

func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}
