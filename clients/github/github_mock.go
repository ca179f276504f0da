package github

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"convbackend/clients"
	"convbackend/models"
)

// MockGitHubOAuthClient is a mock implementation of the clients.GitHubOAuthClient interface
type MockGitHubOAuthClient struct {
	mock.Mock
}

func (m *MockGitHubOAuthClient) ClientID() string {
	args := m.Called()
	return args.String(0)
}

// WithClientID configures ClientID to return clientID for any number of calls
func (m *MockGitHubOAuthClient) WithClientID(clientID string) *MockGitHubOAuthClient {
	m.On("ClientID").Return(clientID).Maybe()
	return m
}

// AuthorizationURL mocks building the authorize URL
func (m *MockGitHubOAuthClient) AuthorizationURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

// ExchangeCodeForAccessToken mocks the OAuth code exchange
func (m *MockGitHubOAuthClient) ExchangeCodeForAccessToken(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

// MockGitHubClientFactory hands out the same mock API client for every token
type MockGitHubClientFactory struct {
	mock.Mock
}

func (m *MockGitHubClientFactory) ForToken(accessToken string) clients.GitHubAPIClient {
	args := m.Called(accessToken)
	return args.Get(0).(clients.GitHubAPIClient)
}

// WithClient configures the factory to return apiClient for accessToken
func (m *MockGitHubClientFactory) WithClient(accessToken string, apiClient clients.GitHubAPIClient) *MockGitHubClientFactory {
	m.On("ForToken", accessToken).Return(apiClient)
	return m
}

// MockGitHubAPIClient is a mock implementation of the clients.GitHubAPIClient interface
type MockGitHubAPIClient struct {
	mock.Mock
}

func (m *MockGitHubAPIClient) GetAuthenticatedUser(ctx context.Context) (*clients.GitHubUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.GitHubUser), args.Error(1)
}

func (m *MockGitHubAPIClient) ListOwnedRepositories(ctx context.Context) ([]clients.GitHubRepository, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.GitHubRepository), args.Error(1)
}

func (m *MockGitHubAPIClient) GetRepositoryByID(ctx context.Context, repoID int64) (*clients.GitHubRepository, error) {
	args := m.Called(ctx, repoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.GitHubRepository), args.Error(1)
}

func (m *MockGitHubAPIClient) GetFileContent(ctx context.Context, owner, repo, path string) (mo.Option[string], error) {
	args := m.Called(ctx, owner, repo, path)
	return args.Get(0).(mo.Option[string]), args.Error(1)
}

func (m *MockGitHubAPIClient) GetBranchHeadSHA(ctx context.Context, owner, repo, branch string) (string, error) {
	args := m.Called(ctx, owner, repo, branch)
	return args.String(0), args.Error(1)
}

func (m *MockGitHubAPIClient) CreateBranch(ctx context.Context, owner, repo, branch, sha string) error {
	args := m.Called(ctx, owner, repo, branch, sha)
	return args.Error(0)
}

func (m *MockGitHubAPIClient) CreateTree(ctx context.Context, owner, repo string, files models.OutputFileSet) (string, error) {
	args := m.Called(ctx, owner, repo, files)
	return args.String(0), args.Error(1)
}

func (m *MockGitHubAPIClient) CreateCommit(ctx context.Context, owner, repo, message, treeSHA, parentSHA string) (string, error) {
	args := m.Called(ctx, owner, repo, message, treeSHA, parentSHA)
	return args.String(0), args.Error(1)
}

func (m *MockGitHubAPIClient) UpdateBranch(ctx context.Context, owner, repo, branch, sha string) error {
	args := m.Called(ctx, owner, repo, branch, sha)
	return args.Error(0)
}

// WithFile configures GetFileContent to return content for path
func (m *MockGitHubAPIClient) WithFile(owner, repo, path, content string) *MockGitHubAPIClient {
	m.On("GetFileContent", mock.Anything, owner, repo, path).Return(mo.Some(content), nil)
	return m
}

// WithMissingFile configures GetFileContent to report path as absent
func (m *MockGitHubAPIClient) WithMissingFile(owner, repo, path string) *MockGitHubAPIClient {
	m.On("GetFileContent", mock.Anything, owner, repo, path).Return(mo.None[string](), nil)
	return m
}
