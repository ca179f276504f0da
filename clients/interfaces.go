package clients

import (
	"context"

	"github.com/samber/mo"

	"convbackend/models"
)

// GitHubOAuthClient performs the browser-facing half of the GitHub OAuth web flow
type GitHubOAuthClient interface {
	ClientID() string
	AuthorizationURL(state string) string
	ExchangeCodeForAccessToken(ctx context.Context, code string) (string, error)
}

// GitHubClientFactory creates API clients bound to a user's access token
type GitHubClientFactory interface {
	ForToken(accessToken string) GitHubAPIClient
}

// GitDataClient is the subset of the Git data API needed to publish a branch
type GitDataClient interface {
	GetBranchHeadSHA(ctx context.Context, owner, repo, branch string) (string, error)
	CreateBranch(ctx context.Context, owner, repo, branch, sha string) error
	CreateTree(ctx context.Context, owner, repo string, files models.OutputFileSet) (string, error)
	CreateCommit(ctx context.Context, owner, repo, message, treeSHA, parentSHA string) (string, error)
	UpdateBranch(ctx context.Context, owner, repo, branch, sha string) error
}

// GitHubAPIClient is the REST surface used on behalf of a signed-in user
type GitHubAPIClient interface {
	GitDataClient

	GetAuthenticatedUser(ctx context.Context) (*GitHubUser, error)
	ListOwnedRepositories(ctx context.Context) ([]GitHubRepository, error)
	// GetRepositoryByID returns an error wrapping core.ErrNotFound when the id is unknown
	GetRepositoryByID(ctx context.Context, repoID int64) (*GitHubRepository, error)
	// GetFileContent returns None when the path does not exist
	GetFileContent(ctx context.Context, owner, repo, path string) (mo.Option[string], error)
}

// IdentityProvider mints and verifies session credentials
type IdentityProvider interface {
	Mint(ctx context.Context, subjectID string, claims models.SessionClaims) (models.SessionCredential, error)
	Verify(ctx context.Context, credential models.SessionCredential) (*models.SessionClaims, error)
}

// CodeTransformer turns Streamlit sources into target framework sources
type CodeTransformer interface {
	StreamlitToNextJS(ctx context.Context, streamlitCode string) (string, error)
	RequirementsToPackageJSON(ctx context.Context, requirements string) (string, error)
	StreamlitToReactFastAPI(ctx context.Context, streamlitCode, requirements string) (*ReactFastAPIOutput, error)
}
