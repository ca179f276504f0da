package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"convbackend/clients"
)

// OAuthScopes requested from GitHub. "repo" is needed to create branches.
var OAuthScopes = []string{"repo"}

// GitHubOAuthClient implements the clients.GitHubOAuthClient interface
type GitHubOAuthClient struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewGitHubOAuthClient creates an OAuth client. oauthBaseURL may be empty to use github.com.
func NewGitHubOAuthClient(clientID, clientSecret, redirectURL, oauthBaseURL string) *GitHubOAuthClient {
	endpoint := githuboauth.Endpoint
	if oauthBaseURL != "" {
		base := strings.TrimRight(oauthBaseURL, "/")
		endpoint = oauth2.Endpoint{
			AuthURL:  base + "/login/oauth/authorize",
			TokenURL: base + "/login/oauth/access_token",
		}
	}
	// GitHub expects credentials in the form body
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &GitHubOAuthClient{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       OAuthScopes,
			Endpoint:     endpoint,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ClientID returns the configured OAuth application id
func (c *GitHubOAuthClient) ClientID() string {
	return c.config.ClientID
}

// AuthorizationURL builds the GitHub authorize URL carrying the given state
func (c *GitHubOAuthClient) AuthorizationURL(state string) string {
	return c.config.AuthCodeURL(state)
}

// ExchangeCodeForAccessToken exchanges an OAuth authorization code for an access token.
// Errors reported by GitHub in the token response are returned as *clients.ProviderError.
func (c *GitHubOAuthClient) ExchangeCodeForAccessToken(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			providerErr := &clients.ProviderError{
				Code:        retrieveErr.ErrorCode,
				Description: retrieveErr.ErrorDescription,
			}
			if providerErr.Code == "" {
				providerErr.Code = gjson.GetBytes(retrieveErr.Body, "error").String()
				providerErr.Description = gjson.GetBytes(retrieveErr.Body, "error_description").String()
			}
			if providerErr.Code != "" {
				log.Ctx(ctx).Warn().Str("error_code", providerErr.Code).Msg("❌ GitHub rejected the authorization code")
				return "", providerErr
			}
		}
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}

	if token.AccessToken == "" {
		return "", fmt.Errorf("no access token in response")
	}

	return token.AccessToken, nil
}
