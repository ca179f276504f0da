package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"

	"convbackend/clients"
	"convbackend/core"
	"convbackend/models"
)

// AuthorizationRequest is the GitHub URL to send the browser to and the state it must echo back
type AuthorizationRequest struct {
	URL   string
	State string
}

type AuthUseCase struct {
	oauthClient   clients.GitHubOAuthClient
	githubClients clients.GitHubClientFactory
	identity      clients.IdentityProvider
}

func NewAuthUseCase(
	oauthClient clients.GitHubOAuthClient,
	githubClients clients.GitHubClientFactory,
	identity clients.IdentityProvider,
) *AuthUseCase {
	return &AuthUseCase{
		oauthClient:   oauthClient,
		githubClients: githubClients,
		identity:      identity,
	}
}

// IssueAuthorizationURL creates a fresh state token and the authorize URL bound to it.
// No network call is made.
func (u *AuthUseCase) IssueAuthorizationURL(ctx context.Context) (*AuthorizationRequest, error) {
	if u.oauthClient.ClientID() == "" {
		log.Ctx(ctx).Error().Msg("❌ GitHub client id is not configured")
		return nil, core.NewError(core.KindConfiguration, "GitHub OAuth is not configured", nil)
	}

	state, err := core.NewStateToken()
	if err != nil {
		return nil, core.NewError(core.KindConfiguration, "Failed to start sign-in", err)
	}

	return &AuthorizationRequest{
		URL:   u.oauthClient.AuthorizationURL(state),
		State: state,
	}, nil
}

// HandleCallback validates the OAuth callback and mints a session credential.
// The state check runs before any network call.
func (u *AuthUseCase) HandleCallback(ctx context.Context, code, state, storedState string) (models.SessionCredential, error) {
	log.Ctx(ctx).Info().Msg("📋 Starting to handle OAuth callback")

	if state == "" || storedState == "" || subtle.ConstantTimeCompare([]byte(state), []byte(storedState)) != 1 {
		log.Ctx(ctx).Warn().Msg("❌ OAuth state mismatch")
		return "", core.NewError(core.KindAuthStateMismatch, "Invalid state parameter", nil)
	}
	if code == "" {
		log.Ctx(ctx).Warn().Msg("❌ OAuth callback without code")
		return "", core.NewError(core.KindAuthCodeMissing, "Authorization code is missing", nil)
	}

	accessToken, err := u.oauthClient.ExchangeCodeForAccessToken(ctx, code)
	if err != nil {
		var providerErr *clients.ProviderError
		if errors.As(err, &providerErr) {
			message := providerErr.Description
			if message == "" {
				message = providerErr.Code
			}
			return "", core.NewError(core.KindAuthExchangeFailed, "GitHub OAuth error: "+message, err)
		}
		log.Ctx(ctx).Error().Err(err).Msg("❌ Failed to exchange authorization code")
		return "", core.NewError(core.KindAuthCallbackFailed, "Authentication failed", err)
	}

	user, err := u.githubClients.ForToken(accessToken).GetAuthenticatedUser(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("❌ Failed to fetch GitHub user")
		return "", core.NewError(core.KindAuthCallbackFailed, "Authentication failed", err)
	}

	subjectID := strconv.FormatInt(user.ID, 10)
	credential, err := u.identity.Mint(ctx, subjectID, models.SessionClaims{
		User: models.User{
			ID:          subjectID,
			Username:    user.Login,
			DisplayName: user.Name,
			Email:       user.Email,
			AvatarURL:   user.AvatarURL,
		},
		AccessToken: accessToken,
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("❌ Failed to mint session credential")
		if errors.Is(err, core.ErrIdentityProviderUnavailable) {
			return "", err
		}
		return "", core.NewError(core.KindAuthCallbackFailed, "Authentication failed", err)
	}

	log.Ctx(ctx).Info().Str("github_user", user.Login).Msg("📋 Completed successfully - signed in")
	return credential, nil
}

// VerifySession recovers the claims of a session credential
func (u *AuthUseCase) VerifySession(ctx context.Context, credential models.SessionCredential) (*models.SessionClaims, error) {
	return u.identity.Verify(ctx, credential)
}
