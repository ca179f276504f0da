package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	anthropicclient "convbackend/clients/anthropic"
	githubclient "convbackend/clients/github"
	"convbackend/clients/identity"
	"convbackend/middleware"
	"convbackend/services/publisher"
	"convbackend/services/repositories"
	"convbackend/services/sessions"
	"convbackend/testutils"
	"convbackend/usecases/auth"
	"convbackend/usecases/conversion"
)

const (
	testSecret      = "0123456789abcdef0123456789abcdef-test-secret"
	testAccessToken = "gho_e2e_access_token"
	testAppRoot     = "https://convert.example.com/"
	testRepoID      = int64(42)
	testHeadSHA     = "a000000000000000000000000000000000000000"
	streamlitSource = "import streamlit as st\nst.title('Sales dashboard')\n"
)

// testApp wires the real router, services and GitHub clients against FakeGitHub.
// Only the code transformer is mocked.
type testApp struct {
	handler     http.Handler
	github      *testutils.FakeGitHub
	transformer *anthropicclient.MockCodeTransformer
	identity    *identity.JWTIdentityProvider
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	fake := testutils.NewFakeGitHub(testutils.FakeUser{
		ID:        1001,
		Login:     "octocat",
		Email:     "octocat@example.com",
		AvatarURL: "https://avatars.example.com/u/1001",
	}, testAccessToken)
	t.Cleanup(fake.Close)

	fake.AddRepo(testutils.FakeRepo{
		ID:            testRepoID,
		Owner:         "octocat",
		Name:          "sales-dashboard",
		DefaultBranch: "main",
		Files:         map[string]string{"app.py": streamlitSource},
	}, testHeadSHA)
	fake.AddRepo(testutils.FakeRepo{
		ID:            7,
		Owner:         "octocat",
		Name:          "notes",
		DefaultBranch: "main",
		Files:         map[string]string{"README.md": "# notes\n"},
	}, testHeadSHA)

	oauthClient := githubclient.NewGitHubOAuthClient("client-123", "client-secret", "https://convert.example.com/oauth/callback", fake.URL())
	githubClients, err := githubclient.NewGitHubClientFactory(fake.URL())
	require.NoError(t, err)

	identityProvider := identity.NewJWTIdentityProvider(testSecret)
	sessionStore := sessions.NewCookieStore(false)
	repositorySource := repositories.NewRepositorySourceService(githubClients)
	transformer := anthropicclient.NewMockCodeTransformer()

	authUseCase := auth.NewAuthUseCase(oauthClient, githubClients, identityProvider)
	conversionUseCase := conversion.NewConversionUseCase(
		identityProvider,
		repositorySource,
		githubClients,
		transformer,
		publisher.NewBranchPublisherService(),
	)

	router := mux.NewRouter()
	authMiddleware := middleware.NewSessionAuthMiddleware(sessionStore, identityProvider)
	NewAuthHTTPHandler(authUseCase, sessionStore, testAppRoot).SetupEndpoints(router)
	NewConversionHTTPHandler(conversionUseCase, repositorySource, sessionStore).SetupEndpoints(router, authMiddleware)

	return &testApp{
		handler:     middleware.RequestLogger(router),
		github:      fake,
		transformer: transformer,
		identity:    identityProvider,
	}
}

func (a *testApp) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

// signIn runs the full OAuth handshake and returns the session cookie
func (a *testApp) signIn(t *testing.T) *http.Cookie {
	t.Helper()

	rr := a.do(httptest.NewRequest(http.MethodGet, "/authorize-url", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	stateCookie := findCookie(rr, sessions.StateCookieName)
	require.NotNil(t, stateCookie)

	a.github.AddAuthorizationCode("code-ok")
	callback := "/oauth/callback?code=code-ok&state=" + url.QueryEscape(stateCookie.Value)
	rr = a.do(httptest.NewRequest(http.MethodGet, callback, nil), stateCookie)
	require.Equal(t, http.StatusFound, rr.Code, rr.Body.String())

	sessionCookie := findCookie(rr, sessions.SessionCookieName)
	require.NotNil(t, sessionCookie)
	require.NotEmpty(t, sessionCookie.Value)
	return sessionCookie
}

// expiredSessionCookie mints a credential that expired an hour ago
func (a *testApp) expiredSessionCookie(t *testing.T) *http.Cookie {
	t.Helper()
	past := identity.NewJWTIdentityProvider(testSecret).WithClock(func() time.Time {
		return time.Now().Add(-sessions.SessionTTL - time.Hour)
	})
	credential, err := past.Mint(t.Context(), "1001", sessionClaimsFor("octocat"))
	require.NoError(t, err)
	return &http.Cookie{Name: sessions.SessionCookieName, Value: string(credential)}
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func isCleared(c *http.Cookie) bool {
	return c != nil && c.MaxAge < 0 && c.Value == ""
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
