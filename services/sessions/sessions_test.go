package sessions

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convbackend/models"
)

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	require.Failf(t, "cookie not set", "expected Set-Cookie for %s", name)
	return nil
}

func TestCookieStore_StateToken(t *testing.T) {
	store := NewCookieStore(true)

	rec := httptest.NewRecorder()
	store.SetStateToken(rec, "state-abc")

	cookie := findCookie(t, rec, StateCookieName)
	assert.Equal(t, "state-abc", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback", nil)
	req.AddCookie(cookie)
	assert.Equal(t, "state-abc", store.GetStateToken(req))

	assert.Empty(t, store.GetStateToken(httptest.NewRequest(http.MethodGet, "/oauth/callback", nil)))

	rec = httptest.NewRecorder()
	store.ClearStateToken(rec)
	cleared := findCookie(t, rec, StateCookieName)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestCookieStore_Session(t *testing.T) {
	store := NewCookieStore(false)

	rec := httptest.NewRecorder()
	store.SetSession(rec, models.SessionCredential("signed.jwt.value"))

	cookie := findCookie(t, rec, SessionCookieName)
	assert.Equal(t, "signed.jwt.value", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, 86400, cookie.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(cookie)
	credential, ok := store.GetSession(req)
	require.True(t, ok)
	assert.Equal(t, models.SessionCredential("signed.jwt.value"), credential)

	_, ok = store.GetSession(httptest.NewRequest(http.MethodGet, "/session", nil))
	assert.False(t, ok)

	rec = httptest.NewRecorder()
	store.ClearSession(rec)
	cleared := findCookie(t, rec, SessionCookieName)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}
