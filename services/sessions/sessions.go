package sessions

import (
	"net/http"
	"time"

	"convbackend/models"
)

const (
	StateCookieName   = "github_oauth_state"
	SessionCookieName = "convaerter_session"

	StateTokenTTL = time.Hour
	SessionTTL    = 24 * time.Hour
)

// CookieStore implements services.SessionStore with HTTP-only cookies
type CookieStore struct {
	secure bool
}

// NewCookieStore creates a store. secure must be true everywhere except local development.
func NewCookieStore(secure bool) *CookieStore {
	return &CookieStore{secure: secure}
}

func (s *CookieStore) SetStateToken(w http.ResponseWriter, token string) {
	http.SetCookie(w, s.cookie(StateCookieName, token, StateTokenTTL))
}

func (s *CookieStore) GetStateToken(r *http.Request) string {
	cookie, err := r.Cookie(StateCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *CookieStore) ClearStateToken(w http.ResponseWriter) {
	http.SetCookie(w, s.expired(StateCookieName))
}

func (s *CookieStore) SetSession(w http.ResponseWriter, credential models.SessionCredential) {
	http.SetCookie(w, s.cookie(SessionCookieName, string(credential), SessionTTL))
}

func (s *CookieStore) GetSession(r *http.Request) (models.SessionCredential, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return models.SessionCredential(cookie.Value), true
}

func (s *CookieStore) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, s.expired(SessionCookieName))
}

func (s *CookieStore) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   s.secure,
		// Lax lets the cookie ride along on the top-level redirect back from GitHub
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *CookieStore) expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
