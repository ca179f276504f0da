package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"convbackend/appctx"
	"convbackend/clients"
	"convbackend/core"
	"convbackend/models/api"
	"convbackend/services"
)

// SessionAuthMiddleware authenticates requests with the session cookie
type SessionAuthMiddleware struct {
	sessions services.SessionStore
	identity clients.IdentityProvider
}

// NewSessionAuthMiddleware creates a new authentication middleware instance
func NewSessionAuthMiddleware(sessions services.SessionStore, identity clients.IdentityProvider) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{
		sessions: sessions,
		identity: identity,
	}
}

// WithAuth wraps an HTTP handler with session cookie authentication
func (m *SessionAuthMiddleware) WithAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log.Ctx(ctx).Debug().Str("remote_addr", r.RemoteAddr).Msg("🔐 Authentication middleware processing request")

		credential, ok := m.sessions.GetSession(r)
		if !ok {
			log.Ctx(ctx).Info().Msg("❌ Missing session cookie")
			m.writeErrorResponse(w, "Not authenticated", http.StatusUnauthorized)
			return
		}

		claims, err := m.identity.Verify(ctx, credential)
		if err != nil {
			log.Ctx(ctx).Info().Err(err).Msg("❌ Session verification failed")
			if errors.Is(err, core.ErrSessionExpired) {
				m.sessions.ClearSession(w)
			}
			m.writeErrorResponse(w, core.PublicMessage(err), core.HTTPStatus(err))
			return
		}

		log.Ctx(ctx).Debug().Str("github_user", claims.User.Username).Msg("✅ Session verified")
		ctx = appctx.SetSession(ctx, credential, claims)
		next(w, r.WithContext(ctx))
	}
}

// writeErrorResponse writes a standardized error response
func (m *SessionAuthMiddleware) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(api.ErrorResponse{Error: message}); err != nil {
		log.Error().Err(err).Msg("❌ Failed to encode error response")
	}
}
