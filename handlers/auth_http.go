package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"convbackend/core"
	"convbackend/models/api"
	"convbackend/services"
	"convbackend/usecases/auth"
)

type AuthHTTPHandler struct {
	auth       *auth.AuthUseCase
	sessions   services.SessionStore
	appRootURL string
}

func NewAuthHTTPHandler(authUseCase *auth.AuthUseCase, sessions services.SessionStore, appRootURL string) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		auth:       authUseCase,
		sessions:   sessions,
		appRootURL: appRootURL,
	}
}

// HandleAuthorizeURL issues a state token and returns the GitHub authorize URL bound to it
func (h *AuthHTTPHandler) HandleAuthorizeURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log.Ctx(ctx).Info().Msg("🔐 Authorize URL request received")

	request, err := h.auth.IssueAuthorizationURL(ctx)
	if err != nil {
		writeErrorResponse(ctx, w, err)
		return
	}

	h.sessions.SetStateToken(w, request.State)
	writeJSONResponse(ctx, w, http.StatusOK, api.AuthorizeURLResponse{URL: request.URL})
}

// HandleOAuthCallback completes the handshake and redirects to the app with a session cookie
func (h *AuthHTTPHandler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	storedState := h.sessions.GetStateToken(r)

	// the state token is single use whatever the outcome
	h.sessions.ClearStateToken(w)

	credential, err := h.auth.HandleCallback(ctx, query.Get("code"), query.Get("state"), storedState)
	if err != nil {
		writeErrorResponse(ctx, w, err)
		return
	}

	h.sessions.SetSession(w, credential)
	log.Ctx(ctx).Info().Msg("✅ Session established, redirecting to app")
	http.Redirect(w, r, h.appRootURL, http.StatusFound)
}

func (h *AuthHTTPHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearSession(w)
	h.sessions.ClearStateToken(w)
	writeJSONResponse(r.Context(), w, http.StatusOK, api.MessageResponse{Message: "Signed out"})
}

// HandleGetSession reports the signed-in user. A missing cookie is not an error.
func (h *AuthHTTPHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	credential, ok := h.sessions.GetSession(r)
	if !ok {
		writeJSONResponse(ctx, w, http.StatusOK, api.SessionResponse{User: nil})
		return
	}

	claims, err := h.auth.VerifySession(ctx, credential)
	if err != nil {
		log.Ctx(ctx).Info().Err(err).Msg("❌ Session verification failed")
		if errors.Is(err, core.ErrSessionExpired) {
			h.sessions.ClearSession(w)
		}
		writeJSONResponse(ctx, w, core.HTTPStatus(err), api.SessionResponse{
			User:  nil,
			Error: core.PublicMessage(err),
		})
		return
	}

	writeJSONResponse(ctx, w, http.StatusOK, api.SessionResponse{User: api.DomainUserToAPIUser(&claims.User)})
}

func (h *AuthHTTPHandler) SetupEndpoints(router *mux.Router) {
	log.Info().Msg("🚀 Registering auth endpoints")

	router.HandleFunc("/authorize-url", h.HandleAuthorizeURL).Methods("GET")
	log.Info().Msg("✅ GET /authorize-url endpoint registered")

	router.HandleFunc("/oauth/callback", h.HandleOAuthCallback).Methods("GET")
	log.Info().Msg("✅ GET /oauth/callback endpoint registered")

	router.HandleFunc("/signout", h.HandleSignOut).Methods("POST")
	log.Info().Msg("✅ POST /signout endpoint registered")

	router.HandleFunc("/session", h.HandleGetSession).Methods("GET")
	log.Info().Msg("✅ GET /session endpoint registered")
}
