package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"convbackend/appctx"
	"convbackend/core"
	"convbackend/middleware"
	"convbackend/models"
	"convbackend/models/api"
	"convbackend/services"
	"convbackend/usecases/conversion"
	"convbackend/utils"
)

const maxConvertRequestBytes = 64 << 10

type ConversionHTTPHandler struct {
	conversion   *conversion.ConversionUseCase
	repositories services.RepositorySource
	sessions     services.SessionStore
}

func NewConversionHTTPHandler(
	conversionUseCase *conversion.ConversionUseCase,
	repositories services.RepositorySource,
	sessions services.SessionStore,
) *ConversionHTTPHandler {
	return &ConversionHTTPHandler{
		conversion:   conversionUseCase,
		repositories: repositories,
		sessions:     sessions,
	}
}

func (h *ConversionHTTPHandler) HandleListRepositories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log.Ctx(ctx).Info().Msg("📋 List repositories request received")

	claims, ok := appctx.GetSessionClaims(ctx)
	if !ok {
		writeErrorResponse(ctx, w, core.NewError(core.KindNotAuthenticated, "Not authenticated", nil))
		return
	}

	repos, err := h.repositories.ListRepositories(ctx, claims.AccessToken)
	if err != nil {
		writeErrorResponse(ctx, w, err)
		return
	}

	writeJSONResponse(ctx, w, http.StatusOK, api.DomainRepositoriesToAPIRepositories(repos))
}

func (h *ConversionHTTPHandler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log.Ctx(ctx).Info().Msg("🔄 Convert request received")

	credential, ok := appctx.GetSessionCredential(ctx)
	if !ok {
		writeErrorResponse(ctx, w, core.NewError(core.KindNotAuthenticated, "Not authenticated", nil))
		return
	}

	var req api.ConvertRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxConvertRequestBytes)).Decode(&req); err != nil {
		writeErrorResponse(ctx, w, core.NewError(core.KindInvalidRequest, "Invalid request body", err))
		return
	}
	if err := utils.V().Struct(req); err != nil {
		writeErrorResponse(ctx, w, core.NewError(core.KindInvalidRequest, "repoId and targetProfile are required", err))
		return
	}

	result, err := h.conversion.Convert(ctx, credential, req.RepoID, models.TargetProfile(req.TargetProfile))
	if err != nil {
		if errors.Is(err, core.ErrSessionExpired) {
			h.sessions.ClearSession(w)
		}
		writeErrorResponse(ctx, w, err)
		return
	}

	writeJSONResponse(ctx, w, http.StatusOK, api.ConvertResponse{
		Message:   "Conversion successful!",
		BranchURL: result.BranchURL,
	})
}

func (h *ConversionHTTPHandler) SetupEndpoints(router *mux.Router, authMiddleware *middleware.SessionAuthMiddleware) {
	log.Info().Msg("🚀 Registering conversion endpoints")

	router.HandleFunc("/repositories", authMiddleware.WithAuth(h.HandleListRepositories)).Methods("GET")
	log.Info().Msg("✅ GET /repositories endpoint registered")

	router.HandleFunc("/convert", authMiddleware.WithAuth(h.HandleConvert)).Methods("POST")
	log.Info().Msg("✅ POST /convert endpoint registered")
}
