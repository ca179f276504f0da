package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"convbackend/core"
	"convbackend/models/api"
)

func writeJSONResponse(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("❌ Failed to encode JSON response")
	}
}

// writeErrorResponse logs err with its cause and writes only the client-safe message
func writeErrorResponse(ctx context.Context, w http.ResponseWriter, err error) {
	status := core.HTTPStatus(err)
	event := log.Ctx(ctx).Warn()
	if status >= http.StatusInternalServerError {
		event = log.Ctx(ctx).Error()
	}
	event.Err(err).Int("status", status).Msg("❌ Request failed")

	writeJSONResponse(ctx, w, status, api.ErrorResponse{Error: core.PublicMessage(err)})
}
