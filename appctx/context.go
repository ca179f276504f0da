package appctx

import (
	"context"

	"convbackend/models"
)

// Context keys for storing the authenticated session
type contextKey string

const (
	SessionClaimsContextKey     contextKey = "session_claims"
	SessionCredentialContextKey contextKey = "session_credential"
)

// SetSession adds the verified claims and the credential they came from to the request context
func SetSession(ctx context.Context, credential models.SessionCredential, claims *models.SessionClaims) context.Context {
	ctx = context.WithValue(ctx, SessionCredentialContextKey, credential)
	return context.WithValue(ctx, SessionClaimsContextKey, claims)
}

// GetSessionClaims extracts the verified session claims from the request context
func GetSessionClaims(ctx context.Context) (*models.SessionClaims, bool) {
	claims, ok := ctx.Value(SessionClaimsContextKey).(*models.SessionClaims)
	return claims, ok && claims != nil
}

// GetSessionCredential extracts the raw session credential from the request context
func GetSessionCredential(ctx context.Context) (models.SessionCredential, bool) {
	credential, ok := ctx.Value(SessionCredentialContextKey).(models.SessionCredential)
	return credential, ok && credential != ""
}
