package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// ErrorKind identifies a failure class surfaced to clients
type ErrorKind string

const (
	KindAuthStateMismatch           ErrorKind = "AuthStateMismatch"
	KindAuthCodeMissing             ErrorKind = "AuthCodeMissing"
	KindAuthExchangeFailed          ErrorKind = "AuthExchangeFailed"
	KindAuthCallbackFailed          ErrorKind = "AuthCallbackFailed"
	KindIdentityProviderUnavailable ErrorKind = "IdentityProviderUnavailable"
	KindSessionExpired              ErrorKind = "SessionExpired"
	KindSessionInvalid              ErrorKind = "SessionInvalid"
	KindNotAuthenticated            ErrorKind = "NotAuthenticated"
	KindRepositoryNotFound          ErrorKind = "RepositoryNotFound"
	KindEntrypointMissing           ErrorKind = "EntrypointMissing"
	KindFileFetchFailed             ErrorKind = "FileFetchFailed"
	KindUnsupportedProfile          ErrorKind = "UnsupportedProfile"
	KindTransformFailed             ErrorKind = "TransformFailed"
	KindPublishFailed               ErrorKind = "PublishFailed"
	KindInvalidRequest              ErrorKind = "InvalidRequest"
	KindConfiguration               ErrorKind = "Configuration"
)

var kindStatusCodes = map[ErrorKind]int{
	KindAuthStateMismatch:           http.StatusBadRequest,
	KindAuthCodeMissing:             http.StatusBadRequest,
	KindAuthExchangeFailed:          http.StatusInternalServerError,
	KindAuthCallbackFailed:          http.StatusInternalServerError,
	KindIdentityProviderUnavailable: http.StatusInternalServerError,
	KindSessionExpired:              http.StatusUnauthorized,
	KindSessionInvalid:              http.StatusUnauthorized,
	KindNotAuthenticated:            http.StatusUnauthorized,
	KindRepositoryNotFound:          http.StatusNotFound,
	KindEntrypointMissing:           http.StatusNotFound,
	KindFileFetchFailed:             http.StatusInternalServerError,
	KindUnsupportedProfile:          http.StatusBadRequest,
	KindTransformFailed:             http.StatusInternalServerError,
	KindPublishFailed:               http.StatusInternalServerError,
	KindInvalidRequest:              http.StatusBadRequest,
	KindConfiguration:               http.StatusInternalServerError,
}

// Sentinels for errors.Is matching. Any *AppError of the same kind matches.
var (
	ErrAuthStateMismatch           = &AppError{Kind: KindAuthStateMismatch}
	ErrAuthCodeMissing             = &AppError{Kind: KindAuthCodeMissing}
	ErrAuthExchangeFailed          = &AppError{Kind: KindAuthExchangeFailed}
	ErrAuthCallbackFailed          = &AppError{Kind: KindAuthCallbackFailed}
	ErrIdentityProviderUnavailable = &AppError{Kind: KindIdentityProviderUnavailable}
	ErrSessionExpired              = &AppError{Kind: KindSessionExpired}
	ErrSessionInvalid              = &AppError{Kind: KindSessionInvalid}
	ErrNotAuthenticated            = &AppError{Kind: KindNotAuthenticated}
	ErrRepositoryNotFound          = &AppError{Kind: KindRepositoryNotFound}
	ErrEntrypointMissing           = &AppError{Kind: KindEntrypointMissing}
	ErrFileFetchFailed             = &AppError{Kind: KindFileFetchFailed}
	ErrUnsupportedProfile          = &AppError{Kind: KindUnsupportedProfile}
	ErrTransformFailed             = &AppError{Kind: KindTransformFailed}
	ErrPublishFailed               = &AppError{Kind: KindPublishFailed}
	ErrInvalidRequest              = &AppError{Kind: KindInvalidRequest}
	ErrConfiguration               = &AppError{Kind: KindConfiguration}
)

// AppError carries a failure kind, a client-safe message and the underlying cause.
// The cause is for logs only and never reaches a response body.
type AppError struct {
	Kind    ErrorKind
	Message string
	// Step names the stage that failed, used by PublishFailed and FileFetchFailed
	Step string
	Err  error
}

func (e *AppError) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Step != "" {
		msg += " (" + e.Step + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any *AppError of the same kind
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Kind == e.Kind
}

// StatusCode returns the HTTP status for the error kind
func (e *AppError) StatusCode() int {
	if code, ok := kindStatusCodes[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func NewError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func NewStepError(kind ErrorKind, step, message string, err error) *AppError {
	return &AppError{Kind: kind, Step: step, Message: message, Err: err}
}

func InvalidRequest(format string, args ...any) *AppError {
	return &AppError{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// HTTPStatus maps the outermost AppError in err's chain to an HTTP status code.
// Errors without a kind map to 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode()
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the client-safe message for err
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "internal server error"
}

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, ErrNotFound)
}
