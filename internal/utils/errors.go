package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrInvalidInput       = errors.New("invalid_input")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrEmailExists        = errors.New("email_exists")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrBlacklistFailed    = errors.New("blacklist_token_failed")
	ErrForceLogoutFailed  = errors.New("force_logout_failed")
	ErrCleanupFailed      = errors.New("blacklist_cleanup_failed")
	ErrStatsFailed        = errors.New("blacklist_stats_failed")
	ErrInternal           = errors.New("internal_server_error")
)

// Error codes carried in HTTP error envelopes.
const (
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeValidation         = "validation_error"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeForbidden          = "forbidden"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeInvalidToken       = "invalid_token"
	ErrCodeNotFound           = "not_found"
	ErrCodeConflict           = "conflict"
	ErrCodeBlacklistFailed    = "blacklist_token_failed"
	ErrCodeForceLogoutFailed  = "force_logout_failed"
	ErrCodeCleanupFailed      = "blacklist_cleanup_failed"
	ErrCodeStatsFailed        = "blacklist_stats_failed"
	ErrCodeInternal           = "internal_server_error"
)

// statusByCode maps each error code to its transport status exactly once,
// instead of re-deriving it with a switch at every call site.
var statusByCode = map[string]int{
	ErrCodeInvalidPayload:     http.StatusBadRequest,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeInvalidToken:       http.StatusUnauthorized,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeBlacklistFailed:    http.StatusInternalServerError,
	ErrCodeForceLogoutFailed:  http.StatusInternalServerError,
	ErrCodeCleanupFailed:      http.StatusInternalServerError,
	ErrCodeStatsFailed:        http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
}

// StatusForCode resolves an error code to its HTTP status. Unknown codes
// fall back to 500.
func StatusForCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// codeByErr maps domain sentinel errors to their wire error codes.
var codeByErr = map[error]string{
	ErrInvalidInput:       ErrCodeInvalidPayload,
	ErrUserNotFound:       ErrCodeNotFound,
	ErrEmailExists:        ErrCodeConflict,
	ErrInvalidCredentials: ErrCodeInvalidCredentials,
	ErrInvalidToken:       ErrCodeInvalidToken,
	ErrBlacklistFailed:    ErrCodeBlacklistFailed,
	ErrForceLogoutFailed:  ErrCodeForceLogoutFailed,
	ErrCleanupFailed:      ErrCodeCleanupFailed,
	ErrStatsFailed:        ErrCodeStatsFailed,
	ErrInternal:           ErrCodeInternal,
}

// CodeForErr resolves a domain error to its wire error code.
func CodeForErr(err error) string {
	for sentinel, code := range codeByErr {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return ErrCodeInternal
}

// AppError carries a transport status and public message alongside the
// underlying cause. The cause is logged, never exposed to the caller.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HandleAppError centralizes responding to service-layer errors. AppErrors
// carry their own status; bare domain errors go through the code tables.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
		return
	}
	code := CodeForErr(err)
	RespondErrorWithCode(w, StatusForCode(code), code, publicMessageFor(code), nil, err)
}

func publicMessageFor(code string) string {
	switch code {
	case ErrCodeInvalidPayload:
		return "Invalid request"
	case ErrCodeNotFound:
		return "Resource not found"
	case ErrCodeConflict:
		return "Resource already exists"
	case ErrCodeInvalidCredentials:
		return "Invalid email or password"
	case ErrCodeInvalidToken:
		return "Invalid token"
	default:
		return "An unexpected error occurred"
	}
}
