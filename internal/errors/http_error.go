package errors

import (
	stderrors "errors"
	"net/http"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// Helper for common errors
var (
	ErrUnauthorized = func(msg string) *HTTPError { return NewHTTPError(http.StatusUnauthorized, msg) }
)

// Error kinds surfaced by the engine and its adapters. Callers wrap them with
// fmt.Errorf("...: %w", ErrX) and branch with errors.Is.
var (
	ErrNotFound            = stderrors.New("not found")
	ErrInvalidInput        = stderrors.New("invalid input")
	ErrInvalidState        = stderrors.New("invalid state")
	ErrUpstreamUnavailable = stderrors.New("upstream unavailable")
)

// StatusCode maps an error chain to the HTTP status a handler should answer with.
func StatusCode(err error) int {
	var httpErr *HTTPError
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.As(err, &httpErr):
		return httpErr.Code
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case stderrors.Is(err, ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
