package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Auth taxonomy. ErrAuthFailure is fatal to the connect attempt and is
	// never retried; the others narrow down why a code exchange failed.
	ErrAuthFailure     = fmt.Errorf("authentication failed")
	ErrInvalidPhone    = fmt.Errorf("invalid phone number")
	ErrCodeNotFound    = fmt.Errorf("code not found or expired")
	ErrCodeExpired     = fmt.Errorf("code expired")
	ErrInvalidCode     = fmt.Errorf("invalid code")
	ErrTooManyAttempts = fmt.Errorf("too many verification attempts")
	ErrTokenGeneration = fmt.Errorf("token generation failed")

	// Sync core taxonomy.
	ErrEmptyMessage     = fmt.Errorf("empty message")
	ErrNotAuthorized    = fmt.Errorf("not a participant of this chat")
	ErrChatNotFound     = fmt.Errorf("chat not found")
	ErrUserNotFound     = fmt.Errorf("user not found")
	ErrTransportFailure = fmt.Errorf("transport failure")
	ErrStoreUnavailable = fmt.Errorf("store unavailable")

	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrOnlyCensoredFiles = fmt.Errorf("censored directory contains directories")
	ErrEmptyWords        = fmt.Errorf("no words have been found")
)

// MapToHTTPStatus translates domain errors into HTTP status codes at the
// transport boundary, keeping handlers free of status logic.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrAuthFailure),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrCodeExpired),
		errors.Is(err, ErrCodeNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrChatNotFound), errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidPhone), errors.Is(err, ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
