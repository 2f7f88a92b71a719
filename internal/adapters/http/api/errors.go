package api

import (
	"errors"
	"net/http"

	service "github.com/okian/reto/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotReady   = errors.New("scoreboard is still loading")
)

// statusFor maps service errors to an HTTP status and an error code.
func statusFor(err error) (int, string) {
	var capErr *service.CapExceededError
	switch {
	case errors.As(err, &capErr):
		return http.StatusUnprocessableEntity, "cap_exceeded"
	case errors.Is(err, service.ErrValidation), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, service.ErrNoActiveSeason):
		return http.StatusConflict, "no_active_season"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrUnknownConfirmation):
		return http.StatusNotFound, "unknown_confirmation"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, ErrNotReady):
		return http.StatusServiceUnavailable, "not_ready"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
