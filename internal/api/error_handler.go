package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

// errorMappings translates domain errors to HTTP responses. An empty message
// exposes the wrapped error text, which carries the offending input.
var errorMappings = []struct {
	target  error
	code    int
	message string
}{
	{domain.ErrSessionNotFound, http.StatusNotFound, "tracking session not found"},
	{domain.ErrJobNotFound, http.StatusNotFound, "job not found"},
	{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
	{domain.ErrPermissionDenied, http.StatusForbidden, "location permission denied"},
	{domain.ErrTrackingCancelled, http.StatusConflict, ""},
	{domain.ErrTrackingSuperseded, http.StatusConflict, ""},
	{domain.ErrJobNotTrackable, http.StatusConflict, ""},
	{domain.ErrInvalidJobID, http.StatusUnprocessableEntity, ""},
	{domain.ErrInvalidRole, http.StatusUnprocessableEntity, ""},
	{domain.ErrInvalidCoordinates, http.StatusUnprocessableEntity, ""},
	{domain.ErrLocationUnavailable, http.StatusServiceUnavailable, "location unavailable"},
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.message == "" {
				return m.code, err.Error()
			}
			return m.code, m.message
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
