package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
)

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload"},
		{"session not found", domain.ErrSessionNotFound, http.StatusNotFound, "tracking session not found"},
		{"job not found wrapped", fmt.Errorf("find job: %w", domain.ErrJobNotFound), http.StatusNotFound, "job not found"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
		{"permission denied", domain.ErrPermissionDenied, http.StatusForbidden, "location permission denied"},
		{"cancelled", domain.ErrTrackingCancelled, http.StatusConflict, domain.ErrTrackingCancelled.Error()},
		{"superseded", domain.ErrTrackingSuperseded, http.StatusConflict, domain.ErrTrackingSuperseded.Error()},
		{"not trackable", domain.ErrJobNotTrackable, http.StatusConflict, domain.ErrJobNotTrackable.Error()},
		{"invalid job id", domain.ErrInvalidJobID, http.StatusUnprocessableEntity, domain.ErrInvalidJobID.Error()},
		{"invalid role", fmt.Errorf("%w: %q", domain.ErrInvalidRole, "driver"), http.StatusUnprocessableEntity, `invalid participant role: "driver"`},
		{"invalid coordinates", domain.ErrInvalidCoordinates, http.StatusUnprocessableEntity, domain.ErrInvalidCoordinates.Error()},
		{"location unavailable", fmt.Errorf("initial fix: %w", domain.ErrLocationUnavailable), http.StatusServiceUnavailable, "location unavailable"},
		{"unexpected", errors.New("mongo exploded"), http.StatusInternalServerError, "internal server error"},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			h(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Error != tc.msg {
				t.Fatalf("expected %q, got %q", tc.msg, resp.Error)
			}
		})
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = c.NoContent(http.StatusNoContent)

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrForbidden, c)

	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("committed response must be left alone, got %d %q", rec.Code, rec.Body.String())
	}
}
