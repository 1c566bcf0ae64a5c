package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRBAC(t *testing.T) {
	participantsAndOps := []string{RoleCustomer, RoleMechanic, RoleAdmin, RoleService}
	backOffice := []string{RoleAdmin, RoleService}

	tests := []struct {
		name    string
		allowed []string
		role    any
		want    int
	}{
		{"mechanic on job route", participantsAndOps, RoleMechanic, http.StatusOK},
		{"service on job route", participantsAndOps, RoleService, http.StatusOK},
		{"admin on active list", backOffice, RoleAdmin, http.StatusOK},
		{"customer on active list", backOffice, RoleCustomer, http.StatusForbidden},
		{"unknown role", participantsAndOps, "guest", http.StatusForbidden},
		{"missing role", backOffice, nil, http.StatusForbidden},
		{"non-string role", backOffice, 42, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			if tc.role != nil {
				c.Set(CtxRole, tc.role)
			}

			called := false
			handler := RBAC(tc.allowed...)(func(c echo.Context) error {
				called = true
				return c.NoContent(http.StatusOK)
			})
			if err := handler(c); err != nil {
				e.HTTPErrorHandler(err, c)
			}

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if called != (tc.want == http.StatusOK) {
				t.Fatalf("next called=%v for status %d", called, tc.want)
			}
		})
	}
}
