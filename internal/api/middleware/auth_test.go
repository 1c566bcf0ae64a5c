package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "secret"

func sign(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuthMiddleware_InjectsClaims(t *testing.T) {
	e := echo.New()
	token := sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"user_id": "user-17",
		"role":    RoleMechanic,
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs/job-1/tracking", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var userID, role any
	handler := Auth(testSecret)(func(c echo.Context) error {
		userID, role = c.Get(CtxUserID), c.Get(CtxRole)
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if userID != "user-17" || role != RoleMechanic {
		t.Fatalf("unexpected claims user_id=%v role=%v", userID, role)
	}
}

func TestAuthMiddleware_LowercaseScheme(t *testing.T) {
	e := echo.New()
	token := sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"role": RoleAdmin})

	req := httptest.NewRequest(http.MethodGet, "/v1/tracking/active", nil)
	req.Header.Set("Authorization", "bearer "+token)
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	handler := Auth(testSecret)(func(echo.Context) error {
		called = true
		return nil
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatal("next not called")
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header string
	}{
		{"missing header", "/", ""},
		{"wrong scheme", "/", "Token abc"},
		{"garbage token", "/", "Bearer not-a-token"},
		{"wrong secret", "/", "Bearer " + sign(t, jwt.SigningMethodHS256, "other", jwt.MapClaims{"role": RoleAdmin})},
		{"unexpected algorithm", "/", "Bearer " + sign(t, jwt.SigningMethodHS512, testSecret, jwt.MapClaims{"role": RoleAdmin})},
		{"query token outside websocket", "/?access_token=" + sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"role": RoleAdmin}), ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := Auth(testSecret)(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})
			if err := handler(c); err != nil {
				e.HTTPErrorHandler(err, c)
			}

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthMiddleware_QueryTokenOnWebSocket(t *testing.T) {
	e := echo.New()
	token := sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"user_id": "user-3",
		"role":    RoleCustomer,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/job-1/tracking/stream?access_token="+token, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	c := e.NewContext(req, httptest.NewRecorder())

	var role any
	handler := Auth(testSecret)(func(c echo.Context) error {
		role = c.Get(CtxRole)
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if role != RoleCustomer {
		t.Fatalf("expected customer role, got %v", role)
	}
}
