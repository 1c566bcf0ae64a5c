package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mechanicapp/tracking-system/internal/api/middleware"
	"github.com/mechanicapp/tracking-system/internal/core/domain"
)

// ctxClaims extracts the auth claims injected by the Auth middleware.
// role must be non-empty (presence proves the middleware ran).
func ctxClaims(c echo.Context) (userID, role string, err error) {
	role, _ = c.Get(middleware.CtxRole).(string)
	if role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	userID, _ = c.Get(middleware.CtxUserID).(string)
	return userID, role, nil
}

// isParticipant reports whether the token belongs to a job participant device
// rather than a back-office or service caller.
func isParticipant(role string) bool {
	return role == middleware.RoleCustomer || role == middleware.RoleMechanic
}

// participantRole resolves the tracked role for a request. Participants may only act
// as themselves; admin and service callers must name the role explicitly.
func participantRole(tokenRole, requested string) (string, error) {
	if isParticipant(tokenRole) {
		if requested != "" && requested != tokenRole {
			return "", domain.ErrForbidden
		}
		return tokenRole, nil
	}
	if requested == "" {
		return "", echo.NewHTTPError(http.StatusUnprocessableEntity, "role is required")
	}
	return requested, nil
}
