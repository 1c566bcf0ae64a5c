package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Token roles. Customers and mechanics are job participants; admin is back-office
// and service is another marketplace component calling on a participant's behalf.
const (
	RoleCustomer = "customer"
	RoleMechanic = "mechanic"
	RoleAdmin    = "admin"
	RoleService  = "service"
)

// RBAC lets the request through only when the token role set by Auth is one of
// allowedRoles.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if _, ok := allowed[role]; !ok {
				if role == "" {
					role = "anonymous"
				}
				return echo.NewHTTPError(http.StatusForbidden, fmt.Sprintf("role %s may not access this resource", role))
			}
			return next(c)
		}
	}
}
