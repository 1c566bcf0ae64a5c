package middleware

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

// JobMembership lets customer and mechanic tokens reach /jobs/:job_id routes only
// for jobs they take part in. Admin and service tokens pass unchecked. A nil
// directory disables the check.
func JobMembership(jobs ports.JobDirectory) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if jobs == nil {
			return next
		}
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if role != RoleCustomer && role != RoleMechanic {
				return next(c)
			}

			jobID := strings.TrimSpace(c.Param("job_id"))
			job, err := jobs.FindJob(c.Request().Context(), jobID)
			if err != nil {
				return err
			}

			userID, _ := c.Get(CtxUserID).(string)
			if !job.HasParticipant(domain.Role(role), userID) {
				return fmt.Errorf("job %q: %s %q: %w", jobID, role, userID, domain.ErrForbidden)
			}
			return next(c)
		}
	}
}
