package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

// TrackingHandler exposes tracking session lifecycle operations.
type TrackingHandler struct {
	service ports.TrackingService
}

func NewTrackingHandler(service ports.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

// RequestPermission handles POST /v1/tracking/permission.
//
// @Summary      Request the location permission
// @Description  Asks once per process; a cached grant is returned without prompting again.
// @Tags         tracking
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  permissionResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/tracking/permission [post]
func (h *TrackingHandler) RequestPermission(c echo.Context) error {
	if _, _, err := ctxClaims(c); err != nil {
		return err
	}
	granted, err := h.service.RequestPermission(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, permissionResponse{Granted: granted})
}

// PermissionStatus handles GET /v1/tracking/permission.
//
// @Summary      Read the cached location permission
// @Description  Reports whether a grant is cached. Never prompts.
// @Tags         tracking
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  permissionResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/tracking/permission [get]
func (h *TrackingHandler) PermissionStatus(c echo.Context) error {
	if _, _, err := ctxClaims(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, permissionResponse{Granted: h.service.PermissionGranted(c.Request().Context())})
}

// RevokePermission handles DELETE /v1/tracking/permission.
//
// @Summary      Revoke the cached location permission
// @Description  The next start prompts again. Running sessions are not stopped.
// @Tags         tracking
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /v1/tracking/permission [delete]
func (h *TrackingHandler) RevokePermission(c echo.Context) error {
	if _, _, err := ctxClaims(c); err != nil {
		return err
	}
	h.service.RevokePermission(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// Start handles POST /v1/jobs/:job_id/tracking.
//
// @Summary      Start tracking a job
// @Description  Takes an immediate fix, resolves its address and subscribes to the device stream.
// @Description  An existing session for the job is replaced.
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        job_id  path      string                true   "Job id"
// @Param        body    body      startTrackingRequest  false  "Tracked role (required for admin and service tokens)"
// @Success      201     {object}  sessionResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Failure      409     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Failure      503     {object}  errorResponse
// @Router       /v1/jobs/{job_id}/tracking [post]
func (h *TrackingHandler) Start(c echo.Context) error {
	_, tokenRole, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req startTrackingRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	role, err := participantRole(tokenRole, req.Role)
	if err != nil {
		return err
	}

	session, err := h.service.Start(c.Request().Context(), ports.StartInput{
		JobID: c.Param("job_id"),
		Role:  role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSessionResponse(session))
}

// Get handles GET /v1/jobs/:job_id/tracking.
//
// @Summary      Get the tracking session of a job
// @Description  Sessions ended by a stream error stay readable with state "inactive" and last_error.
// @Tags         tracking
// @Produce      json
// @Security     BearerAuth
// @Param        job_id  path      string  true  "Job id"
// @Success      200     {object}  sessionResponse
// @Failure      404     {object}  errorResponse
// @Router       /v1/jobs/{job_id}/tracking [get]
func (h *TrackingHandler) Get(c echo.Context) error {
	if _, _, err := ctxClaims(c); err != nil {
		return err
	}
	session, err := h.service.Get(c.Request().Context(), c.Param("job_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(session))
}

// Stop handles DELETE /v1/jobs/:job_id/tracking. Stopping an untracked job succeeds.
//
// @Summary      Stop tracking a job
// @Tags         tracking
// @Security     BearerAuth
// @Param        job_id  path  string  true  "Job id"
// @Success      204
// @Router       /v1/jobs/{job_id}/tracking [delete]
func (h *TrackingHandler) Stop(c echo.Context) error {
	if _, _, err := ctxClaims(c); err != nil {
		return err
	}
	if err := h.service.Stop(c.Request().Context(), c.Param("job_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListActive handles GET /v1/tracking/active.
//
// @Summary      List active tracking sessions
// @Tags         tracking
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  activeSessionsResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/tracking/active [get]
func (h *TrackingHandler) ListActive(c echo.Context) error {
	return c.JSON(http.StatusOK, toActiveResponse(h.service.ListActive(c.Request().Context())))
}
