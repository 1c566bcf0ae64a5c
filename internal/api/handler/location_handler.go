package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

// EventDispatcher is the interface the handler uses to enqueue location events.
type EventDispatcher interface {
	Enqueue(ev ports.LocationEvent)
	EnqueueBatch(events []ports.LocationEvent)
}

// LocationHandler ingests fixes posted by participant devices that are not the
// owner of the job's session stream (typically the counterpart).
type LocationHandler struct {
	dispatcher EventDispatcher
}

// NewLocationHandler creates a LocationHandler backed by the given dispatcher.
func NewLocationHandler(dispatcher EventDispatcher) *LocationHandler {
	return &LocationHandler{dispatcher: dispatcher}
}

// Receive handles POST /v1/jobs/:job_id/locations and enqueues a single fix, returns 202.
//
// @Summary      Post a participant location
// @Description  The fix is applied asynchronously, in order with the job's other fixes.
// @Tags         locations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        job_id  path      string              true  "Job id"
// @Param        body    body      locationFixRequest  true  "Location fix"
// @Success      202     {object}  acceptedResponse
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Router       /v1/jobs/{job_id}/locations [post]
func (h *LocationHandler) Receive(c echo.Context) error {
	_, tokenRole, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req locationFixRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ev, err := toLocationEvent(c.Param("job_id"), tokenRole, req)
	if err != nil {
		return err
	}

	h.dispatcher.Enqueue(ev)
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "location accepted"})
}

// ReceiveBatch handles POST /v1/jobs/:job_id/locations/batch and enqueues fixes
// buffered by a device while it was offline, returns 202.
//
// @Summary      Post a batch of participant locations
// @Tags         locations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        job_id  path      string                true  "Job id"
// @Param        body    body      []locationFixRequest  true  "Location fixes, oldest first"
// @Success      202     {object}  acceptedResponse
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Router       /v1/jobs/{job_id}/locations/batch [post]
func (h *LocationHandler) ReceiveBatch(c echo.Context) error {
	_, tokenRole, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var reqs []locationFixRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(reqs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "batch cannot be empty")
	}

	events := make([]ports.LocationEvent, 0, len(reqs))
	for i, req := range reqs {
		if err := c.Validate(&req); err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity,
				fmt.Sprintf("fix[%d]: %s", i, err.Error()))
		}
		ev, err := toLocationEvent(c.Param("job_id"), tokenRole, req)
		if err != nil {
			return err
		}
		events = append(events, ev)
	}

	h.dispatcher.EnqueueBatch(events)
	return c.JSON(http.StatusAccepted, acceptedResponse{
		Message: "locations accepted",
		Count:   len(events),
	})
}

// toLocationEvent maps the HTTP request to the service event.
func toLocationEvent(jobID, tokenRole string, r locationFixRequest) (ports.LocationEvent, error) {
	role, err := participantRole(tokenRole, r.Role)
	if err != nil {
		return ports.LocationEvent{}, err
	}
	return ports.LocationEvent{
		JobID: jobID,
		Role:  role,
		Fix: &ports.FixInput{
			Lat:            r.Lat,
			Lng:            r.Lng,
			AccuracyMeters: r.AccuracyMeters,
			CapturedAt:     r.CapturedAt,
			Address:        r.Address,
		},
		Source: ports.SourceAPI,
	}, nil
}
