package handler

import (
	"encoding/json"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
)

func toSessionResponse(s *domain.TrackingSession) sessionResponse {
	resp := sessionResponse{
		JobID:            s.JobID,
		SessionID:        s.ID,
		OwnerRole:        string(s.OwnerRole),
		State:            string(s.State),
		CustomerLocation: toLocationResponse(s.Customer),
		MechanicLocation: toLocationResponse(s.Mechanic),
		DistanceMeters:   s.DistanceMeters,
		EstimatedArrival: s.EstimatedArrival,
		Arrived:          s.Arrived,
		LastError:        s.LastError,
		StartedAt:        s.StartedAt,
		UpdatedAt:        s.UpdatedAt,
		Links: sessionLinks{
			Self:   "/v1/jobs/" + s.JobID + "/tracking",
			Stream: "/v1/jobs/" + s.JobID + "/tracking/stream",
		},
	}
	if s.DistanceMeters != nil {
		resp.DistanceText = domain.FormatDistance(*s.DistanceMeters)
	}
	return resp
}

func toLocationResponse(l *domain.ParticipantLocation) *participantLocationResponse {
	if l == nil {
		return nil
	}
	return &participantLocationResponse{
		Lat:            l.Fix.Coordinate.Lat,
		Lng:            l.Fix.Coordinate.Lng,
		AccuracyMeters: l.Fix.AccuracyMeters,
		CapturedAt:     l.Fix.CapturedAt,
		Address:        l.Address,
		LastUpdated:    l.LastUpdated,
	}
}

func toActiveResponse(sessions []domain.TrackingSession) activeSessionsResponse {
	data := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		data = append(data, toSessionResponse(&sessions[i]))
	}
	return activeSessionsResponse{Data: data, Count: len(data)}
}

// EncodeUpdate renders a session change with the same session view as the REST API.
func EncodeUpdate(u domain.SessionUpdate) ([]byte, error) {
	return json.Marshal(sessionUpdateResponse{
		Kind:    string(u.Kind),
		Session: toSessionResponse(&u.Session),
		At:      u.At,
	})
}
