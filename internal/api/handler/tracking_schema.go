package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type startTrackingRequest struct {
	// Role is optional for participant tokens, which track their own device.
	Role string `json:"role" validate:"omitempty,oneof=customer mechanic"`
}

type locationFixRequest struct {
	Role           string    `json:"role"            validate:"omitempty,oneof=customer mechanic"`
	Lat            float64   `json:"lat"             validate:"latitude"`
	Lng            float64   `json:"lng"             validate:"longitude"`
	AccuracyMeters *float64  `json:"accuracy_meters" validate:"omitempty,gte=0"`
	CapturedAt     time.Time `json:"captured_at"`
	Address        string    `json:"address"`
}

// --- Response types ---

type permissionResponse struct {
	Granted bool `json:"granted"`
}

type participantLocationResponse struct {
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	CapturedAt     time.Time `json:"captured_at"`
	Address        string    `json:"address,omitempty"`
	LastUpdated    time.Time `json:"last_updated"`
}

type sessionLinks struct {
	Self   string `json:"self"`
	Stream string `json:"stream"`
}

type sessionResponse struct {
	JobID            string                       `json:"job_id"`
	SessionID        string                       `json:"session_id"`
	OwnerRole        string                       `json:"owner_role"`
	State            string                       `json:"state"`
	CustomerLocation *participantLocationResponse `json:"customer_location,omitempty"`
	MechanicLocation *participantLocationResponse `json:"mechanic_location,omitempty"`
	DistanceMeters   *float64                     `json:"distance_meters,omitempty"`
	DistanceText     string                       `json:"distance_text,omitempty"`
	EstimatedArrival *time.Time                   `json:"estimated_arrival,omitempty"`
	Arrived          bool                         `json:"arrived"`
	LastError        string                       `json:"last_error,omitempty"`
	StartedAt        time.Time                    `json:"started_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
	Links            sessionLinks                 `json:"_links"`
}

type activeSessionsResponse struct {
	Data  []sessionResponse `json:"data"`
	Count int               `json:"count"`
}

type sessionUpdateResponse struct {
	Kind    string          `json:"kind"`
	Session sessionResponse `json:"session"`
	At      time.Time       `json:"at"`
}

type acceptedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}
