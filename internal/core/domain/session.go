package domain

import "time"

// SessionState is the lifecycle state of a tracking session.
type SessionState string

const (
	SessionActive   SessionState = "active"
	SessionInactive SessionState = "inactive"
)

// WatchHandle identifies a subscription to a provider's continuous fix stream.
type WatchHandle string

// TrackingSession pairs the customer and mechanic locations of one job.
//
// DistanceMeters is set if and only if both participant locations are known and is
// always derived from the current fixes; EstimatedArrival follows DistanceMeters.
type TrackingSession struct {
	ID               string               `json:"id" bson:"session_id"`
	JobID            string               `json:"job_id" bson:"_id"`
	OwnerRole        Role                 `json:"owner_role" bson:"owner_role"`
	Customer         *ParticipantLocation `json:"customer_location,omitempty" bson:"customer_location,omitempty"`
	Mechanic         *ParticipantLocation `json:"mechanic_location,omitempty" bson:"mechanic_location,omitempty"`
	DistanceMeters   *float64             `json:"distance_meters,omitempty" bson:"distance_meters,omitempty"`
	EstimatedArrival *time.Time           `json:"estimated_arrival,omitempty" bson:"estimated_arrival,omitempty"`
	Arrived          bool                 `json:"arrived" bson:"arrived"`
	State            SessionState         `json:"state" bson:"state"`
	WatchHandle      WatchHandle          `json:"-" bson:"-"`
	LastError        string               `json:"last_error,omitempty" bson:"last_error,omitempty"`
	StartedAt        time.Time            `json:"started_at" bson:"started_at"`
	UpdatedAt        time.Time            `json:"updated_at" bson:"updated_at"`
}

// NewTrackingSession returns an active session with no known locations.
func NewTrackingSession(id, jobID string, owner Role, now time.Time) *TrackingSession {
	return &TrackingSession{
		ID:        id,
		JobID:     jobID,
		OwnerRole: owner,
		State:     SessionActive,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// IsActive reports whether the session is still receiving fixes.
func (s *TrackingSession) IsActive() bool {
	return s.State == SessionActive
}

// Location returns the participant location for role, or nil when unknown.
func (s *TrackingSession) Location(role Role) *ParticipantLocation {
	if role == RoleCustomer {
		return s.Customer
	}
	return s.Mechanic
}

// ApplyFix overwrites the participant location for role and recomputes distance and
// arrival. Re-applying the fix already stored for role changes nothing and returns false.
// The participant's LastUpdated is the capture time of the fix, not now.
func (s *TrackingSession) ApplyFix(role Role, fix LocationFix, address string, now time.Time, speedKmh float64) bool {
	if cur := s.Location(role); cur != nil && cur.Fix.Equal(fix) {
		return false
	}

	loc := &ParticipantLocation{Fix: fix, Address: address, LastUpdated: fix.CapturedAt}
	if role == RoleCustomer {
		s.Customer = loc
	} else {
		s.Mechanic = loc
	}

	s.UpdatedAt = now
	s.recompute(now, speedKmh)
	return true
}

// Fail moves the session to inactive and records the cause.
func (s *TrackingSession) Fail(cause string, now time.Time) {
	s.State = SessionInactive
	s.LastError = cause
	s.WatchHandle = ""
	s.UpdatedAt = now
}

func (s *TrackingSession) recompute(now time.Time, speedKmh float64) {
	if s.Customer == nil || s.Mechanic == nil {
		s.DistanceMeters = nil
		s.EstimatedArrival = nil
		return
	}

	d := Distance(s.Customer.Fix.Coordinate, s.Mechanic.Fix.Coordinate)
	eta := EstimateArrival(d, speedKmh, now)
	s.DistanceMeters = &d
	s.EstimatedArrival = &eta
}

// WithinArrivalRadius reports whether both participants are known and at most
// radiusMeters apart. A non-positive radius never matches.
func (s *TrackingSession) WithinArrivalRadius(radiusMeters float64) bool {
	if s.Customer == nil || s.Mechanic == nil || radiusMeters <= 0 {
		return false
	}
	return WithinRadius(s.Customer.Fix.Coordinate, s.Mechanic.Fix.Coordinate, radiusMeters)
}

// Clone returns a deep copy safe to hand out of the registry.
func (s *TrackingSession) Clone() *TrackingSession {
	c := *s
	c.Customer = cloneLocation(s.Customer)
	c.Mechanic = cloneLocation(s.Mechanic)
	if s.DistanceMeters != nil {
		d := *s.DistanceMeters
		c.DistanceMeters = &d
	}
	if s.EstimatedArrival != nil {
		t := *s.EstimatedArrival
		c.EstimatedArrival = &t
	}
	return &c
}

func cloneLocation(l *ParticipantLocation) *ParticipantLocation {
	if l == nil {
		return nil
	}
	c := *l
	if l.Fix.AccuracyMeters != nil {
		a := *l.Fix.AccuracyMeters
		c.Fix.AccuracyMeters = &a
	}
	return &c
}
