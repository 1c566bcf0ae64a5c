package domain

import (
	"fmt"
	"time"
)

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Validate reports ErrInvalidCoordinates when the point is outside the lat/lng domain.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v must be between -90 and 90", ErrInvalidCoordinates, c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: longitude %v must be between -180 and 180", ErrInvalidCoordinates, c.Lng)
	}
	return nil
}

// LocationFix is a single reading produced by a geolocation provider.
type LocationFix struct {
	Coordinate     Coordinate `json:"coordinate" bson:"coordinate"`
	AccuracyMeters *float64   `json:"accuracy_meters,omitempty" bson:"accuracy_meters,omitempty"`
	CapturedAt     time.Time  `json:"captured_at" bson:"captured_at"`
}

// Equal reports whether both fixes describe the same reading.
func (f LocationFix) Equal(o LocationFix) bool {
	if f.Coordinate != o.Coordinate || !f.CapturedAt.Equal(o.CapturedAt) {
		return false
	}
	switch {
	case f.AccuracyMeters == nil && o.AccuracyMeters == nil:
		return true
	case f.AccuracyMeters == nil || o.AccuracyMeters == nil:
		return false
	default:
		return *f.AccuracyMeters == *o.AccuracyMeters
	}
}

// Role identifies which side of a job a participant is on.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleMechanic Role = "mechanic"
)

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleCustomer, RoleMechanic:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Counterpart returns the other side of the job.
func (r Role) Counterpart() Role {
	if r == RoleCustomer {
		return RoleMechanic
	}
	return RoleCustomer
}

// ParticipantLocation is the last known position of one participant.
// An empty Address means the address is unknown.
type ParticipantLocation struct {
	Fix         LocationFix `json:"fix" bson:"fix"`
	Address     string      `json:"address,omitempty" bson:"address,omitempty"`
	LastUpdated time.Time   `json:"last_updated" bson:"last_updated"`
}
