package domain

import "time"

// UpdateKind classifies a published session change.
type UpdateKind string

const (
	UpdateSessionUpdated UpdateKind = "session_updated"
	UpdateSessionStopped UpdateKind = "session_stopped"
	UpdateSessionFailed  UpdateKind = "session_failed"
)

// SessionUpdate is emitted to publishers whenever a session changes.
type SessionUpdate struct {
	Kind    UpdateKind      `json:"kind"`
	Session TrackingSession `json:"session"`
	At      time.Time       `json:"at"`
}
