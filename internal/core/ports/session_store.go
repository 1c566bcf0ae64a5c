package ports

import (
	"context"
	"time"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
)

// SessionEvent is an audit record of a session lifecycle change.
type SessionEvent struct {
	JobID     string
	SessionID string
	Kind      domain.UpdateKind
	Detail    string
	At        time.Time
}

// SessionStore persists session snapshots for consumers outside this process.
type SessionStore interface {
	Save(ctx context.Context, s *domain.TrackingSession) error
	Delete(ctx context.Context, jobID string) error
	InsertEvent(ctx context.Context, e SessionEvent) error
}

// SessionReader is implemented by stores that can read a snapshot back, including
// one written by another replica of the service.
type SessionReader interface {
	// FindByJob returns domain.ErrSessionNotFound when nothing is stored for jobID.
	FindByJob(ctx context.Context, jobID string) (*domain.TrackingSession, error)
}

// UpdatePublisher fans session changes out to interested consumers.
type UpdatePublisher interface {
	Publish(ctx context.Context, u domain.SessionUpdate) error
}
