package ports

import (
	"context"
	"time"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
)

// StartInput carries what is needed to begin tracking a job from one participant's device.
type StartInput struct {
	JobID string
	Role  string
}

// FixInput is a location reading in transport-neutral form.
type FixInput struct {
	Lat            float64
	Lng            float64
	AccuracyMeters *float64
	CapturedAt     time.Time
	Address        string
}

// Event sources.
const (
	SourceWatch = "watch"
	SourceAPI   = "api"
	SourceKafka = "kafka"
)

// LocationEvent is one fix or stream failure routed to the session of JobID.
// SessionID is empty for events that target whatever session is current.
type LocationEvent struct {
	JobID     string
	SessionID string
	Role      string
	Fix       *FixInput
	Err       error
	Source    string
}

// TrackingService drives tracking sessions.
type TrackingService interface {
	Start(ctx context.Context, in StartInput) (*domain.TrackingSession, error)
	Stop(ctx context.Context, jobID string) error
	Get(ctx context.Context, jobID string) (*domain.TrackingSession, error)
	ListActive(ctx context.Context) []domain.TrackingSession
	Process(ctx context.Context, ev LocationEvent) error
	RequestPermission(ctx context.Context) (bool, error)
	PermissionGranted(ctx context.Context) bool
	RevokePermission(ctx context.Context)
}
