package ports

import (
	"context"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
)

// FixSource identifies the device stream of one participant of a job.
type FixSource struct {
	JobID string
	Role  domain.Role
}

// GeolocationProvider yields position fixes for a participant.
type GeolocationProvider interface {
	// CurrentFix returns a single fix, failing once ctx expires.
	CurrentFix(ctx context.Context, src FixSource) (domain.LocationFix, error)
	// Watch subscribes to the continuous fix stream. Callbacks run on a provider
	// goroutine until CancelWatch is called with the returned handle.
	Watch(src FixSource, onFix func(domain.LocationFix), onError func(error)) (domain.WatchHandle, error)
	// CancelWatch stops a subscription. Unknown or already cancelled handles are ignored.
	CancelWatch(handle domain.WatchHandle)
}

// PermissionPrompter asks the platform for a location permission grant.
type PermissionPrompter interface {
	Prompt(ctx context.Context) (bool, error)
}
