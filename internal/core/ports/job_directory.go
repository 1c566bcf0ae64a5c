package ports

import (
	"context"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
)

// JobDirectory looks up jobs held by the marketplace backend.
type JobDirectory interface {
	// FindJob returns domain.ErrJobNotFound when the backend has no such job.
	FindJob(ctx context.Context, jobID string) (*domain.Job, error)
}
