package ports

import (
	"context"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
)

// ReverseGeocoder maps a coordinate to a human-readable address.
type ReverseGeocoder interface {
	Resolve(ctx context.Context, c domain.Coordinate) (string, error)
}
