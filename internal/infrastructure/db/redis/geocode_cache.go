package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

const defaultGeocodeTTL = 24 * time.Hour

// GeocodeCache decorates a ReverseGeocoder with a Redis cache.
// Key format: geocoding:<lat>:<lng> with five decimals (about one meter).
// Cache failures fall through to the wrapped geocoder.
type GeocodeCache struct {
	next   ports.ReverseGeocoder
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

var _ ports.ReverseGeocoder = (*GeocodeCache)(nil)

func NewGeocodeCache(next ports.ReverseGeocoder, client *redis.Client, ttl time.Duration, log zerolog.Logger) *GeocodeCache {
	if ttl <= 0 {
		ttl = defaultGeocodeTTL
	}
	return &GeocodeCache{next: next, client: client, ttl: ttl, log: log}
}

// Resolve returns the cached address for c, asking the wrapped geocoder on a miss.
// Failed lookups are not cached.
func (g *GeocodeCache) Resolve(ctx context.Context, c domain.Coordinate) (string, error) {
	key := geocodeKey(c)

	addr, err := g.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return addr, nil
	case errors.Is(err, redis.Nil):
	default:
		g.log.Warn().Err(err).Str("key", key).Msg("geocode cache read failed")
	}

	addr, err = g.next.Resolve(ctx, c)
	if err != nil {
		return "", err
	}

	if err := g.client.Set(ctx, key, addr, g.ttl).Err(); err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("geocode cache write failed")
	}
	return addr, nil
}

func geocodeKey(c domain.Coordinate) string {
	return fmt.Sprintf("geocoding:%.5f:%.5f", c.Lat, c.Lng)
}
