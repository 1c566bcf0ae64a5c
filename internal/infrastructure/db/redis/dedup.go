package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupTTL = 24 * time.Hour

// DedupChecker provides idempotency checks for location fixes backed by Redis.
// Key format: dedup:fix:<session_id>:<role>:<captured_at_unix_nanos>
type DedupChecker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client. A zero ttl
// falls back to 24h.
func NewDedupChecker(client *redis.Client, ttl time.Duration) *DedupChecker {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &DedupChecker{client: client, ttl: ttl}
}

// IsDuplicate reports whether this exact fix has already been applied to the session.
func (d *DedupChecker) IsDuplicate(ctx context.Context, sessionID, role string, capturedAt time.Time) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(sessionID, role, capturedAt)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this fix has been applied (expires after the configured ttl).
func (d *DedupChecker) Mark(ctx context.Context, sessionID, role string, capturedAt time.Time) error {
	if err := d.client.Set(ctx, d.key(sessionID, role, capturedAt), "1", d.ttl).Err(); err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}

func (d *DedupChecker) key(sessionID, role string, capturedAt time.Time) string {
	return fmt.Sprintf("dedup:fix:%s:%s:%d", sessionID, role, capturedAt.UnixNano())
}
