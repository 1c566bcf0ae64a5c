package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

// InsertEvent appends a lifecycle entry to the tracking_events audit collection.
func (r *SessionRepository) InsertEvent(ctx context.Context, e ports.SessionEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"job_id":       e.JobID,
		"session_id":   e.SessionID,
		"kind":         string(e.Kind),
		"at":           e.At.UTC(),
		"processed_at": time.Now().UTC(),
	}
	if e.Detail != "" {
		doc["detail"] = e.Detail
	}

	if _, err := r.events.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}
	return nil
}
