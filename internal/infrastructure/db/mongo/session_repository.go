package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

const (
	collectionSessions = "tracking_sessions"
	collectionEvents   = "tracking_events"
)

// SessionRepository implements ports.SessionStore. Snapshots are keyed by job id so
// there is at most one document per job, mirroring the in-memory registry.
type SessionRepository struct {
	sessions *mongo.Collection
	events   *mongo.Collection
}

var (
	_ ports.SessionStore  = (*SessionRepository)(nil)
	_ ports.SessionReader = (*SessionRepository)(nil)
)

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{
		sessions: db.Collection(collectionSessions),
		events:   db.Collection(collectionEvents),
	}
}

// Save upserts the session snapshot for its job.
func (r *SessionRepository) Save(ctx context.Context, s *domain.TrackingSession) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.sessions.ReplaceOne(ctx, bson.M{"_id": s.JobID}, s, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save session %q: %w", s.JobID, err)
	}
	return nil
}

// Delete removes the snapshot of jobID. Missing documents are not an error.
func (r *SessionRepository) Delete(ctx context.Context, jobID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.sessions.DeleteOne(ctx, bson.M{"_id": jobID}); err != nil {
		return fmt.Errorf("delete session %q: %w", jobID, err)
	}
	return nil
}

// FindByJob returns the stored snapshot of jobID, as written by any replica.
func (r *SessionRepository) FindByJob(ctx context.Context, jobID string) (*domain.TrackingSession, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.TrackingSession
	err := r.sessions.FindOne(ctx, bson.M{"_id": jobID}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// EnsureIndexes creates the indexes used by dashboards reading both collections.
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := r.sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "state", Value: 1}, {Key: "updated_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("tracking_sessions indexes: %w", err)
	}

	_, err := r.events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "job_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "session_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("tracking_events indexes: %w", err)
	}
	return nil
}
