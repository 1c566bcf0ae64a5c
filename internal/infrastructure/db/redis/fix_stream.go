package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

const (
	lastFixTTL   = 10 * time.Minute
	positionsKey = "tracking:positions"
)

// FixMessage is the payload devices publish on fixes:<job_id>:<role>.
// A non-empty Error reports a device-side failure and ends the stream.
type FixMessage struct {
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	CapturedAt     time.Time `json:"captured_at"`
	Error          string    `json:"error,omitempty"`
}

func (m FixMessage) fix() domain.LocationFix {
	return domain.LocationFix{
		Coordinate:     domain.Coordinate{Lat: m.Lat, Lng: m.Lng},
		AccuracyMeters: m.AccuracyMeters,
		CapturedAt:     m.CapturedAt.UTC(),
	}
}

// FixStream is a ports.GeolocationProvider fed by devices through Redis.
// The latest fix of each participant is kept at fix:last:<job_id>:<role> and every
// fix is published on fixes:<job_id>:<role>.
type FixStream struct {
	client *redis.Client
	log    zerolog.Logger

	mu      sync.Mutex
	watches map[domain.WatchHandle]*watch
}

type watch struct {
	cancel context.CancelFunc
	sub    *redis.PubSub
}

var _ ports.GeolocationProvider = (*FixStream)(nil)

func NewFixStream(client *redis.Client, log zerolog.Logger) *FixStream {
	return &FixStream{
		client:  client,
		log:     log,
		watches: make(map[domain.WatchHandle]*watch),
	}
}

// CurrentFix returns the latest stored fix, or waits for the next published one until
// ctx expires.
func (s *FixStream) CurrentFix(ctx context.Context, src ports.FixSource) (domain.LocationFix, error) {
	sub := s.client.Subscribe(ctx, channelName(src))
	defer sub.Close()

	// Subscribed before reading the key so a fix published in between is not missed.
	if _, err := sub.Receive(ctx); err != nil {
		return domain.LocationFix{}, fmt.Errorf("subscribe %s: %w", channelName(src), err)
	}

	raw, err := s.client.Get(ctx, lastFixKey(src)).Bytes()
	switch {
	case err == nil:
		return decodeFix(raw)
	case !errors.Is(err, redis.Nil):
		return domain.LocationFix{}, fmt.Errorf("read last fix: %w", err)
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		return domain.LocationFix{}, fmt.Errorf("wait for fix: %w", err)
	}
	return decodeFix([]byte(msg.Payload))
}

// Watch subscribes to the participant's channel and calls onFix for every fix until the
// handle is cancelled. A device error or a lost connection calls onError once and ends
// the subscription.
func (s *FixStream) Watch(src ports.FixSource, onFix func(domain.LocationFix), onError func(error)) (domain.WatchHandle, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := s.client.Subscribe(ctx, channelName(src))
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		_ = sub.Close()
		return "", fmt.Errorf("subscribe %s: %w", channelName(src), err)
	}

	handle := domain.WatchHandle(uuid.NewString())
	s.mu.Lock()
	s.watches[handle] = &watch{cancel: cancel, sub: sub}
	s.mu.Unlock()

	log := s.log.With().Str("job_id", src.JobID).Str("role", string(src.Role)).Str("watch", string(handle)).Logger()
	go s.run(ctx, sub, handle, onFix, onError, log)

	log.Debug().Msg("fix stream subscribed")
	return handle, nil
}

func (s *FixStream) run(ctx context.Context, sub *redis.PubSub, handle domain.WatchHandle, onFix func(domain.LocationFix), onError func(error), log zerolog.Logger) {
	for {
		msg, err := sub.ReceiveMessage(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn().Err(err).Msg("fix stream lost")
			s.release(handle)
			onError(err)
			return
		}

		var m FixMessage
		if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
			log.Warn().Err(err).Msg("malformed fix skipped")
			continue
		}
		if m.Error != "" {
			s.release(handle)
			onError(errors.New(m.Error))
			return
		}
		onFix(m.fix())
	}
}

// CancelWatch ends the subscription behind h. Unknown handles are ignored.
func (s *FixStream) CancelWatch(h domain.WatchHandle) {
	if s.release(h) {
		s.log.Debug().Str("watch", string(h)).Msg("fix stream cancelled")
	}
}

func (s *FixStream) release(h domain.WatchHandle) bool {
	s.mu.Lock()
	w, ok := s.watches[h]
	delete(s.watches, h)
	s.mu.Unlock()
	if !ok {
		return false
	}
	w.cancel()
	_ = w.sub.Close()
	return true
}

// Close cancels every open watch.
func (s *FixStream) Close() {
	s.mu.Lock()
	handles := make([]domain.WatchHandle, 0, len(s.watches))
	for h := range s.watches {
		handles = append(handles, h)
	}
	s.mu.Unlock()
	for _, h := range handles {
		s.release(h)
	}
}

// Publish stores m as the latest reading of src and fans it out to watchers. It is the
// device-side half of the stream.
func (s *FixStream) Publish(ctx context.Context, src ports.FixSource, m FixMessage) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode fix: %w", err)
	}

	pipe := s.client.Pipeline()
	if m.Error == "" {
		pipe.Set(ctx, lastFixKey(src), payload, lastFixTTL)
		pipe.GeoAdd(ctx, positionsKey, &redis.GeoLocation{
			Name:      src.JobID + ":" + string(src.Role),
			Longitude: m.Lng,
			Latitude:  m.Lat,
		})
	}
	pipe.Publish(ctx, channelName(src), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish fix: %w", err)
	}
	return nil
}

func decodeFix(raw []byte) (domain.LocationFix, error) {
	var m FixMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return domain.LocationFix{}, fmt.Errorf("decode fix: %w", err)
	}
	if m.Error != "" {
		return domain.LocationFix{}, errors.New(m.Error)
	}
	return m.fix(), nil
}

func channelName(src ports.FixSource) string {
	return fmt.Sprintf("fixes:%s:%s", src.JobID, src.Role)
}

func lastFixKey(src ports.FixSource) string {
	return fmt.Sprintf("fix:last:%s:%s", src.JobID, src.Role)
}
