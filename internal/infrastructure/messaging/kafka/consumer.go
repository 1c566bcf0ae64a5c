package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventQueue receives decoded location events.
type EventQueue interface {
	Enqueue(ev ports.LocationEvent)
}

// NewReader returns a consumer-group reader for the device fix topic.
func NewReader(brokers []string, groupID, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
}

// fixMessage is what devices that cannot hold a Redis connection send through Kafka.
type fixMessage struct {
	JobID          string    `json:"job_id"`
	Role           string    `json:"role"`
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	CapturedAt     time.Time `json:"captured_at"`
	Address        string    `json:"address,omitempty"`
}

// FixConsumer feeds device fixes from a topic into the location event queue.
type FixConsumer struct {
	reader MessageReader
	queue  EventQueue
	log    zerolog.Logger
}

func NewFixConsumer(reader MessageReader, queue EventQueue, log zerolog.Logger) *FixConsumer {
	return &FixConsumer{reader: reader, queue: queue, log: log}
}

// Run consumes until ctx is cancelled. Malformed messages are committed and skipped.
func (c *FixConsumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			c.log.Error().Err(err).Msg("fetch device fix failed")
			continue
		}

		var m fixMessage
		if err := json.Unmarshal(msg.Value, &m); err != nil || m.JobID == "" {
			c.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("malformed device fix skipped")
		} else {
			c.queue.Enqueue(ports.LocationEvent{
				JobID: m.JobID,
				Role:  m.Role,
				Fix: &ports.FixInput{
					Lat:            m.Lat,
					Lng:            m.Lng,
					AccuracyMeters: m.AccuracyMeters,
					CapturedAt:     m.CapturedAt,
					Address:        m.Address,
				},
				Source: ports.SourceKafka,
			})
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error().Err(err).Int64("offset", msg.Offset).Msg("commit device fix failed")
		}
	}
}

// Close closes the underlying reader.
func (c *FixConsumer) Close() error {
	return c.reader.Close()
}
