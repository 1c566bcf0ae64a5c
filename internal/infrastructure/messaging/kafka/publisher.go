package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// UpdatePublisher emits every session change on a topic keyed by job id, so that
// consumers see the updates of one job in order.
type UpdatePublisher struct {
	writer MessageWriter
	topic  string
	log    zerolog.Logger
}

var _ ports.UpdatePublisher = (*UpdatePublisher)(nil)

// NewWriter returns an async writer hashing keys to partitions.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		BatchSize:    1024,
		Async:        true,
		BatchTimeout: 10 * time.Millisecond,
	}
}

func NewUpdatePublisher(writer MessageWriter, topic string, log zerolog.Logger) *UpdatePublisher {
	return &UpdatePublisher{writer: writer, topic: topic, log: log}
}

// updateMessage is the wire form of a session change.
type updateMessage struct {
	Kind             domain.UpdateKind           `json:"kind"`
	JobID            string                      `json:"job_id"`
	SessionID        string                      `json:"session_id"`
	State            domain.SessionState         `json:"state"`
	Customer         *domain.ParticipantLocation `json:"customer_location,omitempty"`
	Mechanic         *domain.ParticipantLocation `json:"mechanic_location,omitempty"`
	DistanceMeters   *float64                    `json:"distance_meters,omitempty"`
	DistanceText     string                      `json:"distance_text,omitempty"`
	EstimatedArrival *time.Time                  `json:"estimated_arrival,omitempty"`
	LastError        string                      `json:"last_error,omitempty"`
	At               time.Time                   `json:"at"`
}

// Publish writes u to the topic.
func (p *UpdatePublisher) Publish(ctx context.Context, u domain.SessionUpdate) error {
	s := u.Session
	msg := updateMessage{
		Kind:             u.Kind,
		JobID:            s.JobID,
		SessionID:        s.ID,
		State:            s.State,
		Customer:         s.Customer,
		Mechanic:         s.Mechanic,
		DistanceMeters:   s.DistanceMeters,
		EstimatedArrival: s.EstimatedArrival,
		LastError:        s.LastError,
		At:               u.At,
	}
	if s.DistanceMeters != nil {
		msg.DistanceText = domain.FormatDistance(*s.DistanceMeters)
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode session update: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(s.JobID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(u.Kind)},
		},
	})
	if err != nil {
		p.log.Error().Err(err).Str("topic", p.topic).Str("job_id", s.JobID).Msg("failed to publish session update")
		return fmt.Errorf("publish session update: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *UpdatePublisher) Close() error {
	return p.writer.Close()
}
