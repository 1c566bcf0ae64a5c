// Package stream pushes session updates to UI clients over websockets.
package stream

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

const sendBuffer = 16

// Encoder renders an update into a websocket text frame.
type Encoder func(u domain.SessionUpdate) ([]byte, error)

// Hub fans session updates out to the subscribers of each job.
// A subscriber that cannot keep up is disconnected rather than slowing the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	encode Encoder
	log    zerolog.Logger
}

var _ ports.UpdatePublisher = (*Hub)(nil)

type subscriber struct {
	jobID string
	send  chan []byte
	once  sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

func NewHub(encode Encoder, log zerolog.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		encode: encode,
		log:    log,
	}
}

// Publish delivers u to every subscriber of its job. It never blocks.
func (h *Hub) Publish(_ context.Context, u domain.SessionUpdate) error {
	jobID := u.Session.JobID

	h.mu.RLock()
	n := len(h.subs[jobID])
	h.mu.RUnlock()
	if n == 0 {
		return nil
	}

	frame, err := h.encode(u)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}

	var slow []*subscriber
	h.mu.RLock()
	for s := range h.subs[jobID] {
		select {
		case s.send <- frame:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.log.Warn().Str("job_id", jobID).Msg("stream subscriber too slow, disconnecting")
		h.unsubscribe(s)
	}
	return nil
}

// Subscribers returns the number of open subscriptions for jobID.
func (h *Hub) Subscribers(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[jobID])
}

func (h *Hub) subscribe(jobID string) *subscriber {
	s := &subscriber{jobID: jobID, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	if h.subs[jobID] == nil {
		h.subs[jobID] = make(map[*subscriber]struct{})
	}
	h.subs[jobID][s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	if set, ok := h.subs[s.jobID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.jobID)
		}
	}
	h.mu.Unlock()
	s.close()
}
