package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

// --- Mocks ---

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error { return nil }

type MockReader struct {
	mock.Mock
}

func (m *MockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	args := m.Called(ctx)
	return args.Get(0).(kafka.Message), args.Error(1)
}

func (m *MockReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockReader) Close() error { return nil }

type captureQueue struct {
	mu     sync.Mutex
	events []ports.LocationEvent
}

func (q *captureQueue) Enqueue(ev ports.LocationEvent) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

// --- Publisher ---

func TestUpdatePublisher_KeysByJob(t *testing.T) {
	w := new(MockWriter)
	p := NewUpdatePublisher(w, "location-updates", zerolog.Nop())

	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	d := 4200.0
	session := domain.NewTrackingSession("session-1", "job-7", domain.RoleMechanic, now)
	session.DistanceMeters = &d

	w.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 {
			return false
		}
		m := msgs[0]
		var body map[string]any
		if err := json.Unmarshal(m.Value, &body); err != nil {
			return false
		}
		return m.Topic == "location-updates" &&
			string(m.Key) == "job-7" &&
			body["kind"] == "session_updated" &&
			body["distance_text"] == "4.2km" &&
			body["session_id"] == "session-1"
	})).Return(nil).Once()

	err := p.Publish(context.Background(), domain.SessionUpdate{Kind: domain.UpdateSessionUpdated, Session: *session, At: now})
	require.NoError(t, err)
	w.AssertExpectations(t)
}

func TestUpdatePublisher_WriteError(t *testing.T) {
	w := new(MockWriter)
	p := NewUpdatePublisher(w, "location-updates", zerolog.Nop())
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	err := p.Publish(context.Background(), domain.SessionUpdate{Kind: domain.UpdateSessionStopped})
	assert.Error(t, err)
}

// --- Consumer ---

func TestFixConsumer_EnqueuesAndCommits(t *testing.T) {
	r := new(MockReader)
	q := &captureQueue{}
	c := NewFixConsumer(r, q, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	good := kafka.Message{Offset: 1, Value: []byte(`{"job_id":"job-1","role":"mechanic","lat":19.45,"lng":-99.15,"captured_at":"2025-05-10T12:00:00Z"}`)}
	bad := kafka.Message{Offset: 2, Value: []byte(`not json`)}

	r.On("FetchMessage", mock.Anything).Return(good, nil).Once()
	r.On("FetchMessage", mock.Anything).Return(bad, nil).Once()
	r.On("FetchMessage", mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(kafka.Message{}, context.Canceled)
	r.On("CommitMessages", mock.Anything, mock.Anything).Return(nil)

	done := make(chan struct{})
	go func() { c.Run(ctx); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}

	require.Len(t, q.events, 1)
	ev := q.events[0]
	assert.Equal(t, "job-1", ev.JobID)
	assert.Equal(t, "mechanic", ev.Role)
	assert.Equal(t, ports.SourceKafka, ev.Source)
	assert.Equal(t, 19.45, ev.Fix.Lat)
	r.AssertNumberOfCalls(t, "CommitMessages", 2)
}
