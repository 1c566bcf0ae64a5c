package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

var testNow = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

func jsonEncoder(u domain.SessionUpdate) ([]byte, error) {
	return json.Marshal(u)
}

func update(jobID string, kind domain.UpdateKind) domain.SessionUpdate {
	return domain.SessionUpdate{
		Kind:    kind,
		Session: *domain.NewTrackingSession("session-1", jobID, domain.RoleMechanic, testNow),
		At:      testNow,
	}
}

func TestHub_PublishFansOutPerJob(t *testing.T) {
	hub := NewHub(jsonEncoder, zerolog.Nop())
	a := hub.subscribe("job-1")
	b := hub.subscribe("job-1")
	other := hub.subscribe("job-2")

	require.NoError(t, hub.Publish(context.Background(), update("job-1", domain.UpdateSessionUpdated)))

	for _, s := range []*subscriber{a, b} {
		select {
		case frame := <-s.send:
			assert.Contains(t, string(frame), `"kind":"session_updated"`)
		default:
			t.Fatal("expected a frame")
		}
	}
	assert.Empty(t, other.send)
	assert.Equal(t, 2, hub.Subscribers("job-1"))
}

func TestHub_PublishWithoutSubscribersSkipsEncoding(t *testing.T) {
	hub := NewHub(func(domain.SessionUpdate) ([]byte, error) {
		t.Fatal("encoder must not run")
		return nil, nil
	}, zerolog.Nop())

	assert.NoError(t, hub.Publish(context.Background(), update("job-1", domain.UpdateSessionStopped)))
}

func TestHub_EncodeError(t *testing.T) {
	hub := NewHub(func(domain.SessionUpdate) ([]byte, error) {
		return nil, errors.New("boom")
	}, zerolog.Nop())
	hub.subscribe("job-1")

	assert.Error(t, hub.Publish(context.Background(), update("job-1", domain.UpdateSessionUpdated)))
}

func TestHub_SlowSubscriberIsDisconnected(t *testing.T) {
	hub := NewHub(jsonEncoder, zerolog.Nop())
	slow := hub.subscribe("job-1")

	for i := 0; i <= sendBuffer; i++ {
		require.NoError(t, hub.Publish(context.Background(), update("job-1", domain.UpdateSessionUpdated)))
	}

	assert.Equal(t, 0, hub.Subscribers("job-1"))
	n := 0
	for range slow.send {
		n++
	}
	assert.Equal(t, sendBuffer, n, "buffered frames are still drained before the close")
}

func TestHub_UnsubscribeTwice(t *testing.T) {
	hub := NewHub(jsonEncoder, zerolog.Nop())
	s := hub.subscribe("job-1")

	hub.unsubscribe(s)
	hub.unsubscribe(s)

	_, open := <-s.send
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers("job-1"))
}

type stubSessions struct {
	ports.TrackingService
	session *domain.TrackingSession
}

func (s stubSessions) Get(context.Context, string) (*domain.TrackingSession, error) {
	if s.session == nil {
		return nil, domain.ErrSessionNotFound
	}
	return s.session, nil
}

func dialStream(t *testing.T, hub *Hub, svc ports.TrackingService) *websocket.Conn {
	t.Helper()
	e := echo.New()
	e.GET("/v1/jobs/:job_id/tracking/stream", NewHandler(hub, svc, zerolog.Nop()).Serve)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/jobs/job-1/tracking/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readUpdate(t *testing.T, conn *websocket.Conn) domain.SessionUpdate {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var u domain.SessionUpdate
	require.NoError(t, json.Unmarshal(raw, &u))
	return u
}

func TestHandler_SnapshotThenUpdates(t *testing.T) {
	hub := NewHub(jsonEncoder, zerolog.Nop())
	current := domain.NewTrackingSession("session-1", "job-1", domain.RoleCustomer, testNow)
	conn := dialStream(t, hub, stubSessions{session: current})

	snap := readUpdate(t, conn)
	assert.Equal(t, domain.UpdateSessionUpdated, snap.Kind)
	assert.Equal(t, "session-1", snap.Session.ID)

	require.NoError(t, hub.Publish(context.Background(), update("job-1", domain.UpdateSessionStopped)))
	assert.Equal(t, domain.UpdateSessionStopped, readUpdate(t, conn).Kind)
}

func TestHandler_NoSessionYet(t *testing.T) {
	hub := NewHub(jsonEncoder, zerolog.Nop())
	conn := dialStream(t, hub, stubSessions{})

	require.Eventually(t, func() bool { return hub.Subscribers("job-1") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), update("job-1", domain.UpdateSessionUpdated)))
	assert.Equal(t, "job-1", readUpdate(t, conn).Session.JobID)
}

func TestHandler_ClientCloseUnsubscribes(t *testing.T) {
	hub := NewHub(jsonEncoder, zerolog.Nop())
	conn := dialStream(t, hub, stubSessions{})
	require.Eventually(t, func() bool { return hub.Subscribers("job-1") == 1 }, 2*time.Second, 10*time.Millisecond)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	assert.Eventually(t, func() bool { return hub.Subscribers("job-1") == 0 }, 2*time.Second, 10*time.Millisecond)
}
