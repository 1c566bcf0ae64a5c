package stream

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
	"github.com/mechanicapp/tracking-system/internal/core/ports"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Handler upgrades GET /v1/jobs/:job_id/tracking/stream to a websocket that
// receives every update of the job's session, starting with the current snapshot.
type Handler struct {
	hub      *Hub
	service  ports.TrackingService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewHandler(hub *Hub, service ports.TrackingService, log zerolog.Logger) *Handler {
	return &Handler{
		hub:     hub,
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Serve godoc
//
// @Summary      Stream session updates
// @Description  Websocket. Each text frame is {"kind", "session", "at"}.
// @Tags         tracking
// @Security     BearerAuth
// @Param        job_id        path   string  true   "Job id"
// @Param        access_token  query  string  false  "JWT when the Authorization header cannot be set"
// @Success      101
// @Router       /v1/jobs/{job_id}/tracking/stream [get]
func (h *Handler) Serve(c echo.Context) error {
	jobID := c.Param("job_id")

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.log.Warn().Err(err).Str("job_id", jobID).Msg("websocket upgrade failed")
		return nil
	}

	sub := h.hub.subscribe(jobID)
	log := h.log.With().Str("job_id", jobID).Logger()
	log.Debug().Msg("stream subscriber connected")

	if s, err := h.service.Get(c.Request().Context(), jobID); err == nil {
		if frame, err := h.hub.encode(domain.SessionUpdate{Kind: domain.UpdateSessionUpdated, Session: *s, At: s.UpdatedAt}); err == nil {
			select {
			case sub.send <- frame:
			default:
			}
		}
	} else if !errors.Is(err, domain.ErrSessionNotFound) {
		log.Warn().Err(err).Msg("initial snapshot failed")
	}

	go h.writeLoop(conn, sub, log)
	h.readLoop(conn)

	h.hub.unsubscribe(sub)
	log.Debug().Msg("stream subscriber disconnected")
	return nil
}

// readLoop drains client frames until the connection closes, keeping the read
// deadline alive through pongs.
func (h *Handler) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writeLoop(conn *websocket.Conn, sub *subscriber, log zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case frame, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug().Err(err).Msg("stream write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
