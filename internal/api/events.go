package api

import (
	"context"
	"net/http"
	"time"

	"veo-console/internal/presentation"
	"veo-console/internal/validation"
	"veo-console/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Types de messages échangés sur le flux d'événements
const (
	messageSnapshot = "snapshot"
	messageMount    = "mount"
	messageUnmount  = "unmount"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// outgoingMessage est envoyé au navigateur
type outgoingMessage struct {
	Type string                 `json:"type"`
	Job  *presentation.JobView  `json:"job,omitempty"`
	Jobs []presentation.JobView `json:"jobs,omitempty"`
}

// incomingMessage est reçu du navigateur: montage/démontage d'une carte
type incomingMessage struct {
	Type  string `json:"type"`
	JobID string `json:"job_id"`
}

// Events ouvre le flux WebSocket de la session. La déconnexion ferme la
// session et arrête ses pollers.
// @Summary Session event feed
// @Description WebSocket feed: a snapshot of the job list, then job_created and job_status events. Clients may send {"type":"mount"|"unmount","job_id":...}.
// @Tags Sessions
// @Param session_id path string true "Session ID"
// @Success 101
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/sessions/{session_id}/events [get]
func (h *Handlers) Events(c *gin.Context) {
	sessionID := c.GetString(validation.ValidatedSessionID)

	events, unsubscribe, err := h.jobService.Subscribe(c.Request.Context(), sessionID)
	if err != nil {
		h.respondJobError(c, err)
		return
	}

	snapshot, err := h.jobService.ListJobs(c.Request.Context(), sessionID)
	if err != nil {
		unsubscribe()
		h.respondJobError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		unsubscribe()
		h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("websocket upgrade failed")
		return
	}

	logger := h.logger.With().Str("session_id", sessionID).Logger()
	logger.Info().Msg("event feed connected")

	first := outgoingMessage{Type: messageSnapshot, Jobs: presentation.NewJobViews(snapshot)}
	go writePump(conn, first, events, logger)

	h.readPump(conn, sessionID, logger)

	unsubscribe()
	if err := h.jobService.CloseSession(context.Background(), sessionID); err != nil {
		logger.Debug().Err(err).Msg("session already closed")
	}
	logger.Info().Msg("event feed disconnected")
}

// readPump lit les messages du navigateur jusqu'à la déconnexion
func (h *Handlers) readPump(conn *websocket.Conn, sessionID string, logger zerolog.Logger) {
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var message incomingMessage
		if err := conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		ctx := context.Background()
		switch message.Type {
		case messageMount:
			if _, err := h.jobService.Mount(ctx, sessionID, message.JobID); err != nil {
				logger.Debug().Err(err).Str("job_id", message.JobID).Msg("mount ignored")
			}
		case messageUnmount:
			if _, err := h.jobService.Unmount(ctx, sessionID, message.JobID); err != nil {
				logger.Debug().Err(err).Str("job_id", message.JobID).Msg("unmount ignored")
			}
		default:
			logger.Debug().Str("type", message.Type).Msg("unknown message type")
		}
	}
}

// writePump est le seul écrivain de la connexion
func writePump(conn *websocket.Conn, first outgoingMessage, events <-chan models.JobEvent, logger zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	write := func(message outgoingMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(message); err != nil {
			logger.Debug().Err(err).Msg("websocket write error")
			return false
		}
		return true
	}

	if !write(first) {
		return
	}

	for {
		select {
		case event, ok := <-events:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			view := presentation.NewJobView(&event.Job)
			if !write(outgoingMessage{Type: event.Type, Job: &view}) {
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
