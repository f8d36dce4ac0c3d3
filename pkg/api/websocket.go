// pkg/api/websocket.go
package api

import (
	"context"
	"errors"
	"net/http"

	"form-analyzer/pkg/models"
	"form-analyzer/pkg/pipeline"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	feedbackBuffer = 32
	outboundBuffer = 64
)

type WebSocketMessage struct {
	Type      string                `json:"type"`
	SessionID string                `json:"session_id,omitempty"`
	Frame     *models.Frame         `json:"frame,omitempty"`
	Feedback  *models.FeedbackEvent `json:"feedback,omitempty"`
	Snapshot  *models.Snapshot      `json:"snapshot,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// WebSocketHandler streams frames into a session and feedback events back out.
func (h *Handlers) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	session, err := h.pipeline.Session(sessionID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	listener := uuid.New().String()
	feedback := make(chan models.FeedbackEvent, feedbackBuffer)
	session.Attach(listener, feedback)
	defer session.Detach(listener)

	out := make(chan WebSocketMessage, outboundBuffer)
	go h.writeLoop(ctx, conn, out, feedback)

	logger := h.logger.With(zap.String("session_id", sessionID), zap.String("listener", listener))
	logger.Info("WebSocket attached")

	for {
		var msg WebSocketMessage
		if err := conn.ReadJSON(&msg); err != nil {
			logger.Info("WebSocket closed", zap.Error(err))
			return
		}

		if msg.Type != "ping" {
			// The session may have been stopped here or over REST.
			if _, err := h.pipeline.Session(sessionID); err != nil {
				send(out, WebSocketMessage{Type: "error", SessionID: sessionID, Error: err.Error()})
				continue
			}
		}

		switch msg.Type {
		case "frame":
			h.handleFrame(session, &msg, out, logger)
		case "reset":
			session.Engine.ResetRepCount()
			h.sendSnapshot(session, out)
		case "stop":
			if err := h.pipeline.StopSession(sessionID); err != nil {
				send(out, WebSocketMessage{Type: "error", SessionID: sessionID, Error: err.Error()})
			}
			h.sendSnapshot(session, out)
		case "snapshot":
			h.sendSnapshot(session, out)
		case "ping":
			send(out, WebSocketMessage{Type: "pong"})
		default:
			send(out, WebSocketMessage{Type: "error", Error: "Unknown message type"})
		}
	}
}

func (h *Handlers) handleFrame(session *pipeline.Session, msg *WebSocketMessage, out chan<- WebSocketMessage, logger *zap.Logger) {
	if msg.Frame == nil {
		send(out, WebSocketMessage{Type: "error", Error: "frame is required"})
		return
	}
	if err := session.Engine.ProcessFrame(*msg.Frame); err != nil {
		if errors.Is(err, pipeline.ErrInvalidFrame) {
			send(out, WebSocketMessage{Type: "frame_rejected", SessionID: session.Info.ID, Error: err.Error()})
			return
		}
		logger.Error("Frame processing failed", zap.Error(err))
		send(out, WebSocketMessage{Type: "error", Error: err.Error()})
	}
}

func (h *Handlers) sendSnapshot(session *pipeline.Session, out chan<- WebSocketMessage) {
	snap := session.Engine.CurrentData()
	send(out, WebSocketMessage{Type: "snapshot", SessionID: session.Info.ID, Snapshot: &snap})
}

// writeLoop is the only goroutine writing to conn.
func (h *Handlers) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan WebSocketMessage, feedback <-chan models.FeedbackEvent) {
	for {
		var msg WebSocketMessage
		select {
		case <-ctx.Done():
			return
		case msg = <-out:
		case ev := <-feedback:
			msg = WebSocketMessage{Type: "feedback", Feedback: &ev}
		}
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Debug("WebSocket write failed", zap.Error(err))
			return
		}
	}
}

// send drops msg when the outbound buffer is full.
func send(out chan<- WebSocketMessage, msg WebSocketMessage) {
	select {
	case out <- msg:
	default:
	}
}
