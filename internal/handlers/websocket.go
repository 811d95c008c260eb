package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"jarvislive/internal/pipeline"
	"jarvislive/internal/session"
)

// clientFrame is a message from the voice client. Transcript frames run the
// pipeline; audio_level frames only update session state.
type clientFrame struct {
	Type  string  `json:"type"` // "transcript" or "audio_level"
	Text  string  `json:"text,omitempty"`
	Level float64 `json:"level,omitempty"`
}

// WebSocketHandler handles realtime voice-session connections.
type WebSocketHandler struct {
	manager      *session.Manager
	orchestrator *pipeline.Orchestrator
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(manager *session.Manager, orchestrator *pipeline.Orchestrator) *WebSocketHandler {
	return &WebSocketHandler{manager: manager, orchestrator: orchestrator}
}

// Handle runs one connection: a writer goroutine drains the connection's
// write channel while the read loop dispatches client frames.
func (h *WebSocketHandler) Handle(c *websocket.Conn) {
	connID := uuid.New().String()
	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	conn := &session.Connection{
		ConnID:      connID,
		SessionID:   sessionID,
		Conn:        c,
		WriteChan:   make(chan []byte, 64),
		StopChan:    make(chan struct{}),
		ConnectedAt: time.Now(),
	}
	h.manager.Add(conn)
	defer h.manager.Remove(connID)

	go h.writeLoop(conn)

	// Confirm the session so the client knows its ID.
	hello, _ := json.Marshal(map[string]string{"type": "connected", "session_id": sessionID})
	conn.WriteChan <- hello

	for {
		_, payload, err := c.ReadMessage()
		if err != nil {
			log.Printf("🔌 Voice connection %s closed: %v", connID, err)
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			log.Printf("⚠️  Ignoring malformed frame on %s: %v", connID, err)
			continue
		}

		switch frame.Type {
		case "transcript":
			// The pipeline delivers the response through the session
			// manager; nothing to send from here.
			go h.orchestrator.ProcessVoiceCommand(context.Background(), frame.Text, sessionID)
		case "audio_level":
			conn.SetAudioLevel(frame.Level)
		default:
			log.Printf("⚠️  Unknown frame type %q on %s", frame.Type, connID)
		}
	}
}

func (h *WebSocketHandler) writeLoop(conn *session.Connection) {
	for {
		select {
		case <-conn.StopChan:
			return
		case payload, ok := <-conn.WriteChan:
			if !ok {
				return
			}
			if err := conn.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("⚠️  Write failed on %s: %v", conn.ConnID, err)
				return
			}
		}
	}
}
