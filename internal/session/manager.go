// Package session tracks live voice-session WebSocket connections. The
// realtime media transport itself is a black box; this layer only knows
// connect/disconnect and the audio-level feed.
package session

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"jarvislive/internal/metrics"
)

// Connection is one live WebSocket attached to a logical voice session.
type Connection struct {
	ConnID      string
	SessionID   string
	Conn        *websocket.Conn
	WriteChan   chan []byte
	StopChan    chan struct{}
	ConnectedAt time.Time

	mu         sync.Mutex
	audioLevel float64
}

// SetAudioLevel records the latest audio level reported by the client.
func (c *Connection) SetAudioLevel(level float64) {
	c.mu.Lock()
	c.audioLevel = level
	c.mu.Unlock()
}

// AudioLevel returns the last reported audio level.
func (c *Connection) AudioLevel() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.audioLevel
}

// Manager manages all active voice-session connections.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	instruments *metrics.Instruments
}

// NewManager creates a connection manager. Instruments may be nil.
func NewManager(instruments *metrics.Instruments) *Manager {
	return &Manager{
		connections: make(map[string]*Connection),
		instruments: instruments,
	}
}

// Add registers a new connection.
func (m *Manager) Add(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn.ConnID] = conn
	if m.instruments != nil {
		m.instruments.ActiveSessions.Inc()
	}
	log.Printf("✅ Voice connection added: %s session=%s (total: %d)", conn.ConnID, conn.SessionID, len(m.connections))
}

// Remove unregisters a connection and closes its channels.
func (m *Manager) Remove(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conn, exists := m.connections[connID]; exists {
		close(conn.WriteChan)
		close(conn.StopChan)
		delete(m.connections, connID)
		if m.instruments != nil {
			m.instruments.ActiveSessions.Dec()
		}
		log.Printf("❌ Voice connection removed: %s (total: %d)", connID, len(m.connections))
	}
}

// Get retrieves a connection by ID.
func (m *Manager) Get(connID string) (*Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, exists := m.connections[connID]
	return conn, exists
}

// Count returns the number of active connections.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// responseFrame is the wire shape delivered to session clients.
type responseFrame struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Complete bool   `json:"complete"`
}

// Deliver implements the pipeline's activity sink: the final response text
// plus a completion flag, pushed to every connection of the session. A
// session with no live connections is not an error; the HTTP caller already
// has the record.
func (m *Manager) Deliver(sessionID, text string, complete bool) {
	payload, err := json.Marshal(responseFrame{Type: "response", Text: text, Complete: complete})
	if err != nil {
		log.Printf("⚠️  Failed to encode response frame: %v", err)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, conn := range m.connections {
		if conn.SessionID != sessionID {
			continue
		}
		select {
		case conn.WriteChan <- payload:
		default:
			log.Printf("⚠️  Write channel full for connection %s, dropping frame", conn.ConnID)
		}
	}
}
