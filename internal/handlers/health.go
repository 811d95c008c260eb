package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"jarvislive/internal/session"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	manager *session.Manager
	started time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(manager *session.Manager) *HealthHandler {
	return &HealthHandler{manager: manager, started: time.Now()}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "healthy",
		"voice_sessions": h.manager.Count(),
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}
