package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"jarvislive/internal/metrics"
	"jarvislive/internal/pipeline"
)

// VoiceHandler exposes the voice command pipeline and its observability
// accessors over HTTP.
type VoiceHandler struct {
	orchestrator *pipeline.Orchestrator
	engine       *metrics.Engine
}

// NewVoiceHandler creates a voice handler.
func NewVoiceHandler(orchestrator *pipeline.Orchestrator, engine *metrics.Engine) *VoiceHandler {
	return &VoiceHandler{orchestrator: orchestrator, engine: engine}
}

type commandRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

// HandleCommand processes one transcribed command and returns the
// processing record. The pipeline itself never fails; malformed JSON is the
// only 4xx case.
func (h *VoiceHandler) HandleCommand(c *fiber.Ctx) error {
	var req commandRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	record := h.orchestrator.ProcessVoiceCommand(c.Context(), req.Text, req.SessionID)
	return c.JSON(record)
}

// HandleHistory returns recent processing records, oldest first.
func (h *VoiceHandler) HandleHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	return c.JSON(fiber.Map{"records": h.orchestrator.History(limit)})
}

// HandlePerformance returns the latest performance snapshot.
func (h *VoiceHandler) HandlePerformance(c *fiber.Ctx) error {
	return c.JSON(h.engine.Snapshot())
}

// HandleSnapshotHistory returns the retained snapshot history.
func (h *VoiceHandler) HandleSnapshotHistory(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"snapshots": h.engine.SnapshotHistory()})
}

// HandleAlerts returns retained alerts, oldest first.
func (h *VoiceHandler) HandleAlerts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"alerts": h.engine.Alerts()})
}

// HandleRecommendations returns the current recommendation set.
func (h *VoiceHandler) HandleRecommendations(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"recommendations": h.engine.Recommendations()})
}
