package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithRequest returns a logger with voice-request context fields attached.
// Use this for all logging within a single pipeline run.
func WithRequest(requestID, sessionID string) *slog.Logger {
	return slog.With(
		"request_id", requestID,
		"session_id", sessionID,
	)
}

// WithIntent returns a logger scoped to a resolved intent within a request.
func WithIntent(logger *slog.Logger, intent string, confidence float64) *slog.Logger {
	return logger.With(
		"intent", intent,
		"confidence", confidence,
	)
}
