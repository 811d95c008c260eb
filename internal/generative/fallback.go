// Package generative defines the fallback response interface and a template
// implementation. The contract is strict: Generate must not fail and always
// returns non-empty text.
package generative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jarvislive/internal/models"
)

// Fallback produces a response when capability execution is unavailable or
// has failed. Implementations must always return usable text.
type Fallback interface {
	Generate(ctx context.Context, text string, classification *models.ClassificationResult) string
}

// TemplateFallback renders a canned, intent-aware response. It is the
// built-in implementation used when no generative backend is configured.
type TemplateFallback struct{}

// NewTemplateFallback creates the built-in fallback.
func NewTemplateFallback() *TemplateFallback {
	return &TemplateFallback{}
}

// Generate implements Fallback. It never returns an empty string.
func (t *TemplateFallback) Generate(ctx context.Context, text string, classification *models.ClassificationResult) string {
	if classification == nil {
		return "I heard you, but I couldn't work out what you need. Could you rephrase that?"
	}

	switch classification.Intent {
	case models.IntentTime:
		now := time.Now()
		return fmt.Sprintf("It's %s on %s.", now.Format("3:04 PM"), now.Format("Monday, January 2"))
	case models.IntentWeather:
		if location, ok := classification.Parameters["location"].(string); ok && location != "" {
			return fmt.Sprintf("I can't reach a weather service right now, so I couldn't check conditions in %s.", location)
		}
		return "I can't reach a weather service right now, so I couldn't check the forecast."
	case models.IntentCalculate:
		if expr, ok := classification.Parameters["expression"].(string); ok && expr != "" {
			return fmt.Sprintf("I couldn't evaluate %q directly, but a calculator will handle it.", expr)
		}
		return "I couldn't find an expression to calculate in that."
	case models.IntentTranslate:
		target, _ := classification.Parameters["target_language"].(string)
		if source, ok := classification.Parameters["source"].(string); ok && source != "" {
			return fmt.Sprintf("I couldn't translate %q to %s without a translation service.", source, target)
		}
		return "Tell me the phrase and the target language and I'll try the translation again."
	case models.IntentNote, models.IntentReminder:
		return "I've noted that down for this session, but I couldn't store it permanently."
	case models.IntentGeneral:
		return conversationalReply(text)
	default:
		return fmt.Sprintf("I understood that as a %s request, but the service for it isn't available right now.", classification.Intent)
	}
}

func conversationalReply(text string) string {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "hello") || strings.Contains(lowered, "hi "):
		return "Hello! What can I do for you?"
	case strings.Contains(lowered, "thank"):
		return "You're welcome."
	case strings.Contains(lowered, "help"):
		return "I can generate documents, send email, search, manage your calendar and files, and answer quick questions."
	default:
		return "I'm listening. What would you like me to do?"
	}
}
