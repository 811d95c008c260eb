package routing

import (
	"testing"

	"jarvislive/internal/models"
)

func classified(intent models.Intent, confidence float64) *models.ClassificationResult {
	return &models.ClassificationResult{Intent: intent, Confidence: confidence}
}

func TestDecide_BelowThresholdNotRouted(t *testing.T) {
	router := NewRouter(0.6)

	decision := router.Decide(classified(models.IntentSendEmail, 0.59), nil)
	if decision.UseCapability {
		t.Errorf("Expected 0.59 confidence to stay below the 0.6 threshold: %+v", decision)
	}
}

func TestDecide_AtThresholdRouted(t *testing.T) {
	router := NewRouter(0.6)

	decision := router.Decide(classified(models.IntentSendEmail, 0.6), nil)
	if !decision.UseCapability {
		t.Fatalf("Expected exactly-threshold confidence to route: %+v", decision)
	}
	if len(decision.Servers) == 0 {
		t.Errorf("Expected the intent's capability servers, got none")
	}
}

func TestDecide_NoServersNotRouted(t *testing.T) {
	router := NewRouter(0.6)

	// High confidence alone is not enough; the intent carries no capability
	// servers and nothing was recommended.
	decision := router.Decide(classified(models.IntentGeneral, 0.95), nil)
	if decision.UseCapability {
		t.Errorf("Expected intent without servers to skip capability: %+v", decision)
	}
}

func TestDecide_RecommendedServersFillGap(t *testing.T) {
	router := NewRouter(0.6)

	decision := router.Decide(classified(models.IntentGeneral, 0.95), []string{"assistant-server"})
	if !decision.UseCapability {
		t.Fatalf("Expected recommended servers to enable routing: %+v", decision)
	}
	if len(decision.Servers) != 1 || decision.Servers[0] != "assistant-server" {
		t.Errorf("Expected recommended server list, got %v", decision.Servers)
	}
}

func TestDecide_StaticServersWinOverRecommended(t *testing.T) {
	router := NewRouter(0.6)

	decision := router.Decide(classified(models.IntentSendEmail, 0.9), []string{"other"})
	for _, server := range decision.Servers {
		if server == "other" {
			t.Errorf("Recommended list must not override the intent's own servers: %v", decision.Servers)
		}
	}
}

func TestDecide_NilClassification(t *testing.T) {
	router := NewRouter(0.6)

	if decision := router.Decide(nil, nil); decision.UseCapability {
		t.Errorf("Expected nil classification to never route: %+v", decision)
	}
}

func TestShouldRouteToCapability(t *testing.T) {
	router := NewRouter(0) // default threshold

	if !router.ShouldRouteToCapability(classified(models.IntentCalendar, 0.8), nil) {
		t.Errorf("Expected calendar at 0.8 to route")
	}
	if router.ShouldRouteToCapability(classified(models.IntentCalendar, 0.3), nil) {
		t.Errorf("Expected calendar at 0.3 to stay on the fallback path")
	}
}
