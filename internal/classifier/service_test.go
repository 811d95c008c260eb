package classifier

import (
	"context"
	"math"
	"regexp"
	"testing"

	"jarvislive/internal/models"
)

func TestClassify_EmailCommand(t *testing.T) {
	svc := NewService(Options{})

	result, err := svc.Classify(context.Background(), "send email to john@example.com about budget", "user-1")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if result.Intent != models.IntentSendEmail {
		t.Fatalf("Expected intent %s, got %s", models.IntentSendEmail, result.Intent)
	}
	if result.Confidence < 0.7 {
		t.Errorf("Expected confidence >= 0.7, got %f", result.Confidence)
	}

	to, ok := result.Parameters["to"].([]string)
	if !ok || len(to) != 1 || to[0] != "john@example.com" {
		t.Errorf("Expected to=[john@example.com], got %v", result.Parameters["to"])
	}
	if subject := result.Parameters["subject"]; subject != "budget" {
		t.Errorf("Expected subject=budget, got %v", subject)
	}
}

func TestClassify_NoMatchFallsToGeneral(t *testing.T) {
	svc := NewService(Options{})

	input := "um, hello there"
	result, err := svc.Classify(context.Background(), input, "user-1")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if result.Intent != models.IntentGeneral {
		t.Fatalf("Expected general intent, got %s", result.Intent)
	}
	if result.Confidence != 0.5 {
		t.Errorf("Expected confidence exactly 0.5, got %f", result.Confidence)
	}
	if text := result.Parameters["text"]; text != input {
		t.Errorf("Expected text parameter to be the original input, got %v", text)
	}
}

func TestClassify_KeywordFallback(t *testing.T) {
	svc := NewService(Options{})

	// One weather keyword, no regex match: below threshold, the keyword
	// frequency fallback should still land on weather.
	result, err := svc.Classify(context.Background(), "the weather is nice", "user-1")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if result.Intent != models.IntentWeather {
		t.Fatalf("Expected weather intent from fallback, got %s", result.Intent)
	}
	if math.Abs(result.Confidence-1.0/3.0) > 1e-9 {
		t.Errorf("Expected confidence 1/3 from keyword ratio, got %f", result.Confidence)
	}
}

func TestClassify_ConfidenceAlwaysInRange(t *testing.T) {
	svc := NewService(Options{})

	inputs := []string{
		"send email to john@example.com about budget",
		"what time is it",
		"blah blah nothing",
		"translate good morning to spanish",
		"save the file to reports/q3.pdf",
		"remind me to stretch",
	}
	for _, input := range inputs {
		result, err := svc.Classify(context.Background(), input, "user-range")
		if err != nil {
			t.Fatalf("Classify(%q) failed: %v", input, err)
		}
		if result.Confidence < 0 || result.Confidence > 1 {
			t.Errorf("Classify(%q) confidence %f out of [0,1]", input, result.Confidence)
		}
		if result.Intent == "" {
			t.Errorf("Classify(%q) returned empty intent", input)
		}
	}
}

func TestClassify_EmptyTranscript(t *testing.T) {
	svc := NewService(Options{})

	if _, err := svc.Classify(context.Background(), "   ", "user-1"); err != ErrEmptyTranscript {
		t.Fatalf("Expected ErrEmptyTranscript, got %v", err)
	}
}

func TestClassify_TieBreakPrefersLowerPriority(t *testing.T) {
	// Two patterns with identical keywords and no expressions always score
	// identically; the lower priority number must win, repeatably.
	patterns := []Pattern{
		{Intent: models.IntentNote, Keywords: []string{"memo"}, Priority: 3},
		{Intent: models.IntentSendEmail, Keywords: []string{"memo"}, Priority: 1},
	}

	for run := 0; run < 5; run++ {
		svc := NewService(Options{Patterns: patterns, Threshold: 0.5})
		result, err := svc.Classify(context.Background(), "file that memo", "user-tie")
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if result.Intent != models.IntentSendEmail {
			t.Fatalf("Run %d: expected tie to resolve to priority 1 intent, got %s", run, result.Intent)
		}
	}
}

func TestScorePattern_LearningBonusBounded(t *testing.T) {
	svc := NewService(Options{})
	pattern := &Pattern{Intent: models.IntentNote, Keywords: []string{"note"}}

	base, _ := svc.scorePattern(pattern, "take a note", 0)
	withFive, _ := svc.scorePattern(pattern, "take a note", 5)
	withMany, _ := svc.scorePattern(pattern, "take a note", 500)

	if math.Abs(withFive-base-0.05) > 1e-9 {
		t.Errorf("Expected +0.05 bonus at 5 prior hits, got %f", withFive-base)
	}
	if math.Abs(withMany-base-0.1) > 1e-9 {
		t.Errorf("Expected bonus capped at 0.1, got %f", withMany-base)
	}
}

func TestScorePattern_ZeroKeywordsDisqualifies(t *testing.T) {
	svc := NewService(Options{})
	pattern := &Pattern{
		Intent:      models.IntentSearch,
		Keywords:    []string{"search"},
		Expressions: []*regexp.Regexp{regexp.MustCompile(`(.+)`)},
	}

	score, params := svc.scorePattern(pattern, "no matching words here", 10)
	if score != 0 {
		t.Errorf("Expected score 0 without keyword hits, got %f", score)
	}
	if params != nil {
		t.Errorf("Expected no parameters without keyword hits, got %v", params)
	}
}

func TestScorePattern_FirstRegexWins(t *testing.T) {
	svc := NewService(Options{})
	pattern := &Pattern{
		Intent:   models.IntentSearch,
		Keywords: []string{"search"},
		Expressions: []*regexp.Regexp{
			regexp.MustCompile(`search\s+for\s+(.+)`),
			regexp.MustCompile(`search\s+(.+)`),
		},
	}

	_, params := svc.scorePattern(pattern, "search for cat videos", 0)
	if params["1"] != "cat videos" {
		t.Errorf("Expected first expression's capture, got %v", params["1"])
	}
}

func TestClassify_UserFrequencyTracked(t *testing.T) {
	svc := NewService(Options{})

	for i := 0; i < 3; i++ {
		if _, err := svc.Classify(context.Background(), "send email to sam@example.com", "user-freq"); err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
	}

	freq := svc.UserIntentFrequency("user-freq")
	if freq[models.IntentSendEmail] != 3 {
		t.Errorf("Expected 3 send-email classifications recorded, got %d", freq[models.IntentSendEmail])
	}
}

func TestClassify_HistoryBatchEviction(t *testing.T) {
	svc := NewService(Options{HistoryCap: 10})

	for i := 0; i < 25; i++ {
		if _, err := svc.Classify(context.Background(), "what time is it", "user-hist"); err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
	}

	if got := len(svc.History()); got > 10 {
		t.Errorf("History exceeded cap: %d > 10", got)
	}
}

func TestNormalize_ContractionsAndWhitespace(t *testing.T) {
	got := Normalize("  Don't   SHOUT,  it's   fine ")
	want := "do not shout, it is fine"
	if got != want {
		t.Errorf("Normalize mismatch: got %q, want %q", got, want)
	}
}
