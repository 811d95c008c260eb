package classifier

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"jarvislive/internal/models"
)

// Scoring weights. Keyword coverage carries the base score; a regex match
// adds a flat bonus; prior user behavior nudges within a hard bound.
const (
	keywordWeight      = 0.6
	regexBonus         = 0.4
	learningStep       = 0.01
	learningBonusLimit = 0.1

	// generalConfidence is the floor returned when nothing matches at all.
	generalConfidence = 0.5
)

// ErrEmptyTranscript is returned when there is nothing to classify.
var ErrEmptyTranscript = errors.New("empty transcript")

// Service scores free text against the pattern registry and extracts
// per-intent parameters. All mutable state (history, per-user frequency)
// is guarded by a single mutex, which is the serialization point for
// classification bookkeeping.
type Service struct {
	patterns   []Pattern
	extractors map[models.Intent]ExtractorFunc
	threshold  float64
	historyCap int

	mu            sync.Mutex
	history       []models.ClassificationResult
	userFrequency map[string]map[models.Intent]int
}

// Options configures a classifier service.
type Options struct {
	// Patterns overrides the built-in registry when non-nil.
	Patterns []Pattern
	// Threshold is the minimum accepted pattern score (default 0.7).
	Threshold float64
	// HistoryCap bounds the retained classification history (default 100).
	HistoryCap int
	// DefaultLanguage is the translation target when none is spoken.
	DefaultLanguage string
}

// NewService creates a classifier. The registry is sorted ascending by
// priority once here; that order is the tie-break order for equal scores.
func NewService(opts Options) *Service {
	patterns := opts.Patterns
	if patterns == nil {
		patterns = defaultPatterns()
	}
	sortPatterns(patterns)

	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = 0.7
	}
	historyCap := opts.HistoryCap
	if historyCap <= 0 {
		historyCap = 100
	}
	language := opts.DefaultLanguage
	if language == "" {
		language = "spanish"
	}

	return &Service{
		patterns:      patterns,
		extractors:    buildExtractors(language),
		threshold:     threshold,
		historyCap:    historyCap,
		userFrequency: make(map[string]map[models.Intent]int),
	}
}

// Classify resolves a transcript to an intent with extracted parameters.
// It always returns a usable result for non-blank input and never panics;
// the only error case is an empty transcript.
func (s *Service) Classify(ctx context.Context, text, userID string) (*models.ClassificationResult, error) {
	start := time.Now()

	normalized := Normalize(text)
	if normalized == "" {
		return nil, ErrEmptyTranscript
	}

	s.mu.Lock()
	frequencies := s.userFrequency[userID]

	var (
		bestScore   float64
		bestPattern *Pattern
		bestParams  map[string]interface{}
	)

	for i := range s.patterns {
		pattern := &s.patterns[i]
		score, params := s.scorePattern(pattern, normalized, frequencies[pattern.Intent])
		// Strict greater-than keeps the first-encountered pattern on ties,
		// i.e. the lowest priority number after the startup sort.
		if score > bestScore {
			bestScore = score
			bestPattern = pattern
			bestParams = params
		}
	}

	result := &models.ClassificationResult{
		Text:      text,
		Source:    models.SourceLocal,
		Timestamp: start,
	}

	switch {
	case bestPattern != nil && bestScore >= s.threshold:
		result.Intent = bestPattern.Intent
		result.Confidence = clamp01(bestScore)
		result.Parameters = bestParams
	default:
		intent, confidence := s.classifyByKeywordFrequency(normalized)
		result.Intent = intent
		result.Confidence = confidence
		result.Parameters = map[string]interface{}{"text": text}
	}

	result.ElapsedTime = time.Since(start)

	s.recordLocked(userID, *result)
	s.mu.Unlock()

	return result, nil
}

// scorePattern computes the score and parameter set for one pattern.
// Zero keyword hits disqualify the pattern outright; regex and extractor
// work is skipped.
func (s *Service) scorePattern(pattern *Pattern, text string, priorHits int) (float64, map[string]interface{}) {
	matched := 0
	for _, keyword := range pattern.Keywords {
		if strings.Contains(text, keyword) {
			matched++
		}
	}
	if matched == 0 {
		return 0, nil
	}

	score := float64(matched) / float64(len(pattern.Keywords)) * keywordWeight
	params := map[string]interface{}{}

	// First matching expression wins; later ones never contribute.
	for _, re := range pattern.Expressions {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		score += regexBonus
		for i := 1; i < len(m); i++ {
			if value := strings.TrimSpace(m[i]); value != "" {
				params[indexKey(i)] = value
			}
		}
		break
	}

	// Extractor output wins on key collision with regex captures.
	if extract, ok := s.extractors[pattern.Intent]; ok {
		for key, value := range extract(text) {
			params[key] = value
		}
	}

	bonus := float64(priorHits) * learningStep
	if bonus > learningBonusLimit {
		bonus = learningBonusLimit
	}
	return score + bonus, params
}

// classifyByKeywordFrequency is the lightweight fallback: plain keyword
// coverage per pattern, maximum wins. A zero across the board lands on
// general with the fixed floor confidence.
func (s *Service) classifyByKeywordFrequency(text string) (models.Intent, float64) {
	var (
		best      float64
		bestIndex = -1
	)
	for i := range s.patterns {
		matched := 0
		for _, keyword := range s.patterns[i].Keywords {
			if strings.Contains(text, keyword) {
				matched++
			}
		}
		ratio := float64(matched) / float64(len(s.patterns[i].Keywords))
		if ratio > best {
			best = ratio
			bestIndex = i
		}
	}
	if bestIndex < 0 {
		return models.IntentGeneral, generalConfidence
	}
	return s.patterns[bestIndex].Intent, best
}

// recordLocked appends to the bounded history and bumps the per-user intent
// frequency. Caller holds s.mu. Overflow drops the oldest excess in one
// batch rather than one entry at a time.
func (s *Service) recordLocked(userID string, result models.ClassificationResult) {
	s.history = append(s.history, result)
	if len(s.history) > s.historyCap {
		s.history = append([]models.ClassificationResult(nil), s.history[len(s.history)-s.historyCap:]...)
	}

	if s.userFrequency[userID] == nil {
		s.userFrequency[userID] = make(map[models.Intent]int)
	}
	s.userFrequency[userID][result.Intent]++
}

// History returns a copy of the retained classification history.
func (s *Service) History() []models.ClassificationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ClassificationResult, len(s.history))
	copy(out, s.history)
	return out
}

// UserIntentFrequency returns how often a user's prior classifications
// resolved to each intent.
func (s *Service) UserIntentFrequency(userID string) map[models.Intent]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[models.Intent]int, len(s.userFrequency[userID]))
	for intent, count := range s.userFrequency[userID] {
		out[intent] = count
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// indexKey names regex capture groups in the parameter map, numbered from 1.
func indexKey(i int) string {
	return strconv.Itoa(i)
}
