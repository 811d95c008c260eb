package models

import "time"

// PathStats aggregates one processing path over a trailing sample window.
type PathStats struct {
	Count       int           `json:"count"`
	Successes   int           `json:"successes"`
	SuccessRate float64       `json:"success_rate"`
	MinLatency  time.Duration `json:"min_latency_ms"`
	AvgLatency  time.Duration `json:"avg_latency_ms"`
	MaxLatency  time.Duration `json:"max_latency_ms"`
}

// Verdict names which side currently holds an advantage in a comparison.
type Verdict string

const (
	VerdictCapability Verdict = "capability"
	VerdictFallback   Verdict = "fallback"
	VerdictEqual      Verdict = "equal"
)

// PathComparison is the derived verdict between the two paths: which one
// currently wins on success rate and on speed, and by how much.
type PathComparison struct {
	SuccessLeader Verdict `json:"success_leader"`
	// SuccessMargin is the success-rate advantage in percentage points.
	SuccessMargin float64 `json:"success_margin"`
	SpeedLeader   Verdict `json:"speed_leader"`
	// SpeedMargin is the average-latency advantage of the leader.
	SpeedMargin time.Duration `json:"speed_margin_ms"`
}

// PerformanceSnapshot is a point-in-time aggregate recomputed periodically
// from a trailing sample of recent events.
type PerformanceSnapshot struct {
	Capability PathStats      `json:"capability"`
	Fallback   PathStats      `json:"fallback"`
	Comparison PathComparison `json:"comparison"`
	SampleSize int            `json:"sample_size"`
	Timestamp  time.Time      `json:"timestamp"`
}

// AlertType categorizes a threshold breach.
type AlertType string

const (
	AlertSlowResponse   AlertType = "slow_response"
	AlertFailure        AlertType = "failure"
	AlertLowSuccessRate AlertType = "low_success_rate"
)

// Alert is a fact-based threshold breach raised by the metrics engine.
type Alert struct {
	Type      AlertType `json:"type"`
	Path      PathType  `json:"path"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// RecommendationKind categorizes synthesized advice.
type RecommendationKind string

const (
	RecommendPreferCapability RecommendationKind = "prefer_capability"
	RecommendPreferFallback   RecommendationKind = "prefer_fallback"
	RecommendOptimizePath     RecommendationKind = "optimize_path"
	RecommendHybridStrategy   RecommendationKind = "hybrid_strategy"
)

// Recommendation is advice synthesized from comparing the two paths.
// The engine replaces the whole set each snapshot cycle.
type Recommendation struct {
	Kind      RecommendationKind `json:"kind"`
	Path      PathType           `json:"path,omitempty"`
	Message   string             `json:"message"`
	Timestamp time.Time          `json:"timestamp"`
}

// ConversationTurn is one append-only entry in the conversation sink.
type ConversationTurn struct {
	ID        int64             `json:"id"`
	SessionID string            `json:"session_id"`
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
