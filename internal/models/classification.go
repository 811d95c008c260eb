package models

import "time"

// ClassificationSource identifies which subsystem produced a classification.
type ClassificationSource string

const (
	SourceLocal         ClassificationSource = "local"
	SourceRemote        ClassificationSource = "remote"
	SourceCached        ClassificationSource = "cached"
	SourceHybrid        ClassificationSource = "hybrid"
	SourceLocalFallback ClassificationSource = "local_fallback"
)

// ClassificationResult is the immutable outcome of classifying one
// transcript. Parameters holds extracted values: strings, string lists,
// times, or raw text.
type ClassificationResult struct {
	Text        string                 `json:"text"`
	Intent      Intent                 `json:"intent"`
	Confidence  float64                `json:"confidence"`
	Parameters  map[string]interface{} `json:"parameters"`
	Source      ClassificationSource   `json:"source"`
	Timestamp   time.Time              `json:"timestamp"`
	ElapsedTime time.Duration          `json:"elapsed_ms"`
}

// PathType is the processing path that ultimately served a request.
type PathType string

const (
	PathCapability PathType = "capability"
	PathFallback   PathType = "fallback"
	// PathHybrid marks records where capability execution was attempted and
	// failed, and the generative fallback served the response.
	PathHybrid PathType = "hybrid"
)

// ProcessingRecord is the immutable per-request record assembled by the
// pipeline orchestrator. Appended to a bounded history, never mutated.
type ProcessingRecord struct {
	ID             string                `json:"id"`
	SessionID      string                `json:"session_id"`
	Classification *ClassificationResult `json:"classification"`
	Response       string                `json:"response"`
	Path           PathType              `json:"path"`
	UsedCapability bool                  `json:"used_capability"`
	Success        bool                  `json:"success"`
	TotalTime      time.Duration         `json:"total_time_ms"`
	Timestamp      time.Time             `json:"timestamp"`
}

// ProcessingEvent is the minimal record the metrics engine consumes.
// Path is always the serving path: capability or fallback.
type ProcessingEvent struct {
	Path      PathType      `json:"path"`
	Intent    Intent        `json:"intent"`
	Elapsed   time.Duration `json:"elapsed_ms"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
