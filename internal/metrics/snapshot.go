package metrics

import (
	"fmt"
	"math"
	"time"

	"jarvislive/internal/models"
)

// successMarginPoints is the percentage-point spread beyond which one path
// is recommended over the other; inside it (with enough samples on both
// sides) a hybrid strategy is recommended instead.
const (
	successMarginPoints = 10.0
	hybridMinSamples    = 10
)

// ComputeSnapshot recomputes the performance snapshot from the trailing
// event window and replaces the recommendation set. Runs on the snapshot
// interval; safe to call directly in tests.
func (e *Engine) ComputeSnapshot() models.PerformanceSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	window := e.recent
	if len(window) > e.cfg.SnapshotWindow {
		window = window[len(window)-e.cfg.SnapshotWindow:]
	}

	snapshot := models.PerformanceSnapshot{
		Capability: computeStats(window, models.PathCapability),
		Fallback:   computeStats(window, models.PathFallback),
		SampleSize: len(window),
		Timestamp:  time.Now(),
	}
	snapshot.Comparison = compare(snapshot.Capability, snapshot.Fallback)

	e.snapshots = append(e.snapshots, snapshot)
	e.snapshots = trim(e.snapshots, e.cfg.SnapshotHistoryCap)

	e.recommendations = e.synthesizeLocked(snapshot)

	return snapshot
}

// computeStats aggregates the events of one path within the window.
// Snapshots are recomputed from samples rather than maintained
// incrementally, so repeated cycles cannot drift numerically.
func computeStats(window []models.ProcessingEvent, path models.PathType) models.PathStats {
	var stats models.PathStats
	var total time.Duration

	for _, event := range window {
		if event.Path != path {
			continue
		}
		stats.Count++
		if event.Success {
			stats.Successes++
		}
		total += event.Elapsed
		if stats.MinLatency == 0 || event.Elapsed < stats.MinLatency {
			stats.MinLatency = event.Elapsed
		}
		if event.Elapsed > stats.MaxLatency {
			stats.MaxLatency = event.Elapsed
		}
	}

	if stats.Count > 0 {
		stats.SuccessRate = float64(stats.Successes) / float64(stats.Count)
		stats.AvgLatency = total / time.Duration(stats.Count)
	}
	return stats
}

// compare derives the verdicts. Either side having zero samples yields
// equal, as does an exact tie.
func compare(capability, fallback models.PathStats) models.PathComparison {
	comparison := models.PathComparison{
		SuccessLeader: models.VerdictEqual,
		SpeedLeader:   models.VerdictEqual,
	}
	if capability.Count == 0 || fallback.Count == 0 {
		return comparison
	}

	rateDiff := (capability.SuccessRate - fallback.SuccessRate) * 100
	switch {
	case rateDiff > 0:
		comparison.SuccessLeader = models.VerdictCapability
		comparison.SuccessMargin = rateDiff
	case rateDiff < 0:
		comparison.SuccessLeader = models.VerdictFallback
		comparison.SuccessMargin = -rateDiff
	}

	latencyDiff := capability.AvgLatency - fallback.AvgLatency
	switch {
	case latencyDiff < 0:
		comparison.SpeedLeader = models.VerdictCapability
		comparison.SpeedMargin = -latencyDiff
	case latencyDiff > 0:
		comparison.SpeedLeader = models.VerdictFallback
		comparison.SpeedMargin = latencyDiff
	}
	return comparison
}

// synthesizeLocked builds the recommendation set for one snapshot cycle.
// The set replaces the previous one; recommendations never accumulate.
// Caller holds e.mu.
func (e *Engine) synthesizeLocked(snapshot models.PerformanceSnapshot) []models.Recommendation {
	var recs []models.Recommendation
	now := snapshot.Timestamp
	capStats, fbStats := snapshot.Capability, snapshot.Fallback

	if capStats.Count > 0 && fbStats.Count > 0 {
		spread := math.Abs(capStats.SuccessRate-fbStats.SuccessRate) * 100
		switch {
		case spread > successMarginPoints && capStats.SuccessRate > fbStats.SuccessRate:
			recs = append(recs, models.Recommendation{
				Kind:      models.RecommendPreferCapability,
				Path:      models.PathCapability,
				Message:   fmt.Sprintf("Capability path leads on success rate by %.0f points; prefer capability routing", spread),
				Timestamp: now,
			})
		case spread > successMarginPoints:
			recs = append(recs, models.Recommendation{
				Kind:      models.RecommendPreferFallback,
				Path:      models.PathFallback,
				Message:   fmt.Sprintf("Fallback path leads on success rate by %.0f points; prefer generative fallback", spread),
				Timestamp: now,
			})
		case capStats.Count >= hybridMinSamples && fbStats.Count >= hybridMinSamples:
			recs = append(recs, models.Recommendation{
				Kind:      models.RecommendHybridStrategy,
				Message:   fmt.Sprintf("Paths within %.0f points of each other; a hybrid strategy balances load", successMarginPoints),
				Timestamp: now,
			})
		}
	}

	if capStats.Count > 0 && capStats.AvgLatency > e.cfg.CapabilityLatencyLimit {
		recs = append(recs, models.Recommendation{
			Kind:      models.RecommendOptimizePath,
			Path:      models.PathCapability,
			Message:   fmt.Sprintf("Capability average latency %s exceeds its %s ceiling; investigate slow servers", capStats.AvgLatency, e.cfg.CapabilityLatencyLimit),
			Timestamp: now,
		})
	}
	if fbStats.Count > 0 && fbStats.AvgLatency > e.cfg.FallbackLatencyLimit {
		recs = append(recs, models.Recommendation{
			Kind:      models.RecommendOptimizePath,
			Path:      models.PathFallback,
			Message:   fmt.Sprintf("Fallback average latency %s exceeds its %s ceiling; consider a lighter model", fbStats.AvgLatency, e.cfg.FallbackLatencyLimit),
			Timestamp: now,
		})
	}

	return recs
}

// Snapshot returns the latest computed snapshot, or a zero-sample one when
// no cycle has run yet.
func (e *Engine) Snapshot() models.PerformanceSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.snapshots) == 0 {
		return models.PerformanceSnapshot{
			Comparison: models.PathComparison{
				SuccessLeader: models.VerdictEqual,
				SpeedLeader:   models.VerdictEqual,
			},
			Timestamp: time.Now(),
		}
	}
	return e.snapshots[len(e.snapshots)-1]
}

// SnapshotHistory returns a copy of the retained snapshot history.
func (e *Engine) SnapshotHistory() []models.PerformanceSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.PerformanceSnapshot, len(e.snapshots))
	copy(out, e.snapshots)
	return out
}

// Alerts returns a copy of the retained alerts, oldest first.
func (e *Engine) Alerts() []models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Alert, len(e.alerts))
	copy(out, e.alerts)
	return out
}

// Recommendations returns the current recommendation set.
func (e *Engine) Recommendations() []models.Recommendation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Recommendation, len(e.recommendations))
	copy(out, e.recommendations)
	return out
}

// SampleCounts reports the rolling-array sizes, for status output and tests.
func (e *Engine) SampleCounts() (capabilitySamples, fallbackSamples int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.capabilitySuccess), len(e.fallbackSuccess)
}
