package metrics

import (
	"context"
	"math"
	"testing"
	"time"

	"jarvislive/internal/models"
)

func event(path models.PathType, success bool, elapsed time.Duration) models.ProcessingEvent {
	return models.ProcessingEvent{
		Path:      path,
		Intent:    models.IntentSendEmail,
		Elapsed:   elapsed,
		Success:   success,
		Timestamp: time.Now(),
	}
}

func alertsOfType(alerts []models.Alert, alertType models.AlertType) []models.Alert {
	var out []models.Alert
	for _, alert := range alerts {
		if alert.Type == alertType {
			out = append(out, alert)
		}
	}
	return out
}

func TestIngest_SampleCapBatchEviction(t *testing.T) {
	engine := NewEngine(Config{SampleCap: 10}, nil, nil)

	for i := 0; i < 25; i++ {
		engine.Ingest(event(models.PathCapability, true, 10*time.Millisecond))
	}

	capSamples, fbSamples := engine.SampleCounts()
	if capSamples > 10 {
		t.Errorf("Capability samples exceeded cap: %d > 10", capSamples)
	}
	if fbSamples != 0 {
		t.Errorf("Expected no fallback samples, got %d", fbSamples)
	}
}

func TestComputeSnapshot_NoSamplesIsEqual(t *testing.T) {
	engine := NewEngine(Config{}, nil, nil)

	snapshot := engine.ComputeSnapshot()
	if snapshot.SampleSize != 0 {
		t.Errorf("Expected empty window, got %d samples", snapshot.SampleSize)
	}
	if snapshot.Comparison.SuccessLeader != models.VerdictEqual {
		t.Errorf("Expected equal success verdict, got %s", snapshot.Comparison.SuccessLeader)
	}
	if snapshot.Comparison.SpeedLeader != models.VerdictEqual {
		t.Errorf("Expected equal speed verdict, got %s", snapshot.Comparison.SpeedLeader)
	}
}

func TestComputeSnapshot_SuccessMargin(t *testing.T) {
	engine := NewEngine(Config{}, nil, nil)

	// Capability 8/10 (80%), fallback 6/10 (60%): capability leads by 20
	// points.
	for i := 0; i < 10; i++ {
		engine.Ingest(event(models.PathCapability, i < 8, 10*time.Millisecond))
		engine.Ingest(event(models.PathFallback, i < 6, 10*time.Millisecond))
	}

	snapshot := engine.ComputeSnapshot()
	if snapshot.Comparison.SuccessLeader != models.VerdictCapability {
		t.Fatalf("Expected capability success leader, got %s", snapshot.Comparison.SuccessLeader)
	}
	if math.Abs(snapshot.Comparison.SuccessMargin-20) > 1e-9 {
		t.Errorf("Expected 20 point margin, got %f", snapshot.Comparison.SuccessMargin)
	}

	recs := engine.Recommendations()
	if len(recs) != 1 || recs[0].Kind != models.RecommendPreferCapability {
		t.Errorf("Expected a single prefer_capability recommendation, got %+v", recs)
	}
}

func TestComputeSnapshot_SpeedLeader(t *testing.T) {
	engine := NewEngine(Config{}, nil, nil)

	engine.Ingest(event(models.PathCapability, true, 100*time.Millisecond))
	engine.Ingest(event(models.PathFallback, true, 40*time.Millisecond))

	snapshot := engine.ComputeSnapshot()
	if snapshot.Comparison.SpeedLeader != models.VerdictFallback {
		t.Fatalf("Expected fallback speed leader, got %s", snapshot.Comparison.SpeedLeader)
	}
	if snapshot.Comparison.SpeedMargin != 60*time.Millisecond {
		t.Errorf("Expected 60ms speed margin, got %s", snapshot.Comparison.SpeedMargin)
	}
}

func TestSlowAlert_StrictlyGreaterThan(t *testing.T) {
	engine := NewEngine(Config{SlowThreshold: 5 * time.Second}, nil, nil)

	engine.Ingest(event(models.PathCapability, true, 5*time.Second))
	if slow := alertsOfType(engine.Alerts(), models.AlertSlowResponse); len(slow) != 0 {
		t.Errorf("Latency exactly at threshold must not alert, got %+v", slow)
	}

	engine.Ingest(event(models.PathCapability, true, 5*time.Second+time.Millisecond))
	if slow := alertsOfType(engine.Alerts(), models.AlertSlowResponse); len(slow) != 1 {
		t.Errorf("Expected one slow alert above threshold, got %d", len(slow))
	}
}

func TestFailureAlert(t *testing.T) {
	engine := NewEngine(Config{}, nil, nil)

	engine.Ingest(event(models.PathFallback, false, 10*time.Millisecond))

	failures := alertsOfType(engine.Alerts(), models.AlertFailure)
	if len(failures) != 1 {
		t.Fatalf("Expected one failure alert, got %d", len(failures))
	}
	if failures[0].Path != models.PathFallback {
		t.Errorf("Expected fallback path on alert, got %s", failures[0].Path)
	}
}

func TestLowSuccessRateAlert_RequiresFullWindow(t *testing.T) {
	engine := NewEngine(Config{SuccessRateWindow: 20, LowSuccessRate: 0.8}, nil, nil)

	// Ten failures alone are below the window size: a 0% rate over a partial
	// window must not alert.
	for i := 0; i < 10; i++ {
		engine.Ingest(event(models.PathFallback, false, 10*time.Millisecond))
	}
	if low := alertsOfType(engine.Alerts(), models.AlertLowSuccessRate); len(low) != 0 {
		t.Fatalf("Partial window must not raise a rate alert, got %+v", low)
	}

	// 50 capability successes then 10 failures: the trailing 20 are half
	// failures, 50%, well below the 80% floor.
	for i := 0; i < 50; i++ {
		engine.Ingest(event(models.PathCapability, true, 10*time.Millisecond))
	}
	for i := 0; i < 10; i++ {
		engine.Ingest(event(models.PathCapability, false, 10*time.Millisecond))
	}

	low := alertsOfType(engine.Alerts(), models.AlertLowSuccessRate)
	if len(low) == 0 {
		t.Fatal("Expected a low success rate alert over the full trailing window")
	}
	last := low[len(low)-1]
	if math.Abs(last.Value-0.5) > 1e-9 {
		t.Errorf("Expected 0.5 trailing rate, got %f", last.Value)
	}
}

func TestAlerts_CapEnforced(t *testing.T) {
	engine := NewEngine(Config{AlertCap: 5}, nil, nil)

	for i := 0; i < 12; i++ {
		engine.Ingest(event(models.PathCapability, false, 10*time.Millisecond))
	}

	if got := len(engine.Alerts()); got != 5 {
		t.Errorf("Expected alert list trimmed to 5, got %d", got)
	}
}

func TestSnapshotHistory_CapEnforced(t *testing.T) {
	engine := NewEngine(Config{SnapshotHistoryCap: 5}, nil, nil)

	for i := 0; i < 12; i++ {
		engine.ComputeSnapshot()
	}

	if got := len(engine.SnapshotHistory()); got != 5 {
		t.Errorf("Expected snapshot history trimmed to 5, got %d", got)
	}
}

func TestRecommendations_ReplacedEachCycle(t *testing.T) {
	engine := NewEngine(Config{SnapshotWindow: 20}, nil, nil)

	// First cycle: capability far ahead on success rate.
	for i := 0; i < 10; i++ {
		engine.Ingest(event(models.PathCapability, true, 10*time.Millisecond))
		engine.Ingest(event(models.PathFallback, i < 4, 10*time.Millisecond))
	}
	engine.ComputeSnapshot()

	recs := engine.Recommendations()
	if len(recs) != 1 || recs[0].Kind != models.RecommendPreferCapability {
		t.Fatalf("Expected prefer_capability after first cycle, got %+v", recs)
	}

	// Second cycle: newer balanced events push the skewed ones out of the
	// window. The old recommendation must be gone, not accumulated.
	for i := 0; i < 10; i++ {
		engine.Ingest(event(models.PathCapability, true, 10*time.Millisecond))
		engine.Ingest(event(models.PathFallback, true, 10*time.Millisecond))
	}
	engine.ComputeSnapshot()

	recs = engine.Recommendations()
	if len(recs) != 1 || recs[0].Kind != models.RecommendHybridStrategy {
		t.Fatalf("Expected only hybrid_strategy after second cycle, got %+v", recs)
	}
}

func TestRecommendations_OptimizeSlowFallback(t *testing.T) {
	engine := NewEngine(Config{FallbackLatencyLimit: 3 * time.Second}, nil, nil)

	engine.Ingest(event(models.PathFallback, true, 4*time.Second))
	engine.ComputeSnapshot()

	recs := engine.Recommendations()
	if len(recs) != 1 || recs[0].Kind != models.RecommendOptimizePath {
		t.Fatalf("Expected optimize_path recommendation, got %+v", recs)
	}
	if recs[0].Path != models.PathFallback {
		t.Errorf("Expected fallback path flagged, got %s", recs[0].Path)
	}
}

type capturePublisher struct {
	published chan models.Alert
}

func (p *capturePublisher) PublishAlert(_ context.Context, alert models.Alert) error {
	p.published <- alert
	return nil
}

func TestRaiseAlert_Published(t *testing.T) {
	publisher := &capturePublisher{published: make(chan models.Alert, 1)}
	engine := NewEngine(Config{}, publisher, nil)

	engine.Ingest(event(models.PathCapability, false, 10*time.Millisecond))

	select {
	case alert := <-publisher.published:
		if alert.Type != models.AlertFailure {
			t.Errorf("Expected failure alert published, got %s", alert.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Alert was never published")
	}
}
