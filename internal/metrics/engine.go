// Package metrics ingests processing events off the request's critical path,
// maintains bounded rolling windows per execution path, and raises threshold
// alerts and comparative recommendations.
package metrics

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"jarvislive/internal/models"
)

// Publisher pushes alerts to an external channel (e.g. Redis pub/sub).
// Publishing is best-effort; failures are logged, never propagated.
type Publisher interface {
	PublishAlert(ctx context.Context, alert models.Alert) error
}

// Config carries the engine's thresholds and caps.
type Config struct {
	SampleCap              int           // rolling array hard cap (default 1000)
	SnapshotWindow         int           // trailing events per snapshot (default 100)
	SnapshotInterval       time.Duration // snapshot period (default 10s)
	SnapshotHistoryCap     int           // retained snapshots (default 288)
	AlertCap               int           // retained alerts (default 50)
	SlowThreshold          time.Duration // per-event slow alert, strict > (default 5s)
	SuccessRateWindow      int           // trailing samples for the rate alert (default 20)
	LowSuccessRate         float64       // rate alert floor (default 0.8)
	CapabilityLatencyLimit time.Duration // capability avg-latency ceiling (default 5s)
	FallbackLatencyLimit   time.Duration // fallback avg-latency ceiling (default 3s)
}

func (c *Config) applyDefaults() {
	if c.SampleCap <= 0 {
		c.SampleCap = 1000
	}
	if c.SnapshotWindow <= 0 {
		c.SnapshotWindow = 100
	}
	if c.SnapshotInterval <= 0 {
		c.SnapshotInterval = 10 * time.Second
	}
	if c.SnapshotHistoryCap <= 0 {
		c.SnapshotHistoryCap = 288
	}
	if c.AlertCap <= 0 {
		c.AlertCap = 50
	}
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = 5 * time.Second
	}
	if c.SuccessRateWindow <= 0 {
		c.SuccessRateWindow = 20
	}
	if c.LowSuccessRate <= 0 {
		c.LowSuccessRate = 0.8
	}
	if c.CapabilityLatencyLimit <= 0 {
		c.CapabilityLatencyLimit = 5 * time.Second
	}
	if c.FallbackLatencyLimit <= 0 {
		c.FallbackLatencyLimit = 3 * time.Second
	}
}

// Engine is the metrics and alerting engine. All mutable state is guarded
// by one mutex; ingestion, per-event alerting, and periodic snapshot
// computation all serialize through it.
type Engine struct {
	cfg         Config
	publisher   Publisher
	instruments *Instruments

	mu                sync.Mutex
	capabilitySuccess []bool
	fallbackSuccess   []bool
	capabilityLatency []time.Duration
	fallbackLatency   []time.Duration
	recent            []models.ProcessingEvent
	snapshots         []models.PerformanceSnapshot
	alerts            []models.Alert
	recommendations   []models.Recommendation

	events    chan models.ProcessingEvent
	done      chan struct{}
	closeOnce sync.Once
	scheduler gocron.Scheduler
}

// NewEngine creates the engine. Publisher and instruments may be nil.
func NewEngine(cfg Config, publisher Publisher, instruments *Instruments) *Engine {
	cfg.applyDefaults()
	return &Engine{
		cfg:         cfg,
		publisher:   publisher,
		instruments: instruments,
		events:      make(chan models.ProcessingEvent, 256),
		done:        make(chan struct{}),
	}
}

// Start launches the ingestion loop and the periodic snapshot job.
func (e *Engine) Start() error {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("failed to create snapshot scheduler: %w", err)
	}
	e.scheduler = scheduler

	_, err = scheduler.NewJob(
		gocron.DurationJob(e.cfg.SnapshotInterval),
		gocron.NewTask(e.ComputeSnapshot),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule snapshot job: %w", err)
	}

	go e.ingestLoop()
	scheduler.Start()
	log.Printf("📊 Metrics engine started (snapshot every %s)", e.cfg.SnapshotInterval)
	return nil
}

// Stop shuts down the snapshot job and the ingestion loop.
func (e *Engine) Stop() error {
	e.closeOnce.Do(func() { close(e.done) })
	if e.scheduler != nil {
		return e.scheduler.Shutdown()
	}
	return nil
}

// Record hands an event to the engine without blocking the caller. A full
// queue drops the event with a log line rather than stalling the pipeline.
func (e *Engine) Record(event models.ProcessingEvent) {
	select {
	case e.events <- event:
	default:
		log.Printf("⚠️  [METRICS] Event queue full, dropping %s event", event.Path)
	}
}

// Ingest processes one event synchronously: sample bookkeeping plus
// per-event alerting. Exposed for tests; Record is the runtime entry point.
func (e *Engine) Ingest(event models.ProcessingEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch event.Path {
	case models.PathCapability:
		e.capabilitySuccess = append(e.capabilitySuccess, event.Success)
		e.capabilityLatency = append(e.capabilityLatency, event.Elapsed)
		e.capabilitySuccess = trim(e.capabilitySuccess, e.cfg.SampleCap)
		e.capabilityLatency = trim(e.capabilityLatency, e.cfg.SampleCap)
	default:
		e.fallbackSuccess = append(e.fallbackSuccess, event.Success)
		e.fallbackLatency = append(e.fallbackLatency, event.Elapsed)
		e.fallbackSuccess = trim(e.fallbackSuccess, e.cfg.SampleCap)
		e.fallbackLatency = trim(e.fallbackLatency, e.cfg.SampleCap)
	}

	e.recent = append(e.recent, event)
	e.recent = trim(e.recent, e.cfg.SampleCap)

	if e.instruments != nil {
		e.instruments.RecordEvent(event)
	}

	e.checkEventAlertsLocked(event)
}

func (e *Engine) ingestLoop() {
	for {
		select {
		case <-e.done:
			return
		case event := <-e.events:
			e.Ingest(event)
		}
	}
}

// trim enforces a hard cap by dropping the oldest excess entries in a single
// batch copy, not one at a time.
func trim[T any](samples []T, limit int) []T {
	if len(samples) <= limit {
		return samples
	}
	return append([]T(nil), samples[len(samples)-limit:]...)
}

// checkEventAlertsLocked runs the per-event threshold checks. Caller holds
// e.mu.
func (e *Engine) checkEventAlertsLocked(event models.ProcessingEvent) {
	// Strictly greater-than: latency exactly at the threshold is not slow.
	if event.Elapsed > e.cfg.SlowThreshold {
		e.raiseAlertLocked(models.Alert{
			Type:      models.AlertSlowResponse,
			Path:      event.Path,
			Message:   fmt.Sprintf("%s response took %s (threshold %s)", event.Path, event.Elapsed, e.cfg.SlowThreshold),
			Value:     event.Elapsed.Seconds(),
			Threshold: e.cfg.SlowThreshold.Seconds(),
			Timestamp: event.Timestamp,
		})
	}

	if !event.Success {
		e.raiseAlertLocked(models.Alert{
			Type:      models.AlertFailure,
			Path:      event.Path,
			Message:   fmt.Sprintf("%s execution failed for intent %s: %s", event.Path, event.Intent, event.Error),
			Timestamp: event.Timestamp,
		})
	}

	samples := e.fallbackSuccess
	if event.Path == models.PathCapability {
		samples = e.capabilitySuccess
	}
	if len(samples) >= e.cfg.SuccessRateWindow {
		rate := successRate(samples[len(samples)-e.cfg.SuccessRateWindow:])
		if rate < e.cfg.LowSuccessRate {
			e.raiseAlertLocked(models.Alert{
				Type:      models.AlertLowSuccessRate,
				Path:      event.Path,
				Message:   fmt.Sprintf("%s success rate %.0f%% over last %d requests (floor %.0f%%)", event.Path, rate*100, e.cfg.SuccessRateWindow, e.cfg.LowSuccessRate*100),
				Value:     rate,
				Threshold: e.cfg.LowSuccessRate,
				Timestamp: event.Timestamp,
			})
		}
	}
}

func (e *Engine) raiseAlertLocked(alert models.Alert) {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}
	e.alerts = append(e.alerts, alert)
	e.alerts = trim(e.alerts, e.cfg.AlertCap)

	if e.instruments != nil {
		e.instruments.RecordAlert(alert)
	}

	if e.publisher != nil {
		go func(a models.Alert) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := e.publisher.PublishAlert(ctx, a); err != nil {
				log.Printf("⚠️  [METRICS] Failed to publish alert: %v", err)
			}
		}(alert)
	}
}

func successRate(samples []bool) float64 {
	if len(samples) == 0 {
		return 0
	}
	hits := 0
	for _, ok := range samples {
		if ok {
			hits++
		}
	}
	return float64(hits) / float64(len(samples))
}
