// Package pipeline drives the end-to-end voice command sequence:
// classify, route, execute, respond, record, persist.
package pipeline

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"jarvislive/internal/capability"
	"jarvislive/internal/generative"
	"jarvislive/internal/logging"
	"jarvislive/internal/models"
	"jarvislive/internal/routing"
)

// apologyResponse is the only failure text ever shown to the user. Raw
// technical errors never surface through RESPOND.
const apologyResponse = "I'm sorry, I couldn't process that request. Could you try again?"

// errFallbackBrokeContract marks the not-expected-by-contract case where the
// generative fallback returned empty text.
var errFallbackBrokeContract = errors.New("generative fallback returned empty text")

// Classifier resolves a transcript to an intent.
type Classifier interface {
	Classify(ctx context.Context, text, userID string) (*models.ClassificationResult, error)
}

// Sink is the external append-only conversation store.
type Sink interface {
	AppendTurn(ctx context.Context, sessionID, role, content string, metadata map[string]string) error
}

// Recorder ingests processing events off the critical path.
type Recorder interface {
	Record(event models.ProcessingEvent)
}

// ActivitySink receives the final response for delivery to the caller's
// session (e.g. over WebSocket).
type ActivitySink interface {
	Deliver(sessionID, text string, complete bool)
}

// Orchestrator owns the per-request state machine. One request per session
// is in flight at a time, enforced by a per-session lock rather than an
// advisory flag.
type Orchestrator struct {
	classifier   Classifier
	router       *routing.Router
	capabilities *capability.Registry
	fallback     generative.Fallback
	sink         Sink
	recorder     Recorder
	activity     ActivitySink

	capabilityTimeout time.Duration
	historyCap        int

	mu      sync.Mutex
	history []models.ProcessingRecord

	sessionMu    sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

// Options wires the orchestrator's collaborators. Sink, Recorder, and
// ActivitySink are optional; the rest are required.
type Options struct {
	Classifier        Classifier
	Router            *routing.Router
	Capabilities      *capability.Registry
	Fallback          generative.Fallback
	Sink              Sink
	Recorder          Recorder
	Activity          ActivitySink
	CapabilityTimeout time.Duration
	HistoryCap        int
}

// NewOrchestrator creates the pipeline orchestrator.
func NewOrchestrator(opts Options) *Orchestrator {
	timeout := opts.CapabilityTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	historyCap := opts.HistoryCap
	if historyCap <= 0 {
		historyCap = 100
	}
	return &Orchestrator{
		classifier:        opts.Classifier,
		router:            opts.Router,
		capabilities:      opts.Capabilities,
		fallback:          opts.Fallback,
		sink:              opts.Sink,
		recorder:          opts.Recorder,
		activity:          opts.Activity,
		capabilityTimeout: timeout,
		historyCap:        historyCap,
		sessionLocks:      make(map[string]*sync.Mutex),
	}
}

// ProcessVoiceCommand runs one transcript through the full pipeline and
// returns the immutable processing record. It never fails: every error is
// folded into the record and a plain-language response.
func (o *Orchestrator) ProcessVoiceCommand(ctx context.Context, text, sessionID string) *models.ProcessingRecord {
	// Serialize per session so overlapping requests cannot interleave
	// history and metrics mutation.
	lock := o.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	requestID := uuid.New().String()
	logger := logging.WithRequest(requestID, sessionID)

	record := &models.ProcessingRecord{
		ID:        requestID,
		SessionID: sessionID,
		Timestamp: start,
	}

	// CLASSIFY
	classification, err := o.classifier.Classify(ctx, text, sessionID)
	if err != nil {
		logger.Warn("classification failed", "error", err)
		record.Classification = &models.ClassificationResult{
			Text:       text,
			Intent:     models.IntentUnknown,
			Confidence: 0,
			Parameters: map[string]interface{}{"text": text},
			Source:     models.SourceLocal,
			Timestamp:  start,
		}
		record.Response = apologyResponse
		record.Path = models.PathFallback
		o.finish(ctx, record, start, err.Error())
		return record
	}
	record.Classification = classification
	logger = logging.WithIntent(logger, string(classification.Intent), classification.Confidence)

	// ROUTE + EXECUTE
	response, path, usedCapability, execErr := o.execute(ctx, text, classification, logger)
	record.Response = response
	record.Path = path
	record.UsedCapability = usedCapability

	errText := ""
	if execErr != nil {
		errText = execErr.Error()
	}
	o.finish(ctx, record, start, errText)
	return record
}

// execute runs the routing decision and the chosen path, falling back
// exactly once when capability execution fails.
func (o *Orchestrator) execute(ctx context.Context, text string, classification *models.ClassificationResult, logger *slog.Logger) (string, models.PathType, bool, error) {
	if o.router.ShouldRouteToCapability(classification, nil) {
		execCtx, cancel := context.WithTimeout(ctx, o.capabilityTimeout)
		result, err := o.capabilities.Execute(execCtx, classification.Intent, classification.Parameters)
		cancel()
		if err == nil && result != "" {
			logger.Info("capability execution succeeded")
			return result, models.PathCapability, true, nil
		}

		// Exactly one retry through the generative fallback; never a
		// silent empty response.
		logger.Warn("capability execution failed, falling back", "error", err)
		if response := o.fallback.Generate(ctx, text, classification); response != "" {
			return response, models.PathHybrid, false, nil
		}
		return apologyResponse, models.PathHybrid, false, errFallbackBrokeContract
	}

	if response := o.fallback.Generate(ctx, text, classification); response != "" {
		return response, models.PathFallback, false, nil
	}
	return apologyResponse, models.PathFallback, false, errFallbackBrokeContract
}

// finish runs RESPOND, RECORD, and PERSIST. It always completes, even for
// abandoned requests, so accounting stays consistent.
func (o *Orchestrator) finish(ctx context.Context, record *models.ProcessingRecord, start time.Time, errText string) {
	record.TotalTime = time.Since(start)
	record.Success = errText == ""

	// RESPOND
	if o.activity != nil {
		o.activity.Deliver(record.SessionID, record.Response, true)
	}

	// RECORD: history append plus async metrics ingestion.
	o.mu.Lock()
	o.history = append(o.history, *record)
	if len(o.history) > o.historyCap {
		o.history = append([]models.ProcessingRecord(nil), o.history[len(o.history)-o.historyCap:]...)
	}
	o.mu.Unlock()

	if o.recorder != nil {
		o.recorder.Record(models.ProcessingEvent{
			Path:      servingPath(record.Path),
			Intent:    record.Classification.Intent,
			Elapsed:   record.TotalTime,
			Success:   record.Success,
			Error:     errText,
			Timestamp: record.Timestamp,
		})
	}

	// PERSIST: failures are logged and never roll back the response that
	// was already delivered. Uses its own context so caller abandonment
	// cannot skip accounting.
	if o.sink != nil {
		persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		meta := map[string]string{
			"intent": string(record.Classification.Intent),
			"path":   string(record.Path),
		}
		if err := o.sink.AppendTurn(persistCtx, record.SessionID, "user", record.Classification.Text, nil); err != nil {
			log.Printf("⚠️  [PIPELINE] Failed to persist user turn: %v", err)
		}
		if err := o.sink.AppendTurn(persistCtx, record.SessionID, "assistant", record.Response, meta); err != nil {
			log.Printf("⚠️  [PIPELINE] Failed to persist assistant turn: %v", err)
		}
	}
}

// servingPath maps the record path to the path that actually served the
// response: hybrid records were served by the fallback.
func servingPath(path models.PathType) models.PathType {
	if path == models.PathCapability {
		return models.PathCapability
	}
	return models.PathFallback
}

// History returns up to limit most recent processing records, newest last.
func (o *Orchestrator) History(limit int) []models.ProcessingRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	if limit <= 0 || limit > len(o.history) {
		limit = len(o.history)
	}
	out := make([]models.ProcessingRecord, limit)
	copy(out, o.history[len(o.history)-limit:])
	return out
}

func (o *Orchestrator) sessionLock(sessionID string) *sync.Mutex {
	o.sessionMu.Lock()
	defer o.sessionMu.Unlock()
	lock, ok := o.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		o.sessionLocks[sessionID] = lock
	}
	return lock
}
