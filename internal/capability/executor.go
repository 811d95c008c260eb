// Package capability defines the interface the pipeline uses to execute a
// classified command against an external capability (MCP) server, and the
// registry mapping intents to executors.
package capability

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"jarvislive/internal/models"
)

// ErrNoExecutor is returned when no executor is registered for an intent.
var ErrNoExecutor = errors.New("no capability executor for intent")

// Executor performs a concrete action for one classified command.
// Implementations are external: document generation, email sending, search,
// calendar, storage.
type Executor interface {
	Execute(ctx context.Context, intent models.Intent, params map[string]interface{}) (string, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, intent models.Intent, params map[string]interface{}) (string, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, intent models.Intent, params map[string]interface{}) (string, error) {
	return f(ctx, intent, params)
}

// Registry maps intents to their capability executors.
type Registry struct {
	mu        sync.RWMutex
	executors map[models.Intent]Executor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[models.Intent]Executor)}
}

// Register wires an executor for an intent, replacing any existing one.
func (r *Registry) Register(intent models.Intent, executor Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[intent] = executor
	log.Printf("🔌 Capability executor registered for intent %s", intent)
}

// Get returns the executor for an intent.
func (r *Registry) Get(intent models.Intent) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	executor, ok := r.executors[intent]
	return executor, ok
}

// Execute dispatches to the registered executor for the intent.
func (r *Registry) Execute(ctx context.Context, intent models.Intent, params map[string]interface{}) (string, error) {
	executor, ok := r.Get(intent)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoExecutor, intent)
	}
	return executor.Execute(ctx, intent, params)
}

// Intents returns the intents that currently have an executor.
func (r *Registry) Intents() []models.Intent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	intents := make([]models.Intent, 0, len(r.executors))
	for intent := range r.executors {
		intents = append(intents, intent)
	}
	return intents
}
