// Package routing decides whether a classified command goes to capability
// execution or to the generative fallback.
package routing

import (
	"fmt"

	"jarvislive/internal/models"
)

// Decision explains one routing outcome.
type Decision struct {
	UseCapability bool     `json:"use_capability"`
	Servers       []string `json:"servers,omitempty"`
	Reason        string   `json:"reason"`
}

// Router applies the capability-routing rule: confidence must clear the
// routing threshold AND at least one capability signal must be present,
// either the intent's static server list or an externally recommended list.
type Router struct {
	threshold float64
}

// NewRouter creates a router. The threshold is distinct from (and typically
// lower than) the classifier's acceptance threshold.
func NewRouter(threshold float64) *Router {
	if threshold <= 0 {
		threshold = 0.6
	}
	return &Router{threshold: threshold}
}

// ShouldRouteToCapability reports whether the classification is
// capability-eligible. Absence of either signal means the generative
// fallback path.
func (r *Router) ShouldRouteToCapability(result *models.ClassificationResult, recommended []string) bool {
	return r.Decide(result, recommended).UseCapability
}

// Decide returns the routing decision with its reasoning, for status output
// and tests.
func (r *Router) Decide(result *models.ClassificationResult, recommended []string) Decision {
	if result == nil {
		return Decision{Reason: "no classification"}
	}
	if result.Confidence < r.threshold {
		return Decision{Reason: fmt.Sprintf("confidence %.2f below routing threshold %.2f", result.Confidence, r.threshold)}
	}

	servers := result.Intent.CapabilityServers()
	if len(servers) == 0 {
		servers = recommended
	}
	if len(servers) == 0 {
		return Decision{Reason: fmt.Sprintf("intent %s has no capability servers", result.Intent)}
	}

	return Decision{
		UseCapability: true,
		Servers:       servers,
		Reason:        fmt.Sprintf("confidence %.2f with %d capability server(s)", result.Confidence, len(servers)),
	}
}
