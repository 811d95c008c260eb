package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"jarvislive/internal/models"
)

// RemoteClassifier consults a remote classification service with a local
// TTL cache and a client-side rate limit. Any remote failure degrades to
// the local pattern classifier; the caller always gets a result.
type RemoteClassifier struct {
	url     string
	client  *http.Client
	cache   *gocache.Cache
	limiter *rate.Limiter
	local   *Service
}

// RemoteOptions configures the remote adapter.
type RemoteOptions struct {
	URL        string
	CacheTTL   time.Duration
	RatePerSec float64
	Timeout    time.Duration
	Local      *Service
}

// NewRemoteClassifier creates the adapter. Local must be non-nil: it is the
// contractual fallback source.
func NewRemoteClassifier(opts RemoteOptions) *RemoteClassifier {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	rps := opts.RatePerSec
	if rps <= 0 {
		rps = 5
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &RemoteClassifier{
		url:     opts.URL,
		client:  &http.Client{Timeout: timeout},
		cache:   gocache.New(ttl, 2*ttl),
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		local:   opts.Local,
	}
}

// remoteResponse is the wire shape of the remote service's answer.
type remoteResponse struct {
	Intent     string                 `json:"intent"`
	Confidence float64                `json:"confidence"`
	Parameters map[string]interface{} `json:"parameters"`
}

// Classify returns a classification and the source that produced it:
// remote, cached, or local_fallback.
func (r *RemoteClassifier) Classify(ctx context.Context, text, userID string) (*models.ClassificationResult, models.ClassificationSource) {
	key := Normalize(text)

	if cached, ok := r.cache.Get(key); ok {
		result := cached.(models.ClassificationResult)
		result.Timestamp = time.Now()
		result.Source = models.SourceCached
		return &result, models.SourceCached
	}

	if !r.limiter.Allow() {
		return r.fallback(ctx, text, userID, fmt.Errorf("rate limit reached"))
	}

	result, err := r.classifyRemote(ctx, text)
	if err != nil {
		return r.fallback(ctx, text, userID, err)
	}

	r.cache.SetDefault(key, *result)
	return result, models.SourceRemote
}

func (r *RemoteClassifier) classifyRemote(ctx context.Context, text string) (*models.ClassificationResult, error) {
	start := time.Now()

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote classification call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote classification returned status %d", resp.StatusCode)
	}

	var remote remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return nil, fmt.Errorf("failed to decode remote response: %w", err)
	}

	return &models.ClassificationResult{
		Text:        text,
		Intent:      models.Intent(remote.Intent),
		Confidence:  clamp01(remote.Confidence),
		Parameters:  remote.Parameters,
		Source:      models.SourceRemote,
		Timestamp:   start,
		ElapsedTime: time.Since(start),
	}, nil
}

func (r *RemoteClassifier) fallback(ctx context.Context, text, userID string, cause error) (*models.ClassificationResult, models.ClassificationSource) {
	log.Printf("⚠️  [REMOTE-CLASSIFIER] Falling back to local classifier: %v", cause)
	result, err := r.local.Classify(ctx, text, userID)
	if err != nil {
		// Blank transcript: surface the degraded floor result directly.
		result = &models.ClassificationResult{
			Text:       text,
			Intent:     models.IntentUnknown,
			Confidence: 0,
			Parameters: map[string]interface{}{"text": text},
			Timestamp:  time.Now(),
		}
	}
	result.Source = models.SourceLocalFallback
	return result, models.SourceLocalFallback
}
