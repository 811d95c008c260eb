package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"jarvislive/internal/models"
)

// HTTPBridge executes commands against a capability server over HTTP.
// It posts {intent, parameters} and expects {result} back. One bridge is
// registered per configured server URL.
type HTTPBridge struct {
	url    string
	client *http.Client
}

// NewHTTPBridge creates a bridge for one capability server endpoint.
func NewHTTPBridge(url string, timeout time.Duration) *HTTPBridge {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPBridge{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type bridgeRequest struct {
	Intent     models.Intent          `json:"intent"`
	Parameters map[string]interface{} `json:"parameters"`
}

type bridgeResponse struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Execute implements Executor. Timeouts and remote errors surface as plain
// errors; the pipeline treats any of them as a capability failure and falls
// back.
func (b *HTTPBridge) Execute(ctx context.Context, intent models.Intent, params map[string]interface{}) (string, error) {
	body, err := json.Marshal(bridgeRequest{Intent: intent, Parameters: params})
	if err != nil {
		return "", fmt.Errorf("failed to encode capability request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build capability request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("capability call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("capability server returned status %d", resp.StatusCode)
	}

	var out bridgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode capability response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("capability server error: %s", out.Error)
	}
	if out.Result == "" {
		return "", fmt.Errorf("capability server returned an empty result")
	}
	return out.Result, nil
}
