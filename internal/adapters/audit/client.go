package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	pkglog "github.com/educonnect-africa/auth-service/pkg/log"
)

// Client records security events on an external sink. Recording is
// best-effort: callers never see a failure, it is only logged.
type Client interface {
	Record(ctx context.Context, event string, details map[string]interface{})
}

type httpClient struct {
	baseURL string
	client  *http.Client
	logger  pkglog.Logger
}

type noopClient struct{}

func (noopClient) Record(context.Context, string, map[string]interface{}) {}

// NewHTTPClient returns a client posting events to baseURL. An empty URL
// yields a no-op client.
func NewHTTPClient(baseURL string, timeout time.Duration, logger pkglog.Logger) Client {
	if baseURL == "" {
		return noopClient{}
	}
	return &httpClient{baseURL: baseURL, client: &http.Client{Timeout: timeout}, logger: logger}
}

type eventPayload struct {
	Event   string                 `json:"event"`
	Details map[string]interface{} `json:"details,omitempty"`
	At      time.Time              `json:"at"`
}

func (c *httpClient) Record(ctx context.Context, event string, details map[string]interface{}) {
	payload := eventPayload{Event: event, Details: details, At: time.Now().UTC()}
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Warn().Err(err).Str("event", event).Msg("audit marshal failed")
		return
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/events", bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("audit sink returned %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("audit sink rejected event: %d", resp.StatusCode))
		}
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		c.logger.Warn().Err(err).Str("event", event).Msg("audit event dropped")
	}
}
