package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/wayfarer-ai/wayfarer/internal/observability"
)

const (
	defaultAttempts       = 3
	defaultInitialBackoff = 500 * time.Millisecond
	defaultAttemptTimeout = 8 * time.Second
)

// ClientConfig tunes the retrying HTTP helper. Zero values fall back to the
// defaults above.
type ClientConfig struct {
	Attempts       int
	InitialBackoff time.Duration
	AttemptTimeout time.Duration
}

// Client performs JSON GET requests with bounded retries. Exhausted retries
// surface as an error payload value, never as a returned error: downstream
// stages treat provider failures as data.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = defaultAttemptTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: logger,
	}
}

// GetJSON fetches rawURL with the given query parameters and decodes the JSON
// response. On exhaustion it returns ErrorPayload(err, rawURL, params).
func (c *Client) GetJSON(ctx context.Context, rawURL string, params map[string]string) map[string]any {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	var payload map[string]any
	op := func() error {
		p, err := c.attempt(ctx, rawURL, params)
		if err != nil {
			return err
		}
		payload = p
		return nil
	}
	notify := func(err error, wait time.Duration) {
		observability.FetchRetries.WithLabelValues(hostOf(rawURL)).Inc()
		c.logger.Debug("fetch attempt failed, backing off",
			zap.String("url", rawURL),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	err := backoff.RetryNotify(op,
		backoff.WithMaxRetries(backoff.WithContext(bo, ctx), uint64(c.cfg.Attempts-1)),
		notify)
	if err != nil {
		c.logger.Warn("fetch exhausted retries", zap.String("url", rawURL), zap.Error(err))
		return ErrorPayload(err, rawURL, params)
	}
	return payload
}

func (c *Client) attempt(ctx context.Context, rawURL string, params map[string]string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return payload, nil
}

// ErrorPayload builds the in-band stand-in for a failed fetch.
func ErrorPayload(err error, url string, params map[string]string) map[string]any {
	p := map[string]any{
		"error": err.Error(),
		"url":   url,
	}
	if len(params) > 0 {
		p["params"] = params
	}
	return p
}

// IsErrorPayload reports whether a payload is a fetch failure stand-in.
func IsErrorPayload(payload map[string]any) bool {
	_, ok := payload["error"]
	return ok
}

func hostOf(rawURL string) string {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return "invalid"
	}
	return req.URL.Host
}
