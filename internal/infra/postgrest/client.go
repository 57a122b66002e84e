// Package postgrest persists boletos, sequence counters and audit entries
// through a PostgREST-style relational store. The engine behind it is someone
// else's concern; this adapter only needs generic CRUD plus unique-constraint
// signaling, which PostgREST exposes as HTTP status codes.
package postgrest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/agrovale/cobranca-bb-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("postgrest")

// duplicate key violations surface from PostgREST as 409.
const statusConflict = http.StatusConflict

// Client wraps HTTP calls to the PostgREST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewClient creates a PostgREST client.
func NewClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

// errConflictRow marks a unique-constraint or filtered-update miss at the
// HTTP layer; stores translate it into domain.ErrConflict with context.
type errConflictRow struct {
	path string
}

func (e *errConflictRow) Error() string {
	return "postgrest conflict: " + e.path
}

// doRequest executes an authenticated request. Returns the body and the
// affected-row count when PostgREST reports one (-1 when unknown).
func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		c.logger.Error("postgrest: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, -1, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation,count=exact")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("postgrest: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, -1, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, -1, err
	}

	if resp.StatusCode == statusConflict {
		return nil, -1, &errConflictRow{path: path}
	}
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, 0, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("postgrest: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, -1, fmt.Errorf("postgrest returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, contentRangeCount(resp.Header.Get("Content-Range")), nil
}

// contentRangeCount parses the total from a "0-4/5" style Content-Range.
func contentRangeCount(h string) int {
	if h == "" {
		return -1
	}
	parts := strings.SplitN(h, "/", 2)
	if len(parts) != 2 || parts[1] == "*" {
		return -1
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return -1
	}
	return n
}

// withRetry wraps an idempotent store call with the breaker + backoff.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
	})
	return err
}

// once wraps a mutating store call with the breaker only; mutations are not
// blindly retried.
func (c *Client) once(fn func() error) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}
