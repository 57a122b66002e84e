// Package bbclient is the thin transport layer over the bank's Cobrança,
// Pagamentos and PIX APIs. It owns OAuth2 token caching, the app-key header
// (via the mTLS factory), and the retry discipline: reads go through the
// circuit breaker with backoff, submissions are fired exactly once and a
// timeout after send surfaces as an ambiguous outcome.
package bbclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/infra/observability"
	"github.com/agrovale/cobranca-bb-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("bbclient")

// channel bundles the mTLS client, token source and base URL of one product
// family.
type channel struct {
	http    *http.Client
	tokens  *TokenSource
	baseURL string
}

// Config holds the gateway endpoints and limits.
type Config struct {
	CobrancaBaseURL   string
	PagamentosBaseURL string
	PixBaseURL        string

	// PixMaxWindow caps the date range of received-transaction queries.
	PixMaxWindow time.Duration
}

// Client implements port.BankGateway.
type Client struct {
	cobranca   channel
	pagamentos channel
	pix        channel

	cfg      Config
	cb       *gobreaker.CircuitBreaker
	res      resilience.Config
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// Channel wiring handed in by main: one mTLS client + token source per
// product family.
type ChannelDeps struct {
	HTTP   *http.Client
	Tokens *TokenSource
}

// NewClient creates the gateway.
func NewClient(cfg Config, cobranca, pagamentos, pix ChannelDeps, cb *gobreaker.CircuitBreaker, res resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		cobranca:   channel{http: cobranca.HTTP, tokens: cobranca.Tokens, baseURL: cfg.CobrancaBaseURL},
		pagamentos: channel{http: pagamentos.HTTP, tokens: pagamentos.Tokens, baseURL: cfg.PagamentosBaseURL},
		pix:        channel{http: pix.HTTP, tokens: pix.Tokens, baseURL: cfg.PixBaseURL},
		cfg:        cfg,
		cb:         cb,
		res:        res,
		bulkhead:   resilience.NewBulkhead(res.MaxConcurrency),
		metrics:    metrics,
		logger:     logger,
	}
}

// bankError is the bank's structured error body.
type bankError struct {
	Erros []struct {
		Codigo   string `json:"codigo"`
		Mensagem string `json:"mensagem"`
	} `json:"erros"`
}

// doRead executes an idempotent GET with breaker + retry.
func (c *Client) doRead(ctx context.Context, ch channel, operation, path string, out any) error {
	ctx, span := tracer.Start(ctx, "BB."+operation)
	defer span.End()
	span.SetAttributes(attribute.String("bb.operation", operation))

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.res, func() error {
			return c.roundTrip(ctx, ch, operation, http.MethodGet, path, nil, out)
		})
	})
	if err != nil {
		return c.classify(operation, "", err)
	}
	return nil
}

// doSend executes a non-idempotent call exactly once. ref identifies the
// request (requisition number, nosso número) for reconciliation when the
// outcome is ambiguous.
func (c *Client) doSend(ctx context.Context, ch channel, operation, method, path, ref string, body, out any) error {
	ctx, span := tracer.Start(ctx, "BB."+operation)
	defer span.End()
	span.SetAttributes(attribute.String("bb.operation", operation), attribute.String("bb.ref", ref))

	// Still behind the breaker: an open circuit refuses before anything is
	// sent, which is always safe.
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, ch, operation, method, path, body, out)
	})
	if err != nil {
		return c.classify(operation, ref, err)
	}
	return nil
}

// roundTrip performs one authenticated HTTP exchange.
func (c *Client) roundTrip(ctx context.Context, ch channel, operation, method, path string, body, out any) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, ch.baseURL+path, reader)
	if err != nil {
		return err
	}

	token, err := ch.tokens.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.metrics.IncrBankCall(operation)

	resp, err := ch.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rejected := &domain.ErrBankRejected{Operation: operation, Status: resp.StatusCode}
		var be bankError
		if jsonErr := json.Unmarshal(respBody, &be); jsonErr == nil && len(be.Erros) > 0 {
			rejected.Code = be.Erros[0].Codigo
			rejected.Message = be.Erros[0].Mensagem
		} else {
			rejected.Message = string(respBody)
		}
		c.logger.Warn("bb: request rejected",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("code", rejected.Code),
			zap.String("message", rejected.Message),
		)
		return rejected
	}

	c.logger.Debug("bb: request OK",
		zap.String("operation", operation),
		zap.Int("status", resp.StatusCode),
	)

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
	}
	return nil
}

// classify maps raw failures onto the error taxonomy. Rejections pass
// through; timeouts on sends become ambiguous outcomes because the request
// may have reached the bank.
func (c *Client) classify(operation, ref string, err error) error {
	var rejected *domain.ErrBankRejected
	if errors.As(err, &rejected) {
		c.metrics.IncrBankError(operation, "rejected")
		return rejected
	}
	var unauthorized *domain.ErrUnauthorized
	if errors.As(err, &unauthorized) {
		c.metrics.IncrBankError(operation, "unauthorized")
		return unauthorized
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.metrics.IncrBankError(operation, "circuit_open")
		return &domain.ErrCircuitOpen{Service: "bb/" + operation}
	}

	if ref != "" && isTimeout(err) {
		c.metrics.IncrBankError(operation, "ambiguous")
		return &domain.ErrAmbiguousOutcome{Operation: operation, Reference: ref, Err: err}
	}

	c.metrics.IncrBankError(operation, "transport")
	return &domain.ErrBankTransport{Operation: operation, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
