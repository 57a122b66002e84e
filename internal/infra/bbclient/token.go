package bbclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/infra/cache"
	"github.com/agrovale/cobranca-bb-go/internal/infra/observability"

	"go.uber.org/zap"
)

// RefreshSkew is how early a cached token is discarded before its advertised
// expiry, so a token never dies mid-request.
const RefreshSkew = 60 * time.Second

// Credentials are the OAuth2 client-credentials for one product family.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Scope        string
}

// TokenSource acquires and caches OAuth2 client-credentials tokens for one
// product family. The cache TTL is the token lifetime minus RefreshSkew; an
// injected clock keeps the skew testable.
type TokenSource struct {
	httpClient *http.Client // mTLS auth client, no app-key header
	tokenURL   string
	creds      Credentials
	tokens     *cache.InMemory[string]
	metrics    *observability.Metrics
	logger     *zap.Logger

	mu sync.Mutex // serializes refreshes; readers hit the cache lock-free
}

// NewTokenSource creates a TokenSource with the real clock.
func NewTokenSource(httpClient *http.Client, tokenURL string, creds Credentials, metrics *observability.Metrics, logger *zap.Logger) *TokenSource {
	return NewTokenSourceWithClock(httpClient, tokenURL, creds, metrics, logger, time.Now)
}

// NewTokenSourceWithClock injects the clock (tests).
func NewTokenSourceWithClock(httpClient *http.Client, tokenURL string, creds Credentials, metrics *observability.Metrics, logger *zap.Logger, now func() time.Time) *TokenSource {
	return &TokenSource{
		httpClient: httpClient,
		tokenURL:   tokenURL,
		creds:      creds,
		tokens:     cache.NewWithClock[string](5*time.Minute, now),
		metrics:    metrics,
		logger:     logger,
	}
}

// Token returns a valid bearer token, refreshing it when the cached one is
// within RefreshSkew of expiry (the cache entry is already gone by then).
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	if tok, ok := ts.tokens.Get(ts.creds.ClientID); ok {
		return tok, nil
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	// Another caller may have refreshed while we waited on the lock.
	if tok, ok := ts.tokens.Get(ts.creds.ClientID); ok {
		return tok, nil
	}

	tok, expiresIn, err := ts.fetch(ctx)
	if err != nil {
		return "", err
	}

	ttl := expiresIn - RefreshSkew
	if ttl <= 0 {
		ttl = expiresIn / 2
	}
	ts.tokens.SetWithTTL(ts.creds.ClientID, tok, ttl)
	ts.metrics.IncrTokenRefresh()

	return tok, nil
}

func (ts *TokenSource) fetch(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if ts.creds.Scope != "" {
		form.Set("scope", ts.creds.Scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}

	basic := base64.StdEncoding.EncodeToString([]byte(ts.creds.ClientID + ":" + ts.creds.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", 0, &domain.ErrBankTransport{Operation: "oauth.token", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, &domain.ErrBankTransport{Operation: "oauth.token", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		ts.logger.Warn("oauth: token endpoint refused",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return "", 0, &domain.ErrUnauthorized{Message: fmt.Sprintf("token endpoint returned %d", resp.StatusCode)}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", 0, fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", 0, &domain.ErrUnauthorized{Message: "token endpoint returned empty access_token"}
	}

	ts.logger.Debug("oauth: token refreshed",
		zap.String("client_id", ts.creds.ClientID),
		zap.Int("expires_in", payload.ExpiresIn),
	)

	return payload.AccessToken, time.Duration(payload.ExpiresIn) * time.Second, nil
}
