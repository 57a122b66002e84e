package bbclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/infra/bbclient"
	"github.com/agrovale/cobranca-bb-go/internal/infra/observability"

	"go.uber.org/zap"
)

func tokenServer(t *testing.T, calls *atomic.Int32, expiresIn int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") == "" {
			t.Error("expected Basic auth header")
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("expected client_credentials grant, got %q", r.PostForm.Get("grant_type"))
		}
		n := calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": fmt.Sprintf("tok-%d", n),
			"token_type":   "Bearer",
			"expires_in":   expiresIn,
		})
	}))
}

func TestTokenSource_CachesUntilSkew(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls, 600)
	defer srv.Close()

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	ts := bbclient.NewTokenSourceWithClock(
		srv.Client(),
		srv.URL,
		bbclient.Credentials{ClientID: "cid", ClientSecret: "secret", Scope: "cobrancas.boletos-requisicao"},
		observability.NewMetrics(),
		zap.NewNop(),
		func() time.Time { return now },
	)

	tok, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tok != "tok-1" {
		t.Errorf("expected tok-1, got %q", tok)
	}

	// Well inside the lifetime: cached.
	now = now.Add(8 * time.Minute)
	if tok, _ := ts.Token(context.Background()); tok != "tok-1" {
		t.Errorf("expected cached tok-1, got %q", tok)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 fetch, got %d", calls.Load())
	}

	// 600s lifetime minus 60s skew = 540s. At 9m1s the entry is gone.
	now = now.Add(1*time.Minute + time.Second)
	tok, err = ts.Token(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tok != "tok-2" {
		t.Errorf("expected refreshed tok-2, got %q", tok)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 fetches, got %d", calls.Load())
	}
}

func TestTokenSource_ShortLivedTokenHalvesTTL(t *testing.T) {
	var calls atomic.Int32
	srv := tokenServer(t, &calls, 40) // below the skew
	defer srv.Close()

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	ts := bbclient.NewTokenSourceWithClock(
		srv.Client(), srv.URL,
		bbclient.Credentials{ClientID: "cid", ClientSecret: "secret"},
		observability.NewMetrics(), zap.NewNop(),
		func() time.Time { return now },
	)

	if _, err := ts.Token(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// TTL falls back to expires_in/2 = 20s.
	now = now.Add(19 * time.Second)
	ts.Token(context.Background())
	if calls.Load() != 1 {
		t.Fatalf("expected cached token at 19s, got %d fetches", calls.Load())
	}

	now = now.Add(2 * time.Second)
	ts.Token(context.Background())
	if calls.Load() != 2 {
		t.Fatalf("expected refresh at 21s, got %d fetches", calls.Load())
	}
}

func TestTokenSource_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	ts := bbclient.NewTokenSource(
		srv.Client(), srv.URL,
		bbclient.Credentials{ClientID: "cid", ClientSecret: "wrong"},
		observability.NewMetrics(), zap.NewNop(),
	)

	_, err := ts.Token(context.Background())
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
