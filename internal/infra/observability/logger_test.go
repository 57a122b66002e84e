package observability_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agrovale/cobranca-bb-go/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newLoggedRouter(t *testing.T) (*chi.Mux, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.InfoLevel)
	r := chi.NewRouter()
	r.Use(observability.ZapLoggerMiddleware(zap.New(core)))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/v1/boletos/{boletoId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/v1/lotes/{numeroRequisicao}/liberar", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r, logs
}

func TestZapLoggerMiddleware_QuietsProbeEndpoints(t *testing.T) {
	router, logs := newLoggedRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if logs.Len() != 0 {
		t.Errorf("probe endpoints must not be logged, got %d entries", logs.Len())
	}
}

func TestZapLoggerMiddleware_LogsCorrelationFields(t *testing.T) {
	router, logs := newLoggedRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/boletos/b-123", nil))

	if logs.Len() != 1 {
		t.Fatalf("expected one log entry, got %d", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["boleto_id"] != "b-123" {
		t.Errorf("expected boleto_id b-123, got %v", fields["boleto_id"])
	}
	if fields["status"] != int64(http.StatusOK) {
		t.Errorf("expected status 200, got %v", fields["status"])
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/lotes/900001/liberar", nil))

	fields = logs.All()[1].ContextMap()
	if fields["numero_requisicao"] != "900001" {
		t.Errorf("expected numero_requisicao 900001, got %v", fields["numero_requisicao"])
	}
}
