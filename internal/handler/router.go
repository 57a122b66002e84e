package handler

import (
	"net/http"

	"github.com/agrovale/cobranca-bb-go/internal/infra/observability"
	"github.com/agrovale/cobranca-bb-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps bundles everything the router needs.
type Deps struct {
	Boletos      *service.BoletoService
	Pagamentos   *service.PagamentoService
	Pix          *service.PixService
	Certificados *service.CertificadoService
	Metrics      *observability.Metrics
	Logger       *zap.Logger

	JWTSecret     string
	WebhookSecret string
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(d.Logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- Bank callback, authenticated by shared-secret HMAC ---
	r.Group(func(r chi.Router) {
		r.Use(WebhookHMACMiddleware(d.WebhookSecret, d.Logger))
		r.Post("/webhooks/bb/pagamento", paymentWebhookHandler(d.Boletos, d.Logger))
	})

	// --- API v1, operator-authenticated ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(JWTAuthMiddleware(d.JWTSecret, d.Logger))

		// Cobrança
		r.Post("/boletos", issueBoletoHandler(d.Boletos, d.Logger))
		r.Get("/boletos", listBoletosHandler(d.Boletos, d.Logger))
		r.Get("/boletos/{boletoId}", getBoletoHandler(d.Boletos, d.Logger))
		r.Patch("/boletos/{boletoId}", alterBoletoHandler(d.Boletos, d.Logger))
		r.Post("/boletos/{boletoId}/baixa", baixarBoletoHandler(d.Boletos, d.Logger))
		r.Get("/boletos/{boletoId}/banco", bankStatusHandler(d.Boletos, d.Logger))

		// Pagamentos em lote
		r.Post("/lotes/pix", submitPixBatchHandler(d.Pagamentos, d.Logger))
		r.Post("/lotes/boletos", submitBoletoBatchHandler(d.Pagamentos, d.Logger))
		r.Post("/lotes/guias", submitGuiaBatchHandler(d.Pagamentos, d.Logger))
		r.Get("/lotes/{numeroRequisicao}", getBatchHandler(d.Pagamentos, d.Logger))
		r.Post("/lotes/{numeroRequisicao}/liberar", releaseBatchHandler(d.Pagamentos, d.Logger))
		r.Post("/pagamentos/cancelar", cancelPaymentsHandler(d.Pagamentos, d.Logger))

		// PIX recebimentos
		r.Get("/pix/recebidos", pixRecebidosHandler(d.Pix, d.Logger))

		// Certificados
		r.Get("/certificados", certificateReportHandler(d.Certificados, d.Logger))
		r.Post("/certificados/verificar", certificateCheckHandler(d.Certificados, d.Logger))
	})

	return r
}
