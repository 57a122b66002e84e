package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the integration core.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	bankErrors      *prometheus.CounterVec
	bankCalls       *prometheus.CounterVec
	webhooksTotal   *prometheus.CounterVec
	batchLines      *prometheus.CounterVec
	certDaysLeft    *prometheus.GaugeVec
	tokenRefreshes  prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cobranca_request_duration_seconds",
				Help:    "Duration of operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		bankErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cobranca_bank_errors_total",
				Help: "Total errors from bank API calls.",
			},
			[]string{"operation", "kind"},
		),
		bankCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cobranca_bank_calls_total",
				Help: "Total bank API calls by operation.",
			},
			[]string{"operation"},
		),
		webhooksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cobranca_webhooks_total",
				Help: "Total inbound payment webhooks by outcome.",
			},
			[]string{"outcome"},
		),
		batchLines: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cobranca_batch_lines_total",
				Help: "Batch line items by batch type and validity.",
			},
			[]string{"type", "validity"},
		),
		certDaysLeft: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cobranca_certificate_days_left",
				Help: "Days until NotAfter per certificate path.",
			},
			[]string{"path"},
		),
		tokenRefreshes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cobranca_oauth_token_refreshes_total",
				Help: "OAuth2 client-credentials token refreshes.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrBankCall counts a bank API round-trip.
func (m *Metrics) IncrBankCall(operation string) {
	m.bankCalls.WithLabelValues(operation).Inc()
}

// IncrBankError counts a failed bank call by kind (transport, rejected,
// ambiguous).
func (m *Metrics) IncrBankError(operation, kind string) {
	m.bankErrors.WithLabelValues(operation, kind).Inc()
}

// IncrWebhook counts an inbound webhook by outcome (confirmed, duplicate,
// unknown, rejected).
func (m *Metrics) IncrWebhook(outcome string) {
	m.webhooksTotal.WithLabelValues(outcome).Inc()
}

// AddBatchLines counts submitted batch lines by validity.
func (m *Metrics) AddBatchLines(batchType string, valid, invalid int) {
	m.batchLines.WithLabelValues(batchType, "valid").Add(float64(valid))
	m.batchLines.WithLabelValues(batchType, "invalid").Add(float64(invalid))
}

// SetCertificateDaysLeft publishes the expiry horizon of a certificate.
func (m *Metrics) SetCertificateDaysLeft(path string, days int) {
	m.certDaysLeft.WithLabelValues(path).Set(float64(days))
}

// IncrTokenRefresh counts an OAuth2 token refresh.
func (m *Metrics) IncrTokenRefresh() {
	m.tokenRefreshes.Inc()
}

// WebhookCount returns the cumulative webhook count for an outcome; used by
// the operational snapshot endpoint.
func (m *Metrics) WebhookCount(outcome string) float64 {
	return getCounterValue(m.webhooksTotal, outcome)
}

// BankErrorCount returns the cumulative bank-error count for an operation and
// kind.
func (m *Metrics) BankErrorCount(operation, kind string) float64 {
	return getCounterValue(m.bankErrors, operation, kind)
}

// getCounterValue extracts the current float64 value from a CounterVec for the
// given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
