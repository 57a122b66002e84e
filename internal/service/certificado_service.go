package service

import (
	"context"
	"fmt"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/infra/mtls"
	"github.com/agrovale/cobranca-bb-go/internal/infra/observability"
	"github.com/agrovale/cobranca-bb-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var certTracer = otel.Tracer("service/certificado")

// CertificadoService runs the expiry check over the mTLS certificate store
// and raises notifications for material that is expired or inside the
// warning window.
type CertificadoService struct {
	store    *mtls.Store
	notifier port.Notifier
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewCertificadoService creates the service.
func NewCertificadoService(store *mtls.Store, notifier port.Notifier, metrics *observability.Metrics, logger *zap.Logger) *CertificadoService {
	return &CertificadoService{store: store, notifier: notifier, metrics: metrics, logger: logger, now: time.Now}
}

// RunCheck executes one monitor pass, notifying for every certificate that
// is expired or expiring soon. A store parse failure does not kill the run
// silently: it becomes a monitor-error notification.
func (s *CertificadoService) RunCheck(ctx context.Context) (*domain.CertificateCheckReport, error) {
	return s.check(ctx, false)
}

// Simulate runs the same check without emitting expiry notifications. Used
// by the operational endpoint to preview what the next run would report.
func (s *CertificadoService) Simulate(ctx context.Context) (*domain.CertificateCheckReport, error) {
	return s.check(ctx, true)
}

func (s *CertificadoService) check(ctx context.Context, dryRun bool) (*domain.CertificateCheckReport, error) {
	ctx, span := certTracer.Start(ctx, "CertificadoService.check")
	defer span.End()

	now := s.now()
	records, err := s.store.Records(now)
	if err != nil {
		s.logger.Error("monitor de certificados falhou", zap.Error(err))
		if !dryRun {
			s.notify(ctx, domain.Notification{
				Event:    domain.EventMonitorError,
				Severity: domain.SeverityHigh,
				Message:  fmt.Sprintf("verificação de certificados falhou: %v", err),
				At:       now,
			})
		}
		return nil, err
	}

	report := &domain.CertificateCheckReport{
		CheckedAt: now,
		DryRun:    dryRun,
		Records:   records,
	}

	for _, rec := range records {
		s.metrics.SetCertificateDaysLeft(rec.Path, rec.DaysLeft)

		switch {
		case rec.IsExpired:
			report.Expired++
		case rec.IsExpiringSoon:
			report.Expiring++
		default:
			continue
		}

		s.logger.Warn("certificado expirado ou expirando",
			zap.String("familia", rec.Familia),
			zap.String("path", rec.Path),
			zap.Time("not_after", rec.NotAfter),
			zap.Int("days_left", rec.DaysLeft),
		)
		if dryRun {
			continue
		}
		s.notify(ctx, domain.Notification{
			Event:    domain.EventCertificateExpiry,
			Severity: domain.SeverityHigh,
			Message:  fmt.Sprintf("certificado %s (famílias: %s) expira em %d dias", rec.Path, rec.Familia, rec.DaysLeft),
			Details: map[string]any{
				"familia":    rec.Familia,
				"path":       rec.Path,
				"subject":    rec.Subject,
				"not_after":  rec.NotAfter.Format(time.RFC3339),
				"days_left":  rec.DaysLeft,
				"is_expired": rec.IsExpired,
			},
			At: now,
		})
	}

	return report, nil
}

// notify delivers best-effort; a notifier failure is logged, the check
// result stands.
func (s *CertificadoService) notify(ctx context.Context, n domain.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Error("falha ao notificar",
			zap.String("event", n.Event),
			zap.Error(err),
		)
	}
}
