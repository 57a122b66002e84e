package service

import (
	"context"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var pixTracer = otel.Tracer("service/pix")

// PixService consults received PIX transactions.
type PixService struct {
	gateway port.BankGateway
	logger  *zap.Logger
}

// NewPixService creates the service.
func NewPixService(gateway port.BankGateway, logger *zap.Logger) *PixService {
	return &PixService{gateway: gateway, logger: logger}
}

// Recebidos queries received transactions for the window. The gateway caps
// the window size; FetchAll walks every page.
func (s *PixService) Recebidos(ctx context.Context, q *domain.PixReceivedQuery) (*domain.PixReceivedPage, error) {
	ctx, span := pixTracer.Start(ctx, "PixService.Recebidos")
	defer span.End()
	span.SetAttributes(attribute.String("start", q.Start.Format(time.RFC3339)))

	return s.gateway.ConsultarPixRecebidos(ctx, q)
}

// Poll queries the last interval's received transactions on a fixed cadence,
// logging what arrived. It blocks until ctx is cancelled.
func (s *PixService) Poll(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		end := time.Now()
		page, err := s.Recebidos(ctx, &domain.PixReceivedQuery{
			Start:    end.Add(-interval),
			End:      end,
			FetchAll: true,
		})
		if err != nil {
			s.logger.Warn("consulta de pix recebidos falhou", zap.Error(err))
			continue
		}
		if len(page.Transactions) > 0 {
			s.logger.Info("pix recebidos",
				zap.Int("quantidade", len(page.Transactions)),
				zap.Time("inicio", end.Add(-interval)),
				zap.Time("fim", end),
			)
		}
	}
}
