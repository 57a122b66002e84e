package service

import (
	"context"
	"fmt"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/format"
	"github.com/agrovale/cobranca-bb-go/internal/infra/observability"
	"github.com/agrovale/cobranca-bb-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var pagamentoTracer = otel.Tracer("service/pagamento")

// PagamentoService orchestrates payment batches (PIX transfers, boleto
// payments, guias). Lines are validated locally before anything touches the
// bank; invalid lines are reported in the result, never thrown, and only the
// valid subset is submitted.
type PagamentoService struct {
	gateway port.BankGateway
	audit   port.AuditStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewPagamentoService creates the service.
func NewPagamentoService(gateway port.BankGateway, audit port.AuditStore, metrics *observability.Metrics, logger *zap.Logger) *PagamentoService {
	return &PagamentoService{gateway: gateway, audit: audit, metrics: metrics, logger: logger}
}

// SubmitPixBatch validates and submits a PIX transfer batch.
//
// A batch over the bank's line cap fails as a whole before any network
// activity; per-line problems never do.
func (s *PagamentoService) SubmitPixBatch(ctx context.Context, numeroRequisicao, accountID string, lines []domain.PixLine, actor string) (*domain.BatchResult, error) {
	ctx, span := pagamentoTracer.Start(ctx, "PagamentoService.SubmitPixBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("lines", len(lines)))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("lote_pix", time.Since(start)) }()

	if err := checkBatchSize(len(lines), domain.MaxPixLines, "pix"); err != nil {
		return nil, err
	}
	if numeroRequisicao == "" {
		numeroRequisicao = newRequisitionNumber()
	}

	outcomes := make([]domain.LineOutcome, len(lines))
	var valid []domain.PixLine
	var validIdx []int
	var totalAmount, validAmount float64
	for i := range lines {
		totalAmount += lines[i].Amount
		outcomes[i] = domain.LineOutcome{Index: i}
		if v := format.ValidatePixLine(&lines[i]); len(v) > 0 {
			outcomes[i].Violations = v
			continue
		}
		outcomes[i].Valid = true
		validAmount += lines[i].Amount
		valid = append(valid, lines[i])
		validIdx = append(validIdx, i)
	}

	s.metrics.AddBatchLines("pix", len(valid), len(lines)-len(valid))

	result := &domain.BatchResult{
		NumeroRequisicao: numeroRequisicao,
		AccountID:        accountID,
		TotalLines:       len(lines),
		ValidLines:       len(valid),
		TotalAmount:      totalAmount,
		ValidAmount:      validAmount,
		Lines:            outcomes,
	}
	if len(valid) == 0 {
		result.Estado = "NAO_ENVIADO"
		return result, nil
	}

	bankResult, err := s.gateway.EnviarLotePix(ctx, numeroRequisicao, accountID, valid)
	if err != nil {
		return nil, err
	}
	mergeBankOutcomes(result, bankResult, validIdx)
	s.auditBatch(ctx, actor, numeroRequisicao, "pix", result)
	return result, nil
}

// SubmitBoletoPayments validates and submits a boleto-payment batch.
func (s *PagamentoService) SubmitBoletoPayments(ctx context.Context, numeroRequisicao, accountID string, lines []domain.BoletoPaymentLine, actor string) (*domain.BatchResult, error) {
	ctx, span := pagamentoTracer.Start(ctx, "PagamentoService.SubmitBoletoPayments")
	defer span.End()
	span.SetAttributes(attribute.Int("lines", len(lines)))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("lote_boletos", time.Since(start)) }()

	if err := checkBatchSize(len(lines), domain.MaxBoletoLines, "boleto"); err != nil {
		return nil, err
	}
	if numeroRequisicao == "" {
		numeroRequisicao = newRequisitionNumber()
	}

	outcomes := make([]domain.LineOutcome, len(lines))
	var valid []domain.BoletoPaymentLine
	var validIdx []int
	var totalAmount, validAmount float64
	for i := range lines {
		totalAmount += lines[i].Amount
		outcomes[i] = domain.LineOutcome{Index: i}
		if v := format.ValidateBarcodeLine(lines[i].CodigoBarras, lines[i].Amount, lines[i].Data); len(v) > 0 {
			outcomes[i].Violations = v
			continue
		}
		outcomes[i].Valid = true
		validAmount += lines[i].Amount
		valid = append(valid, lines[i])
		validIdx = append(validIdx, i)
	}

	s.metrics.AddBatchLines("boleto", len(valid), len(lines)-len(valid))

	result := &domain.BatchResult{
		NumeroRequisicao: numeroRequisicao,
		AccountID:        accountID,
		TotalLines:       len(lines),
		ValidLines:       len(valid),
		TotalAmount:      totalAmount,
		ValidAmount:      validAmount,
		Lines:            outcomes,
	}
	if len(valid) == 0 {
		result.Estado = "NAO_ENVIADO"
		return result, nil
	}

	bankResult, err := s.gateway.EnviarLoteBoletos(ctx, numeroRequisicao, accountID, valid)
	if err != nil {
		return nil, err
	}
	mergeBankOutcomes(result, bankResult, validIdx)
	s.auditBatch(ctx, actor, numeroRequisicao, "boleto", result)
	return result, nil
}

// SubmitGuiaPayments validates and submits a guia (tax/utility slip) batch.
func (s *PagamentoService) SubmitGuiaPayments(ctx context.Context, numeroRequisicao, accountID string, lines []domain.GuiaPaymentLine, actor string) (*domain.BatchResult, error) {
	ctx, span := pagamentoTracer.Start(ctx, "PagamentoService.SubmitGuiaPayments")
	defer span.End()
	span.SetAttributes(attribute.Int("lines", len(lines)))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("lote_guias", time.Since(start)) }()

	if err := checkBatchSize(len(lines), domain.MaxGuiaLines, "guia"); err != nil {
		return nil, err
	}
	if numeroRequisicao == "" {
		numeroRequisicao = newRequisitionNumber()
	}

	outcomes := make([]domain.LineOutcome, len(lines))
	var valid []domain.GuiaPaymentLine
	var validIdx []int
	var totalAmount, validAmount float64
	for i := range lines {
		totalAmount += lines[i].Amount
		outcomes[i] = domain.LineOutcome{Index: i}
		if v := format.ValidateBarcodeLine(lines[i].CodigoBarras, lines[i].Amount, lines[i].Data); len(v) > 0 {
			outcomes[i].Violations = v
			continue
		}
		outcomes[i].Valid = true
		validAmount += lines[i].Amount
		valid = append(valid, lines[i])
		validIdx = append(validIdx, i)
	}

	s.metrics.AddBatchLines("guia", len(valid), len(lines)-len(valid))

	result := &domain.BatchResult{
		NumeroRequisicao: numeroRequisicao,
		AccountID:        accountID,
		TotalLines:       len(lines),
		ValidLines:       len(valid),
		TotalAmount:      totalAmount,
		ValidAmount:      validAmount,
		Lines:            outcomes,
	}
	if len(valid) == 0 {
		result.Estado = "NAO_ENVIADO"
		return result, nil
	}

	bankResult, err := s.gateway.EnviarLoteGuias(ctx, numeroRequisicao, accountID, valid)
	if err != nil {
		return nil, err
	}
	mergeBankOutcomes(result, bankResult, validIdx)
	s.auditBatch(ctx, actor, numeroRequisicao, "guia", result)
	return result, nil
}

// Release frees a submitted requisition for execution. The operation is not
// idempotent at the bank: a timeout surfaces as ErrAmbiguousOutcome and the
// caller must consult the batch before trying again. No automatic retry here.
func (s *PagamentoService) Release(ctx context.Context, numeroRequisicao, indicadorFloat, actor string) error {
	ctx, span := pagamentoTracer.Start(ctx, "PagamentoService.Release")
	defer span.End()
	span.SetAttributes(attribute.String("numero_requisicao", numeroRequisicao))

	if err := s.gateway.LiberarPagamentos(ctx, numeroRequisicao, indicadorFloat); err != nil {
		return err
	}

	s.appendAudit(ctx, &domain.AuditEntry{
		Actor:         actor,
		Action:        domain.AuditBatchReleased,
		CorrelationID: numeroRequisicao,
	})
	s.logger.Info("lote liberado", zap.String("numero_requisicao", numeroRequisicao))
	return nil
}

// Cancel withdraws payments best-effort: each code reports its own outcome,
// codes already executed stay executed.
func (s *PagamentoService) Cancel(ctx context.Context, accountID string, codes []string, actor string) ([]domain.CancelOutcome, error) {
	ctx, span := pagamentoTracer.Start(ctx, "PagamentoService.Cancel")
	defer span.End()
	span.SetAttributes(attribute.Int("codes", len(codes)))

	if len(codes) == 0 {
		return nil, domain.NewValidationError("codigos", "lista vazia")
	}

	outcomes, err := s.gateway.CancelarPagamentos(ctx, accountID, codes)
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, &domain.AuditEntry{
		Actor:         actor,
		Action:        domain.AuditBatchCancelled,
		CorrelationID: accountID,
		After:         map[string]any{"codigos": codes},
	})
	return outcomes, nil
}

// GetBatch consults the bank's view of a requisition. This is the
// reconciliation path after an ambiguous release or submission.
func (s *PagamentoService) GetBatch(ctx context.Context, numeroRequisicao string) (*domain.BatchResult, error) {
	ctx, span := pagamentoTracer.Start(ctx, "PagamentoService.GetBatch")
	defer span.End()

	return s.gateway.ConsultarLote(ctx, numeroRequisicao)
}

func (s *PagamentoService) auditBatch(ctx context.Context, actor, numeroRequisicao, batchType string, result *domain.BatchResult) {
	s.appendAudit(ctx, &domain.AuditEntry{
		Actor:         actor,
		Action:        domain.AuditBatchSubmitted,
		CorrelationID: numeroRequisicao,
		After: map[string]any{
			"tipo":               batchType,
			"quantidade_total":   result.TotalLines,
			"quantidade_validas": result.ValidLines,
			"valor_validas":      result.ValidAmount,
			"estado":             result.Estado,
		},
	})
	s.logger.Info("lote enviado",
		zap.String("numero_requisicao", numeroRequisicao),
		zap.String("tipo", batchType),
		zap.Int("total", result.TotalLines),
		zap.Int("validas", result.ValidLines),
	)
}

func (s *PagamentoService) appendAudit(ctx context.Context, entry *domain.AuditEntry) {
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("falha ao gravar auditoria",
			zap.String("action", entry.Action),
			zap.String("correlation_id", entry.CorrelationID),
			zap.Error(err),
		)
	}
}

func checkBatchSize(n, max int, batchType string) error {
	if n == 0 {
		return domain.NewValidationError("lancamentos", "lote vazio")
	}
	if n > max {
		return domain.NewValidationError("lancamentos",
			fmt.Sprintf("lote %s excede o máximo de %d lançamentos (%d)", batchType, max, n))
	}
	return nil
}

// mergeBankOutcomes folds the bank's per-line results (indexed over the
// submitted subset) back onto the original line positions.
func mergeBankOutcomes(result, bank *domain.BatchResult, validIdx []int) {
	result.Estado = bank.Estado
	for i, lo := range bank.Lines {
		if i >= len(validIdx) {
			break
		}
		orig := validIdx[i]
		result.Lines[orig].BankCode = lo.BankCode
		result.Lines[orig].BankError = lo.BankError
		if lo.BankError != "" {
			result.Lines[orig].Valid = false
		}
	}
}

func newRequisitionNumber() string {
	// The bank wants a numeric requisition identifier unique per agreement.
	return fmt.Sprintf("%d", time.Now().UnixMilli())
}
