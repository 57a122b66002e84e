// Package service provides the business logic layer (use cases): boleto
// lifecycle, payment batches and certificate monitoring on top of the bank
// gateway and the persistence ports.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/format"
	"github.com/agrovale/cobranca-bb-go/internal/identifier"
	"github.com/agrovale/cobranca-bb-go/internal/infra/observability"
	"github.com/agrovale/cobranca-bb-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var boletoTracer = otel.Tracer("service/boleto")

const dueDateLayout = "2006-01-02"

// BoletoService orchestrates the boleto lifecycle: issuance against the
// Cobrança API, alteration, write-off and webhook-driven payment
// confirmation. State transitions are serialized per boleto by the store's
// version check.
type BoletoService struct {
	boletos   port.BoletoStore
	audit     port.AuditStore
	customers port.CustomerRepository
	orders    port.OrderRepository
	accounts  port.AccountRepository
	gateway   port.BankGateway
	allocator *identifier.Allocator
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewBoletoService creates the service.
func NewBoletoService(
	boletos port.BoletoStore,
	audit port.AuditStore,
	customers port.CustomerRepository,
	orders port.OrderRepository,
	accounts port.AccountRepository,
	gateway port.BankGateway,
	allocator *identifier.Allocator,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *BoletoService {
	return &BoletoService{
		boletos:   boletos,
		audit:     audit,
		customers: customers,
		orders:    orders,
		accounts:  accounts,
		gateway:   gateway,
		allocator: allocator,
		metrics:   metrics,
		logger:    logger,
	}
}

// Issue registers a new boleto with the bank and persists it as ABERTO.
//
// The billing profile is checked for completeness before anything touches the
// bank. A consumed Nosso Número sequence is never returned to the pool: if
// the bank rejects the registration, the number is simply skipped.
func (s *BoletoService) Issue(ctx context.Context, req *domain.IssueBoletoRequest, actor string) (*domain.Boleto, error) {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.Issue")
	defer span.End()
	span.SetAttributes(attribute.String("order.number", req.OrderNumber))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("boleto_issue", time.Since(start)) }()

	dueDate, err := time.Parse(dueDateLayout, req.DueDate)
	if err != nil {
		return nil, domain.NewValidationError("due_date", "data inválida, esperado YYYY-MM-DD")
	}

	order, err := s.orders.GetByNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, err
	}

	profile, err := s.customers.GetBillingProfile(ctx, order.CustomerID)
	if err != nil {
		return nil, err
	}
	if missing := profile.MissingBillingFields(); len(missing) > 0 {
		return nil, &domain.ErrIncompleteCustomer{CustomerID: order.CustomerID, MissingFields: missing}
	}

	account, err := s.accounts.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	count, err := s.boletos.CountBoletosForOrder(ctx, order.Number)
	if err != nil {
		return nil, err
	}
	seuNumero, err := identifier.BuildSeuNumero(order.Number, count)
	if err != nil {
		return nil, err
	}

	nossoNumero, err := s.allocator.NossoNumero(ctx, account.ID, account.Convenio)
	if err != nil {
		return nil, err
	}

	documento := format.OnlyDigits(profile.Documento)
	tipoInscricao := domain.InscricaoCPF
	if len(documento) == 14 {
		tipoInscricao = domain.InscricaoCNPJ
	}

	now := time.Now()
	registro := &domain.RegistroBoleto{
		Convenio:       account.Convenio,
		Modalidade:     1,
		DataEmissao:    now,
		DataVencimento: dueDate,
		Valor:          req.Amount,
		SeuNumero:      seuNumero,
		NossoNumero:    nossoNumero,
		TipoInscricao:  tipoInscricao,
		Documento:      documento,
		NomePagador:    profile.Nome,
		Endereco:       profile.Endereco,
		Cidade:         profile.Cidade,
		Bairro:         profile.Bairro,
		UF:             profile.UF,
		CEP:            format.OnlyDigits(profile.CEP),
		Mensagem:       req.Mensagem,
	}

	if violations := format.ValidateRegistroBoleto(registro); len(violations) > 0 {
		return nil, &domain.ErrValidation{Violations: violations}
	}

	result, err := s.gateway.RegistrarBoleto(ctx, registro)
	if err != nil {
		s.logger.Error("registro de boleto falhou",
			zap.String("order_number", order.Number),
			zap.String("seu_numero", seuNumero),
			zap.Error(err),
		)
		return nil, err
	}

	boleto := &domain.Boleto{
		ID:             uuid.NewString(),
		OrderNumber:    order.Number,
		AccountID:      account.ID,
		Convenio:       account.Convenio,
		Amount:         req.Amount,
		IssueDate:      now,
		DueDate:        dueDate,
		Status:         domain.StatusAberto,
		NossoNumero:    result.NossoNumero,
		SeuNumero:      seuNumero,
		LinhaDigitavel: result.LinhaDigitavel,
		CodigoBarras:   result.CodigoBarras,
		PixTxID:        result.PixTxID,
		PixQRCode:      result.PixQRCodeURL,
		PixCopiaEC:     result.PixCopiaEC,
		Pagador: domain.PayerSnapshot{
			Nome:      profile.Nome,
			Documento: documento,
			Endereco:  profile.Endereco,
			Cidade:    profile.Cidade,
			Bairro:    profile.Bairro,
			UF:        profile.UF,
			CEP:       format.OnlyDigits(profile.CEP),
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.boletos.CreateBoleto(ctx, boleto); err != nil {
		// The bank has the registration but we failed to persist it. Surface
		// the error; reconciliation happens through ConsultarBoleto.
		s.logger.Error("boleto registrado no banco mas não persistido",
			zap.String("nosso_numero", boleto.NossoNumero),
			zap.Error(err),
		)
		return nil, err
	}

	s.appendAudit(ctx, &domain.AuditEntry{
		Actor:         actor,
		Action:        domain.AuditBoletoIssued,
		CorrelationID: boleto.ID,
		After:         boletoSnapshot(boleto),
	})

	s.logger.Info("boleto emitido",
		zap.String("boleto_id", boleto.ID),
		zap.String("nosso_numero", boleto.NossoNumero),
		zap.String("seu_numero", boleto.SeuNumero),
		zap.Float64("valor", boleto.Amount),
	)
	return boleto, nil
}

// Alter changes the mutable fields of an open boleto. The bank call happens
// first; local state is only touched after the bank accepts, so there is
// never a partial apply.
func (s *BoletoService) Alter(ctx context.Context, id string, req *domain.AlterBoletoRequest, actor string) (*domain.Boleto, error) {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.Alter")
	defer span.End()
	span.SetAttributes(attribute.String("boleto.id", id))

	boleto, err := s.boletos.GetBoleto(ctx, id)
	if err != nil {
		return nil, err
	}
	if !boleto.Status.Open() {
		return nil, &domain.ErrTerminalState{BoletoID: id, Status: boleto.Status, Action: "alterar"}
	}

	alteracao := &domain.AlteracaoBoleto{
		Convenio:    boleto.Convenio,
		NossoNumero: boleto.NossoNumero,
		CobrarJuros: req.CobrarJuros,
		CobrarMulta: req.CobrarMulta,
	}

	var violations []domain.Violation
	if req.DueDate != nil {
		due, err := time.Parse(dueDateLayout, *req.DueDate)
		if err != nil {
			violations = append(violations, domain.Violation{Field: "due_date", Message: "data inválida, esperado YYYY-MM-DD"})
		} else {
			alteracao.NovaDataVencimento = &due
		}
	}
	if req.Amount != nil {
		if *req.Amount <= 0 {
			violations = append(violations, domain.Violation{Field: "amount", Message: "deve ser positivo"})
		} else {
			alteracao.NovoValor = req.Amount
		}
	}
	if req.DocumentoSacado != nil {
		doc := format.OnlyDigits(*req.DocumentoSacado)
		if len(doc) != 11 && len(doc) != 14 {
			violations = append(violations, domain.Violation{Field: "documento_sacado", Message: "esperado CPF (11) ou CNPJ (14) dígitos"})
		} else {
			alteracao.DocumentoSacado = &doc
		}
	}
	if len(violations) > 0 {
		return nil, &domain.ErrValidation{Violations: violations}
	}

	if err := s.gateway.AlterarBoleto(ctx, alteracao); err != nil {
		return nil, err
	}

	before := boletoSnapshot(boleto)
	if alteracao.NovaDataVencimento != nil {
		boleto.DueDate = *alteracao.NovaDataVencimento
	}
	if alteracao.NovoValor != nil {
		boleto.Amount = *alteracao.NovoValor
	}
	if alteracao.DocumentoSacado != nil {
		boleto.Pagador.Documento = *alteracao.DocumentoSacado
	}
	boleto.Status = domain.StatusAlterado
	boleto.UpdatedAt = time.Now()

	if err := s.boletos.UpdateBoleto(ctx, boleto, boleto.Version); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, &domain.AuditEntry{
		Actor:         actor,
		Action:        domain.AuditBoletoAltered,
		CorrelationID: boleto.ID,
		Before:        before,
		After:         boletoSnapshot(boleto),
	})

	s.logger.Info("boleto alterado",
		zap.String("boleto_id", boleto.ID),
		zap.String("nosso_numero", boleto.NossoNumero),
	)
	return boleto, nil
}

// WriteOff (baixa) withdraws an open boleto from collection.
func (s *BoletoService) WriteOff(ctx context.Context, id, actor string) (*domain.Boleto, error) {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.WriteOff")
	defer span.End()
	span.SetAttributes(attribute.String("boleto.id", id))

	boleto, err := s.boletos.GetBoleto(ctx, id)
	if err != nil {
		return nil, err
	}
	if !boleto.Status.Open() {
		return nil, &domain.ErrTerminalState{BoletoID: id, Status: boleto.Status, Action: "baixar"}
	}

	if err := s.gateway.BaixarBoleto(ctx, boleto.Convenio, boleto.NossoNumero); err != nil {
		return nil, err
	}

	before := boletoSnapshot(boleto)
	now := time.Now()
	boleto.Status = domain.StatusBaixado
	boleto.BaixaAt = &now
	boleto.UpdatedAt = now

	if err := s.boletos.UpdateBoleto(ctx, boleto, boleto.Version); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, &domain.AuditEntry{
		Actor:         actor,
		Action:        domain.AuditBoletoWrittenOff,
		CorrelationID: boleto.ID,
		Before:        before,
		After:         boletoSnapshot(boleto),
	})

	s.logger.Info("boleto baixado",
		zap.String("boleto_id", boleto.ID),
		zap.String("nosso_numero", boleto.NossoNumero),
	)
	return boleto, nil
}

// ConfirmPaymentFromWebhook applies a payment-confirmation callback. The
// operation is idempotent on (NossoNumero, PaidAt): the same notification
// delivered twice mutates state and audits exactly once.
func (s *BoletoService) ConfirmPaymentFromWebhook(ctx context.Context, wh *domain.PaymentWebhook) error {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.ConfirmPaymentFromWebhook")
	defer span.End()
	span.SetAttributes(attribute.String("nosso_numero", wh.NossoNumero))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("boleto_webhook", time.Since(start)) }()

	for {
		boleto, err := s.boletos.GetBoletoByNossoNumero(ctx, wh.NossoNumero)
		if err != nil {
			var notFound *domain.ErrNotFound
			if errors.As(err, &notFound) {
				s.metrics.IncrWebhook("unknown")
				s.logger.Warn("webhook para boleto desconhecido",
					zap.String("nosso_numero", wh.NossoNumero),
					zap.String("source_ip", wh.SourceIP),
				)
				return err
			}
			s.metrics.IncrWebhook("error")
			s.logger.Error("busca de boleto para webhook falhou",
				zap.String("nosso_numero", wh.NossoNumero),
				zap.Error(err),
			)
			return err
		}

		if boleto.Status == domain.StatusPago {
			if boleto.PaidAt != nil && boleto.PaidAt.Equal(wh.PaidAt) {
				s.metrics.IncrWebhook("duplicate")
				return nil
			}
			s.metrics.IncrWebhook("rejected")
			return &domain.ErrTerminalState{BoletoID: boleto.ID, Status: boleto.Status, Action: "confirmar pagamento"}
		}
		if boleto.Status.Terminal() {
			s.metrics.IncrWebhook("rejected")
			return &domain.ErrTerminalState{BoletoID: boleto.ID, Status: boleto.Status, Action: "confirmar pagamento"}
		}

		before := boletoSnapshot(boleto)
		paidAt := wh.PaidAt
		boleto.Status = domain.StatusPago
		boleto.PaidAt = &paidAt
		boleto.PaidValue = wh.PaidAmount
		boleto.AtualizadoPorWebhook = true
		boleto.WebhookSourceIP = wh.SourceIP
		boleto.UpdatedAt = time.Now()

		err = s.boletos.UpdateBoleto(ctx, boleto, boleto.Version)
		if err == nil {
			s.metrics.IncrWebhook("applied")
			s.appendAudit(ctx, &domain.AuditEntry{
				Actor:         "webhook",
				Action:        domain.AuditBoletoPaid,
				CorrelationID: boleto.ID,
				Before:        before,
				After:         boletoSnapshot(boleto),
				SourceIP:      wh.SourceIP,
			})
			s.logger.Info("pagamento confirmado via webhook",
				zap.String("boleto_id", boleto.ID),
				zap.String("nosso_numero", boleto.NossoNumero),
				zap.Float64("valor_pago", wh.PaidAmount),
			)
			return nil
		}

		var conflict *domain.ErrConflict
		if errors.As(err, &conflict) {
			// A concurrent transition won the version race. Reload and
			// re-evaluate: maybe the same webhook was applied by the other
			// delivery, which is the duplicate path above.
			continue
		}
		s.metrics.IncrWebhook("error")
		return err
	}
}

// Get returns the locally persisted boleto.
func (s *BoletoService) Get(ctx context.Context, id string) (*domain.Boleto, error) {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.Get")
	defer span.End()

	return s.boletos.GetBoleto(ctx, id)
}

// FetchBankStatus queries the bank's current view of the billet.
func (s *BoletoService) FetchBankStatus(ctx context.Context, id string) (*domain.BankBoleto, error) {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.FetchBankStatus")
	defer span.End()

	boleto, err := s.boletos.GetBoleto(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.gateway.ConsultarBoleto(ctx, boleto.Convenio, boleto.NossoNumero)
}

// List queries the bank-side listing. With FetchAll the continuation cursor
// is followed transparently and a single aggregated page comes back.
func (s *BoletoService) List(ctx context.Context, q *domain.ListBoletosQuery) (*domain.BoletoPage, error) {
	ctx, span := boletoTracer.Start(ctx, "BoletoService.List")
	defer span.End()

	page, err := s.gateway.ListarBoletos(ctx, q)
	if err != nil {
		return nil, err
	}
	if !q.FetchAll {
		return page, nil
	}

	all := page.Boletos
	for page.HasMore {
		next := *q
		next.StartIndex = page.ProximoIndice
		page, err = s.gateway.ListarBoletos(ctx, &next)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Boletos...)
	}
	return &domain.BoletoPage{Boletos: all}, nil
}

// appendAudit writes the entry, logging instead of failing the caller: the
// business action already happened.
func (s *BoletoService) appendAudit(ctx context.Context, entry *domain.AuditEntry) {
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Error("falha ao gravar auditoria",
			zap.String("action", entry.Action),
			zap.String("correlation_id", entry.CorrelationID),
			zap.Error(err),
		)
	}
}

func boletoSnapshot(b *domain.Boleto) map[string]any {
	snap := map[string]any{
		"status":       string(b.Status),
		"amount":       b.Amount,
		"due_date":     b.DueDate.Format(dueDateLayout),
		"nosso_numero": b.NossoNumero,
		"seu_numero":   b.SeuNumero,
		"documento":    b.Pagador.Documento,
	}
	if b.PaidAt != nil {
		snap["paid_at"] = b.PaidAt.Format(time.RFC3339)
		snap["paid_value"] = b.PaidValue
	}
	return snap
}
