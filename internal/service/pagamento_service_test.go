package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/infra/memory"
	"github.com/agrovale/cobranca-bb-go/internal/infra/observability"
	"github.com/agrovale/cobranca-bb-go/internal/service"

	"go.uber.org/zap"
)

func newPagamentoFixture() (*service.PagamentoService, *mockGateway, *memory.AuditStore) {
	gateway := &mockGateway{}
	audit := memory.NewAuditStore()
	svc := service.NewPagamentoService(gateway, audit, observability.NewMetrics(), zap.NewNop())
	return svc, gateway, audit
}

func pixLines(n int) []domain.PixLine {
	lines := make([]domain.PixLine, n)
	for i := range lines {
		lines[i] = domain.PixLine{
			Form:   domain.FormChaveAleatoria,
			Amount: 10,
			Data:   "01.09.2026",
			Chave:  "b6f9a2c4-0000-4000-8000-000000000000",
		}
	}
	return lines
}

func TestSubmitPixBatch_AtTheCap(t *testing.T) {
	svc, gateway, _ := newPagamentoFixture()

	result, err := svc.SubmitPixBatch(context.Background(), "1001", "acc-1", pixLines(domain.MaxPixLines), "op")
	if err != nil {
		t.Fatalf("320 lines must submit, got %v", err)
	}
	if gateway.pixBatchCalls != 1 {
		t.Fatalf("expected one submission, got %d", gateway.pixBatchCalls)
	}
	if result.TotalLines != 320 || result.ValidLines != 320 {
		t.Errorf("expected 320/320, got %d/%d", result.TotalLines, result.ValidLines)
	}
}

func TestSubmitPixBatch_OverTheCapFailsBeforeNetwork(t *testing.T) {
	svc, gateway, _ := newPagamentoFixture()

	_, err := svc.SubmitPixBatch(context.Background(), "1001", "acc-1", pixLines(domain.MaxPixLines+1), "op")
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if gateway.pixBatchCalls != 0 {
		t.Error("an oversized batch must never reach the bank")
	}
}

func TestSubmitPixBatch_EmptyBatch(t *testing.T) {
	svc, gateway, _ := newPagamentoFixture()
	if _, err := svc.SubmitPixBatch(context.Background(), "1001", "acc-1", nil, "op"); err == nil {
		t.Fatal("expected error for empty batch")
	}
	if gateway.pixBatchCalls != 0 {
		t.Error("empty batch must never reach the bank")
	}
}

func TestSubmitPixBatch_InvalidLinesReportedNotThrown(t *testing.T) {
	svc, gateway, _ := newPagamentoFixture()

	lines := pixLines(3)
	lines[1].Amount = 0
	lines[1].Chave = ""
	result, err := svc.SubmitPixBatch(context.Background(), "1001", "acc-1", lines, "op")
	if err != nil {
		t.Fatalf("line-level problems must not fail the batch: %v", err)
	}

	if result.TotalLines != 3 || result.ValidLines != 2 {
		t.Errorf("expected 3 total / 2 valid, got %d/%d", result.TotalLines, result.ValidLines)
	}
	if result.Lines[1].Valid || len(result.Lines[1].Violations) == 0 {
		t.Errorf("expected line 1 invalid with violations, got %+v", result.Lines[1])
	}
	// Bank outcomes of the submitted subset land back on the original indices.
	if !result.Lines[0].Valid || result.Lines[0].BankCode == "" {
		t.Errorf("expected line 0 accepted with a bank code, got %+v", result.Lines[0])
	}
	if !result.Lines[2].Valid || result.Lines[2].BankCode == "" {
		t.Errorf("expected line 2 accepted with a bank code, got %+v", result.Lines[2])
	}
	if gateway.pixBatchCalls != 1 {
		t.Errorf("expected a single submission of the valid subset, got %d", gateway.pixBatchCalls)
	}
}

func TestSubmitPixBatch_AllInvalidSkipsBank(t *testing.T) {
	svc, gateway, _ := newPagamentoFixture()

	lines := pixLines(2)
	lines[0].Amount = 0
	lines[1].Amount = -5
	lines[0].Chave = ""
	lines[1].Chave = ""

	result, err := svc.SubmitPixBatch(context.Background(), "1001", "acc-1", lines, "op")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Estado != "NAO_ENVIADO" {
		t.Errorf("expected NAO_ENVIADO, got %q", result.Estado)
	}
	if gateway.pixBatchCalls != 0 {
		t.Error("a fully invalid batch must never reach the bank")
	}
}

func TestSubmitBoletoPayments_Caps(t *testing.T) {
	svc, gateway, _ := newPagamentoFixture()

	barcode := strings.Repeat("1", 44)
	lines := make([]domain.BoletoPaymentLine, domain.MaxBoletoLines+1)
	for i := range lines {
		lines[i] = domain.BoletoPaymentLine{CodigoBarras: barcode, Amount: 10, Data: "01.09.2026"}
	}

	if _, err := svc.SubmitBoletoPayments(context.Background(), "1001", "acc-1", lines, "op"); err == nil {
		t.Fatal("expected 151 lines to fail")
	}
	if gateway.boletoBatchCalls != 0 {
		t.Error("oversized batch must not be submitted")
	}

	if _, err := svc.SubmitBoletoPayments(context.Background(), "1001", "acc-1", lines[:domain.MaxBoletoLines], "op"); err != nil {
		t.Fatalf("150 lines must submit: %v", err)
	}
	if gateway.boletoBatchCalls != 1 {
		t.Errorf("expected one submission, got %d", gateway.boletoBatchCalls)
	}
}

func TestSubmitGuiaPayments_Caps(t *testing.T) {
	svc, gateway, _ := newPagamentoFixture()

	barcode := strings.Repeat("1", 48)
	lines := make([]domain.GuiaPaymentLine, domain.MaxGuiaLines+1)
	for i := range lines {
		lines[i] = domain.GuiaPaymentLine{CodigoBarras: barcode, Amount: 10, Data: "01.09.2026"}
	}

	if _, err := svc.SubmitGuiaPayments(context.Background(), "1001", "acc-1", lines, "op"); err == nil {
		t.Fatal("expected 201 lines to fail")
	}
	if _, err := svc.SubmitGuiaPayments(context.Background(), "1001", "acc-1", lines[:domain.MaxGuiaLines], "op"); err != nil {
		t.Fatalf("200 lines must submit: %v", err)
	}
	if gateway.guiaBatchCalls != 1 {
		t.Errorf("expected one submission, got %d", gateway.guiaBatchCalls)
	}
}

func TestRelease_AmbiguousOutcomePassesThrough(t *testing.T) {
	svc, gateway, audit := newPagamentoFixture()
	gateway.liberarErr = &domain.ErrAmbiguousOutcome{
		Operation: "pagamentos.liberar",
		Reference: "1001",
		Err:       context.DeadlineExceeded,
	}

	err := svc.Release(context.Background(), "1001", "", "op")
	var ambiguous *domain.ErrAmbiguousOutcome
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected ErrAmbiguousOutcome, got %v", err)
	}
	if ambiguous.Reference != "1001" {
		t.Errorf("the reconciliation reference must survive, got %q", ambiguous.Reference)
	}
	if len(audit.Entries()) != 0 {
		t.Error("an ambiguous release must not be audited as released")
	}
}

func TestRelease_Success(t *testing.T) {
	svc, _, audit := newPagamentoFixture()

	if err := svc.Release(context.Background(), "1001", "S", "op"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	entries := audit.Entries()
	if len(entries) != 1 || entries[0].Action != domain.AuditBatchReleased {
		t.Fatalf("expected lote.liberado audit entry, got %v", entries)
	}
}

func TestCancel_PerCodeOutcomes(t *testing.T) {
	svc, gateway, _ := newPagamentoFixture()
	gateway.cancelOutcomes = []domain.CancelOutcome{
		{Code: "100", Cancelled: true},
		{Code: "101", Cancelled: false, Reason: "pagamento já efetivado"},
	}

	outcomes, err := svc.Cancel(context.Background(), "acc-1", []string{"100", "101"}, "op")
	if err != nil {
		t.Fatalf("best-effort cancel must not fail on executed codes: %v", err)
	}
	if len(outcomes) != 2 || outcomes[0].Cancelled == outcomes[1].Cancelled {
		t.Errorf("expected mixed outcomes, got %+v", outcomes)
	}
}

func TestCancel_EmptyCodes(t *testing.T) {
	svc, _, _ := newPagamentoFixture()
	if _, err := svc.Cancel(context.Background(), "acc-1", nil, "op"); err == nil {
		t.Fatal("expected error for empty code list")
	}
}
