package port

import (
	"context"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
)

// BankGateway is the thin transport layer over the bank's Cobrança,
// Pagamentos and PIX APIs. Every call is a blocking mutual-TLS round-trip;
// callers own the timeout via ctx. Only the read-only operations (Consultar*,
// Listar*) are safe to retry.
type BankGateway interface {
	// Cobrança.
	RegistrarBoleto(ctx context.Context, req *domain.RegistroBoleto) (*domain.RegistroBoletoResult, error)
	AlterarBoleto(ctx context.Context, req *domain.AlteracaoBoleto) error
	BaixarBoleto(ctx context.Context, convenio, nossoNumero string) error
	ConsultarBoleto(ctx context.Context, convenio, nossoNumero string) (*domain.BankBoleto, error)
	ListarBoletos(ctx context.Context, q *domain.ListBoletosQuery) (*domain.BoletoPage, error)

	// Pagamentos em lote. Submissions are fired exactly once; line-level
	// outcomes come back in the BatchResult.
	EnviarLotePix(ctx context.Context, numeroRequisicao, accountID string, lines []domain.PixLine) (*domain.BatchResult, error)
	EnviarLoteBoletos(ctx context.Context, numeroRequisicao, accountID string, lines []domain.BoletoPaymentLine) (*domain.BatchResult, error)
	EnviarLoteGuias(ctx context.Context, numeroRequisicao, accountID string, lines []domain.GuiaPaymentLine) (*domain.BatchResult, error)
	LiberarPagamentos(ctx context.Context, numeroRequisicao string, indicadorFloat string) error
	CancelarPagamentos(ctx context.Context, accountID string, codes []string) ([]domain.CancelOutcome, error)
	ConsultarLote(ctx context.Context, numeroRequisicao string) (*domain.BatchResult, error)

	// PIX recebimentos.
	ConsultarPixRecebidos(ctx context.Context, q *domain.PixReceivedQuery) (*domain.PixReceivedPage, error)
}
