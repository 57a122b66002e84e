package bbclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/format"
)

// ============================================================
// Pagamentos em lote — PIX, boletos, guias, liberar, cancelar
// ============================================================

type wirePixLine struct {
	Data      string `json:"data"`
	Valor     string `json:"valor"`
	Descricao string `json:"descricaoPagamento,omitempty"`

	DDD      string `json:"dddTelefone,omitempty"`
	Telefone string `json:"telefone,omitempty"`
	Email    string `json:"email,omitempty"`
	CPF      string `json:"cpf,omitempty"`
	CNPJ     string `json:"cnpj,omitempty"`
	Chave    string `json:"identificacaoAleatoria,omitempty"`

	ISPB        string `json:"numeroISPB,omitempty"`
	Agencia     string `json:"agenciaCredito,omitempty"`
	Conta       string `json:"contaCorrenteCredito,omitempty"`
	DigitoConta string `json:"digitoVerificadorContaCorrente,omitempty"`
	TipoConta   string `json:"tipoConta,omitempty"`
}

type wireBarcodeLine struct {
	CodigoBarras     string `json:"numeroCodigoBarras"`
	Valor            string `json:"valorPagamento"`
	Data             string `json:"dataPagamento"`
	DocumentoSacado  string `json:"numeroDocumentoDebito,omitempty"`
	DescricaoPagador string `json:"descricaoPagamento,omitempty"`
}

type wireLoteResponse struct {
	NumeroRequisicao  string  `json:"numeroRequisicao"`
	Estado            string  `json:"estadoRequisicao"`
	Quantidade        int     `json:"quantidadeLancamentos"`
	Valor             float64 `json:"valorLancamentos"`
	QuantidadeValidas int     `json:"quantidadeLancamentosValidos"`
	ValorValidas      float64 `json:"valorLancamentosValidos"`
	Lancamentos       []struct {
		CodigoPagamento string   `json:"codigoPagamento,omitempty"`
		Erros           []string `json:"erros,omitempty"`
	} `json:"lancamentos"`
}

// EnviarLotePix submits one PIX transfer requisition. Lines are assumed
// locally valid; the bank may still refuse individual lines, which comes back
// in the per-line outcomes, not as an error.
func (c *Client) EnviarLotePix(ctx context.Context, numeroRequisicao, accountID string, lines []domain.PixLine) (*domain.BatchResult, error) {
	wireLines := make([]wirePixLine, 0, len(lines))
	for _, l := range lines {
		valor, err := format.FormatAmount(l.Amount)
		if err != nil {
			return nil, err
		}
		wireLines = append(wireLines, wirePixLine{
			Data:        l.Data,
			Valor:       valor,
			Descricao:   l.Descricao,
			DDD:         l.DDD,
			Telefone:    l.Telefone,
			Email:       l.Email,
			CPF:         format.OnlyDigits(l.CPF),
			CNPJ:        format.OnlyDigits(l.CNPJ),
			Chave:       l.Chave,
			ISPB:        l.ISPB,
			Agencia:     l.Agencia,
			Conta:       l.Conta,
			DigitoConta: l.DigitoConta,
			TipoConta:   l.TipoConta,
		})
	}

	body := map[string]any{
		"numeroRequisicao":    numeroRequisicao,
		"contaCorrenteDebito": accountID,
		"listaTransferencias": wireLines,
	}

	var out wireLoteResponse
	if err := c.doSend(ctx, c.pagamentos, "pagamentos.lote_pix", http.MethodPost, "/lotes-transferencias-pix", numeroRequisicao, body, &out); err != nil {
		return nil, err
	}
	return c.toBatchResult(numeroRequisicao, accountID, len(lines), &out), nil
}

// EnviarLoteBoletos submits one boleto-payment requisition.
func (c *Client) EnviarLoteBoletos(ctx context.Context, numeroRequisicao, accountID string, lines []domain.BoletoPaymentLine) (*domain.BatchResult, error) {
	wireLines := make([]wireBarcodeLine, 0, len(lines))
	for _, l := range lines {
		valor, err := format.FormatAmount(l.Amount)
		if err != nil {
			return nil, err
		}
		wireLines = append(wireLines, wireBarcodeLine{
			CodigoBarras:     format.OnlyDigits(l.CodigoBarras),
			Valor:            valor,
			Data:             l.Data,
			DocumentoSacado:  format.OnlyDigits(l.DocumentoSacado),
			DescricaoPagador: l.DescricaoPagador,
		})
	}

	body := map[string]any{
		"numeroRequisicao":    numeroRequisicao,
		"contaCorrenteDebito": accountID,
		"lancamentos":         wireLines,
	}

	var out wireLoteResponse
	if err := c.doSend(ctx, c.pagamentos, "pagamentos.lote_boletos", http.MethodPost, "/lotes-boletos", numeroRequisicao, body, &out); err != nil {
		return nil, err
	}
	return c.toBatchResult(numeroRequisicao, accountID, len(lines), &out), nil
}

// EnviarLoteGuias submits one guia-payment requisition.
func (c *Client) EnviarLoteGuias(ctx context.Context, numeroRequisicao, accountID string, lines []domain.GuiaPaymentLine) (*domain.BatchResult, error) {
	wireLines := make([]wireBarcodeLine, 0, len(lines))
	for _, l := range lines {
		valor, err := format.FormatAmount(l.Amount)
		if err != nil {
			return nil, err
		}
		wireLines = append(wireLines, wireBarcodeLine{
			CodigoBarras: format.OnlyDigits(l.CodigoBarras),
			Valor:        valor,
			Data:         l.Data,
		})
	}

	body := map[string]any{
		"numeroRequisicao":    numeroRequisicao,
		"contaCorrenteDebito": accountID,
		"lancamentos":         wireLines,
	}

	var out wireLoteResponse
	if err := c.doSend(ctx, c.pagamentos, "pagamentos.lote_guias", http.MethodPost, "/lotes-guias-codigo-barras", numeroRequisicao, body, &out); err != nil {
		return nil, err
	}
	return c.toBatchResult(numeroRequisicao, accountID, len(lines), &out), nil
}

// LiberarPagamentos releases a requisition. One shot, not idempotent at the
// bank: a timeout here surfaces as ErrAmbiguousOutcome and must be reconciled
// via ConsultarLote before any retry.
func (c *Client) LiberarPagamentos(ctx context.Context, numeroRequisicao string, indicadorFloat string) error {
	body := map[string]string{
		"numeroRequisicao": numeroRequisicao,
		"indicadorFloat":   indicadorFloat,
	}
	return c.doSend(ctx, c.pagamentos, "pagamentos.liberar", http.MethodPost, "/liberar-pagamentos", numeroRequisicao, body, nil)
}

type wireCancelamento struct {
	Pagamentos []struct {
		CodigoPagamento string `json:"codigoPagamento"`
		Cancelado       string `json:"indicadorCancelado"`
		Motivo          string `json:"motivo,omitempty"`
	} `json:"pagamentos"`
}

// CancelarPagamentos cancels payment codes best-effort: one bad code never
// fails the whole call, every code gets its own outcome.
func (c *Client) CancelarPagamentos(ctx context.Context, accountID string, codes []string) ([]domain.CancelOutcome, error) {
	list := make([]map[string]string, 0, len(codes))
	for _, code := range codes {
		list = append(list, map[string]string{"codigoPagamento": code})
	}
	body := map[string]any{
		"contaCorrenteDebito": accountID,
		"listaPagamentos":     list,
	}

	var out wireCancelamento
	if err := c.doSend(ctx, c.pagamentos, "pagamentos.cancelar", http.MethodPost, "/cancelar-pagamentos", fmt.Sprintf("%d codigos", len(codes)), body, &out); err != nil {
		return nil, err
	}

	byCode := make(map[string]domain.CancelOutcome, len(out.Pagamentos))
	for _, p := range out.Pagamentos {
		byCode[p.CodigoPagamento] = domain.CancelOutcome{
			Code:      p.CodigoPagamento,
			Cancelled: p.Cancelado == "S",
			Reason:    p.Motivo,
		}
	}

	outcomes := make([]domain.CancelOutcome, 0, len(codes))
	for _, code := range codes {
		if o, ok := byCode[code]; ok {
			outcomes = append(outcomes, o)
			continue
		}
		outcomes = append(outcomes, domain.CancelOutcome{Code: code, Cancelled: false, Reason: "código ausente na resposta do banco"})
	}
	return outcomes, nil
}

// ConsultarLote fetches the current state of a requisition. Idempotent; this
// is the reconciliation path after an ambiguous release.
func (c *Client) ConsultarLote(ctx context.Context, numeroRequisicao string) (*domain.BatchResult, error) {
	path := fmt.Sprintf("/%s", url.PathEscape(numeroRequisicao))
	var out wireLoteResponse
	if err := c.doRead(ctx, c.pagamentos, "pagamentos.consultar_lote", path, &out); err != nil {
		return nil, err
	}
	return c.toBatchResult(numeroRequisicao, "", out.Quantidade, &out), nil
}

// toBatchResult maps the bank's lote response onto the aggregate result.
func (c *Client) toBatchResult(numeroRequisicao, accountID string, submitted int, w *wireLoteResponse) *domain.BatchResult {
	result := &domain.BatchResult{
		NumeroRequisicao: numeroRequisicao,
		AccountID:        accountID,
		Estado:           w.Estado,
		TotalLines:       submitted,
		ValidLines:       w.QuantidadeValidas,
		TotalAmount:      w.Valor,
		ValidAmount:      w.ValorValidas,
	}

	for i, l := range w.Lancamentos {
		outcome := domain.LineOutcome{
			Index:    i,
			Valid:    len(l.Erros) == 0,
			BankCode: l.CodigoPagamento,
		}
		if len(l.Erros) > 0 {
			outcome.BankError = l.Erros[0]
		}
		result.Lines = append(result.Lines, outcome)
	}
	return result
}
