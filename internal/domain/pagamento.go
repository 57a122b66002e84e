package domain

// ============================================================
// Pagamentos em lote (PIX, boleto, guia)
// ============================================================

// Bank-imposed maximum line-item counts per requisition.
const (
	MaxPixLines    = 320
	MaxBoletoLines = 150
	MaxGuiaLines   = 200
)

// PixKeyForm discriminates how a PIX transfer line identifies its recipient.
// Exactly one form's required sub-fields must be present per line.
type PixKeyForm int

const (
	FormTelefone PixKeyForm = iota + 1
	FormEmail
	FormCPF
	FormCNPJ
	FormChaveAleatoria
	FormDadosBancarios
)

func (f PixKeyForm) String() string {
	switch f {
	case FormTelefone:
		return "telefone"
	case FormEmail:
		return "email"
	case FormCPF:
		return "cpf"
	case FormCNPJ:
		return "cnpj"
	case FormChaveAleatoria:
		return "chave_aleatoria"
	case FormDadosBancarios:
		return "dados_bancarios"
	}
	return "desconhecida"
}

// PixLine is one transfer inside a PIX batch.
type PixLine struct {
	Form      PixKeyForm `json:"forma_identificacao"`
	Amount    float64    `json:"valor"`
	Data      string     `json:"data"` // dd.mm.yyyy
	Descricao string     `json:"descricao,omitempty"`

	// Key-based forms (telefone, email, cpf, cnpj, chave aleatória).
	DDD      string `json:"ddd,omitempty"`
	Telefone string `json:"telefone,omitempty"`
	Email    string `json:"email,omitempty"`
	CPF      string `json:"cpf,omitempty"`
	CNPJ     string `json:"cnpj,omitempty"`
	Chave    string `json:"identificacao_aleatoria,omitempty"`

	// Bank-account form.
	ISPB        string `json:"numero_ispb,omitempty"`
	Agencia     string `json:"agencia,omitempty"`
	Conta       string `json:"conta,omitempty"`
	DigitoConta string `json:"digito_conta,omitempty"`
	TipoConta   string `json:"tipo_conta,omitempty"`
}

// BoletoPaymentLine is one barcode-based lançamento inside a boleto-payment
// batch. GuiaPaymentLine shares the same shape for guias with a different
// field contract at the bank.
type BoletoPaymentLine struct {
	CodigoBarras     string  `json:"codigo_barras"`
	Amount           float64 `json:"valor"`
	Data             string  `json:"data"` // dd.mm.yyyy
	DocumentoSacado  string  `json:"documento_sacado,omitempty"`
	DescricaoPagador string  `json:"descricao_pagador,omitempty"`
}

// GuiaPaymentLine is one guia (tax/utility slip) inside a guia batch.
type GuiaPaymentLine struct {
	CodigoBarras string  `json:"codigo_barras"`
	Amount       float64 `json:"valor"`
	Data         string  `json:"data"` // dd.mm.yyyy
}

// LineOutcome is the per-line result reported back by the bank (or by local
// validation). A failed line never fails the whole batch.
type LineOutcome struct {
	Index      int         `json:"index"`
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations,omitempty"`
	BankCode   string      `json:"codigo_pagamento,omitempty"` // bank payment code when accepted
	BankError  string      `json:"erro,omitempty"`
}

// BatchResult is the aggregate outcome of a batch submission.
type BatchResult struct {
	NumeroRequisicao string        `json:"numero_requisicao"`
	AccountID        string        `json:"account_id"`
	Estado           string        `json:"estado,omitempty"`
	TotalLines       int           `json:"quantidade_total"`
	ValidLines       int           `json:"quantidade_validas"`
	TotalAmount      float64       `json:"valor_total"`
	ValidAmount      float64       `json:"valor_validas"`
	Lines            []LineOutcome `json:"lancamentos"`
}

// CancelOutcome is the per-code result of a best-effort cancellation.
type CancelOutcome struct {
	Code      string `json:"codigo_pagamento"`
	Cancelled bool   `json:"cancelado"`
	Reason    string `json:"motivo,omitempty"`
}
