package domain

import "time"

// ============================================================
// Boleto (Cobrança BB)
// ============================================================

// BoletoStatus is the lifecycle state of a boleto.
// ABERTO → ALTERADO (self-loop) → BAIXADO | PAGO | CANCELADO.
// BAIXADO, PAGO and CANCELADO are sinks.
type BoletoStatus string

const (
	StatusAberto    BoletoStatus = "ABERTO"
	StatusAlterado  BoletoStatus = "ALTERADO"
	StatusBaixado   BoletoStatus = "BAIXADO"
	StatusPago      BoletoStatus = "PAGO"
	StatusCancelado BoletoStatus = "CANCELADO"
)

// Open reports whether the boleto can still be mutated (alteration, write-off,
// payment confirmation). ALTERADO is the self-loop of ABERTO.
func (s BoletoStatus) Open() bool {
	return s == StatusAberto || s == StatusAlterado
}

// Terminal reports whether the status is a sink.
func (s BoletoStatus) Terminal() bool {
	return s == StatusBaixado || s == StatusPago || s == StatusCancelado
}

// PayerSnapshot is the payer data denormalized at issuance time. The boleto
// keeps what the customer looked like when it was issued, not a live link.
type PayerSnapshot struct {
	Nome      string `json:"nome"`
	Documento string `json:"documento"` // CPF (11) or CNPJ (14), digits only
	Endereco  string `json:"endereco"`
	Cidade    string `json:"cidade"`
	Bairro    string `json:"bairro"`
	UF        string `json:"uf"`
	CEP       string `json:"cep"`
}

// Boleto is a bank billet tied to one commercial order.
type Boleto struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
	AccountID   string `json:"account_id"`
	Convenio    string `json:"convenio"` // 7-digit agreement

	Amount    float64    `json:"amount"`
	IssueDate time.Time  `json:"issue_date"`
	DueDate   time.Time  `json:"due_date"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	BaixaAt   *time.Time `json:"baixa_at,omitempty"`
	PaidValue float64    `json:"paid_value,omitempty"`

	Status BoletoStatus `json:"status"`

	// Immutable once assigned.
	NossoNumero string `json:"nosso_numero"` // fixed 20 digits
	SeuNumero   string `json:"seu_numero"`   // ≤15 chars

	LinhaDigitavel string `json:"linha_digitavel,omitempty"`
	CodigoBarras   string `json:"codigo_barras,omitempty"`

	// PIX overlay, when the bank returns a QR for the billet.
	PixTxID    string `json:"pix_txid,omitempty"`
	PixQRCode  string `json:"pix_qrcode,omitempty"`
	PixCopiaEC string `json:"pix_copia_e_cola,omitempty"`

	Pagador PayerSnapshot `json:"pagador"`

	// Webhook bookkeeping.
	AtualizadoPorWebhook bool   `json:"atualizado_por_webhook"`
	WebhookSourceIP      string `json:"webhook_source_ip,omitempty"`

	// Optimistic concurrency: bumped on every successful update.
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IssueBoletoRequest is the inbound request to issue a boleto for an order.
type IssueBoletoRequest struct {
	OrderNumber string  `json:"order_number"`
	AccountID   string  `json:"account_id"`
	Amount      float64 `json:"amount"`
	DueDate     string  `json:"due_date"` // YYYY-MM-DD
	Mensagem    string  `json:"mensagem,omitempty"`
}

// AlterBoletoRequest carries the fields that may change while a boleto is
// open. Nil pointers mean "leave unchanged".
type AlterBoletoRequest struct {
	DueDate         *string  `json:"due_date,omitempty"` // YYYY-MM-DD
	Amount          *float64 `json:"amount,omitempty"`
	CobrarJuros     *bool    `json:"cobrar_juros,omitempty"`
	CobrarMulta     *bool    `json:"cobrar_multa,omitempty"`
	DocumentoSacado *string  `json:"documento_sacado,omitempty"`
}

// PaymentWebhook is the inbound payment-confirmation callback, keyed by
// Nosso Número. Processed idempotently on (NossoNumero, PaidAt).
type PaymentWebhook struct {
	NossoNumero string    `json:"nosso_numero"`
	PaidAmount  float64   `json:"valor_pago"`
	PaidAt      time.Time `json:"data_pagamento"`
	SourceIP    string    `json:"-"`
}

// BoletoPage is one page of a bank-side listing plus the continuation cursor.
// ProximoIndice is meaningful only when HasMore is true.
type BoletoPage struct {
	Boletos       []BankBoleto `json:"boletos"`
	HasMore       bool         `json:"has_more"`
	ProximoIndice int          `json:"proximo_indice,omitempty"`
}

// BankBoleto is the bank's view of a billet as returned by the listing and
// consultation endpoints.
type BankBoleto struct {
	NossoNumero    string  `json:"numeroBoletoBB"`
	EstadoTitulo   string  `json:"codigoEstadoTituloCobranca"`
	DataRegistro   string  `json:"dataRegistro"`
	DataVencimento string  `json:"dataVencimento"`
	ValorOriginal  float64 `json:"valorOriginal"`
	Carteira       int     `json:"codigoCarteira,omitempty"`
	ValorPago      float64 `json:"valorPago,omitempty"`
	DataCredito    string  `json:"dataCredito,omitempty"`
}

// ListBoletosQuery drives the bank-side listing.
type ListBoletosQuery struct {
	AccountID  string
	Convenio   string
	Situacao   string // bank situation code filter
	StartIndex int    // continuation cursor from a previous page
	FetchAll   bool   // transparently follow continuation cursors
}
