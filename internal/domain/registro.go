package domain

import "time"

// ============================================================
// Outbound Cobrança payloads (pre-wire, validated by internal/format)
// ============================================================

// Inscription types for the pagador document.
const (
	InscricaoCPF  = 1 // 11-digit document
	InscricaoCNPJ = 2 // 14-digit document
)

// RegistroBoleto is the outbound "criar boleto" request before wire
// formatting. Dates and amounts are kept native here; the gateway applies the
// bank's fixed formats on the way out.
type RegistroBoleto struct {
	Convenio   string
	Modalidade int // 1 = simples, 4 = vinculada

	DataEmissao    time.Time
	DataVencimento time.Time
	Valor          float64

	SeuNumero   string  // ≤15 chars
	NossoNumero *string // 20 digits; nil lets the bank assign it

	TipoInscricao int    // InscricaoCPF | InscricaoCNPJ
	Documento     string // digits only, leading zeros significant

	NomePagador string // ≤60
	Endereco    string // ≤60
	Cidade      string // ≤30
	Bairro      string // ≤30
	UF          string // exactly 2
	CEP         string

	Mensagem    string // ≤165
	CobrarJuros bool
	CobrarMulta bool
}

// RegistroBoletoResult is what the bank returns on a successful registration.
type RegistroBoletoResult struct {
	NossoNumero    string `json:"numero"`
	LinhaDigitavel string `json:"linhaDigitavel"`
	CodigoBarras   string `json:"codigoBarras"`
	PixTxID        string `json:"txId,omitempty"`
	PixQRCodeURL   string `json:"qrCode_url,omitempty"`
	PixCopiaEC     string `json:"qrCode_emv,omitempty"`
}

// AlteracaoBoleto is the outbound "alterar boleto" request. Nil pointers mean
// the field is not being altered.
type AlteracaoBoleto struct {
	Convenio    string
	NossoNumero string

	NovaDataVencimento *time.Time
	NovoValor          *float64
	CobrarJuros        *bool
	CobrarMulta        *bool
	DocumentoSacado    *string
}
