package format

import (
	"fmt"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
)

// Field-length ceilings imposed by the Cobrança API.
const (
	MaxSeuNumeroLen = 15
	MaxNomeLen      = 60
	MaxEnderecoLen  = 60
	MaxCidadeLen    = 30
	MaxBairroLen    = 30
	MaxMensagemLen  = 165
)

// ValidateRegistroBoleto runs every structural check in one pass and returns
// the complete list of violations, so the caller can surface all problems at
// once instead of fixing them one by one.
func ValidateRegistroBoleto(r *domain.RegistroBoleto) []domain.Violation {
	var out []domain.Violation

	add := func(field, msg string) {
		out = append(out, domain.Violation{Field: field, Message: msg})
	}

	if r.Valor <= 0 {
		add("valor", "deve ser maior que zero")
	}
	// Calendar-date comparison: a boleto issued at 10:30 is still valid when
	// it is due that same day.
	if dateOnly(r.DataVencimento).Before(dateOnly(r.DataEmissao)) {
		add("dataVencimento", "não pode ser anterior à data de emissão")
	}

	if r.Modalidade != 1 && r.Modalidade != 4 {
		add("modalidade", fmt.Sprintf("deve ser 1 ou 4, recebido %d", r.Modalidade))
	}

	doc := OnlyDigits(r.Documento)
	switch r.TipoInscricao {
	case domain.InscricaoCPF:
		if len(doc) != 11 {
			add("documento", fmt.Sprintf("CPF deve ter 11 dígitos, recebido %d", len(doc)))
		}
	case domain.InscricaoCNPJ:
		if len(doc) != 14 {
			add("documento", fmt.Sprintf("CNPJ deve ter 14 dígitos, recebido %d", len(doc)))
		}
	default:
		add("tipoInscricao", fmt.Sprintf("deve ser 1 (CPF) ou 2 (CNPJ), recebido %d", r.TipoInscricao))
	}

	if r.SeuNumero == "" {
		add("seuNumero", "obrigatório")
	} else if len(r.SeuNumero) > MaxSeuNumeroLen {
		add("seuNumero", fmt.Sprintf("máximo %d caracteres, recebido %d", MaxSeuNumeroLen, len(r.SeuNumero)))
	}
	if r.NossoNumero != nil && len(*r.NossoNumero) != 20 {
		add("nossoNumero", fmt.Sprintf("deve ter exatamente 20 caracteres, recebido %d", len(*r.NossoNumero)))
	}

	checkRequired(&out, "nomePagador", r.NomePagador, MaxNomeLen)
	checkRequired(&out, "endereco", r.Endereco, MaxEnderecoLen)
	checkRequired(&out, "cidade", r.Cidade, MaxCidadeLen)
	checkRequired(&out, "bairro", r.Bairro, MaxBairroLen)

	if len(r.UF) != 2 {
		add("uf", fmt.Sprintf("deve ter exatamente 2 caracteres, recebido %d", len(r.UF)))
	}
	if len(r.Mensagem) > MaxMensagemLen {
		add("mensagem", fmt.Sprintf("máximo %d caracteres, recebido %d", MaxMensagemLen, len(r.Mensagem)))
	}

	return out
}

// dateOnly drops the time-of-day component so vencimento/emissão compare at
// calendar granularity.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func checkRequired(out *[]domain.Violation, field, value string, max int) {
	if value == "" {
		*out = append(*out, domain.Violation{Field: field, Message: "obrigatório"})
		return
	}
	if len(value) > max {
		*out = append(*out, domain.Violation{Field: field, Message: fmt.Sprintf("máximo %d caracteres, recebido %d", max, len(value))})
	}
}

// ValidatePixLine checks that exactly one identification form's required
// sub-fields are present and coherent for the declared form.
func ValidatePixLine(l *domain.PixLine) []domain.Violation {
	var out []domain.Violation
	add := func(field, msg string) {
		out = append(out, domain.Violation{Field: field, Message: msg})
	}

	if l.Amount <= 0 {
		add("valor", "deve ser maior que zero")
	}
	if _, err := ParseDate(l.Data); err != nil {
		add("data", fmt.Sprintf("data inválida: %q", l.Data))
	}

	forms := presentForms(l)
	if len(forms) == 0 {
		add("forma_identificacao", "nenhuma forma de identificação informada")
		return out
	}
	if len(forms) > 1 {
		add("forma_identificacao", fmt.Sprintf("exatamente uma forma deve ser informada, recebidas %d", len(forms)))
		return out
	}
	if forms[0] != l.Form {
		add("forma_identificacao", fmt.Sprintf("campos preenchidos correspondem a %s, declarado %s", forms[0], l.Form))
		return out
	}

	switch l.Form {
	case domain.FormTelefone:
		if l.DDD == "" {
			add("ddd", "obrigatório para forma telefone")
		}
	case domain.FormCPF:
		if len(OnlyDigits(l.CPF)) != 11 {
			add("cpf", "deve ter 11 dígitos")
		}
	case domain.FormCNPJ:
		if len(OnlyDigits(l.CNPJ)) != 14 {
			add("cnpj", "deve ter 14 dígitos")
		}
	case domain.FormDadosBancarios:
		if l.ISPB == "" || l.Agencia == "" || l.Conta == "" {
			add("dados_bancarios", "numero_ispb, agencia e conta são obrigatórios")
		}
	}

	return out
}

// presentForms lists which identification forms have their discriminant
// sub-fields filled in.
func presentForms(l *domain.PixLine) []domain.PixKeyForm {
	var forms []domain.PixKeyForm
	if l.Telefone != "" {
		forms = append(forms, domain.FormTelefone)
	}
	if l.Email != "" {
		forms = append(forms, domain.FormEmail)
	}
	if l.CPF != "" {
		forms = append(forms, domain.FormCPF)
	}
	if l.CNPJ != "" {
		forms = append(forms, domain.FormCNPJ)
	}
	if l.Chave != "" {
		forms = append(forms, domain.FormChaveAleatoria)
	}
	if l.ISPB != "" || l.Agencia != "" || l.Conta != "" {
		forms = append(forms, domain.FormDadosBancarios)
	}
	return forms
}

// ValidateBarcodeLine checks one barcode-based lançamento (boleto or guia).
func ValidateBarcodeLine(codigoBarras string, amount float64, data string) []domain.Violation {
	var out []domain.Violation
	digits := OnlyDigits(codigoBarras)
	if len(digits) != 44 && len(digits) != 47 && len(digits) != 48 {
		out = append(out, domain.Violation{Field: "codigo_barras", Message: fmt.Sprintf("deve ter 44, 47 ou 48 dígitos, recebido %d", len(digits))})
	}
	if amount <= 0 {
		out = append(out, domain.Violation{Field: "valor", Message: "deve ser maior que zero"})
	}
	if _, err := ParseDate(data); err != nil {
		out = append(out, domain.Violation{Field: "data", Message: fmt.Sprintf("data inválida: %q", data)})
	}
	return out
}
