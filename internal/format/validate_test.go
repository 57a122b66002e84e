package format_test

import (
	"strings"
	"testing"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/format"
)

func validRegistro() *domain.RegistroBoleto {
	nosso := "00031285570000000042"
	return &domain.RegistroBoleto{
		Convenio:       "3128557",
		Modalidade:     1,
		DataEmissao:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		DataVencimento: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Valor:          150.00,
		SeuNumero:      "PED20260001",
		NossoNumero:    &nosso,
		TipoInscricao:  domain.InscricaoCPF,
		Documento:      "01234567890",
		NomePagador:    "João da Silva",
		Endereco:       "Rua das Laranjeiras 100",
		Cidade:         "Uberlândia",
		Bairro:         "Centro",
		UF:             "MG",
		CEP:            "38400000",
	}
}

func TestValidateRegistroBoleto_Valid(t *testing.T) {
	if v := format.ValidateRegistroBoleto(validRegistro()); len(v) > 0 {
		t.Fatalf("expected no violations, got %v", v)
	}
}

func TestValidateRegistroBoleto_DueSameDayAsEmission(t *testing.T) {
	// Emission carries the wall clock; a boleto due that same calendar day
	// must still pass.
	r := validRegistro()
	r.DataEmissao = time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	r.DataVencimento = time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	if v := format.ValidateRegistroBoleto(r); len(v) > 0 {
		t.Fatalf("expected no violations for same-day due date, got %v", v)
	}

	r.DataVencimento = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	violations := format.ValidateRegistroBoleto(r)
	if len(violations) != 1 || violations[0].Field != "dataVencimento" {
		t.Fatalf("expected dataVencimento violation for due date before emission, got %v", violations)
	}
}

func TestValidateRegistroBoleto_CollectsAllViolations(t *testing.T) {
	r := validRegistro()
	r.Valor = 0
	r.Modalidade = 3
	r.SeuNumero = ""
	r.NomePagador = ""
	r.UF = "MGS"
	r.DataVencimento = r.DataEmissao.AddDate(0, 0, -1)

	violations := format.ValidateRegistroBoleto(r)
	if len(violations) != 6 {
		t.Fatalf("expected the complete list of 6 violations, got %d: %v", len(violations), violations)
	}

	fields := make(map[string]bool)
	for _, v := range violations {
		fields[v.Field] = true
	}
	for _, f := range []string{"valor", "modalidade", "seuNumero", "nomePagador", "uf", "dataVencimento"} {
		if !fields[f] {
			t.Errorf("missing violation for %s", f)
		}
	}
}

func TestValidateRegistroBoleto_DocumentLength(t *testing.T) {
	r := validRegistro()
	r.TipoInscricao = domain.InscricaoCNPJ
	r.Documento = "01234567890" // 11 digits, CNPJ wants 14
	violations := format.ValidateRegistroBoleto(r)
	if len(violations) != 1 || violations[0].Field != "documento" {
		t.Fatalf("expected single documento violation, got %v", violations)
	}
}

func TestValidateRegistroBoleto_NossoNumeroLength(t *testing.T) {
	r := validRegistro()
	bad := "0003128557"
	r.NossoNumero = &bad
	violations := format.ValidateRegistroBoleto(r)
	if len(violations) != 1 || violations[0].Field != "nossoNumero" {
		t.Fatalf("expected single nossoNumero violation, got %v", violations)
	}
}

func TestValidateRegistroBoleto_NilNossoNumeroIsFine(t *testing.T) {
	r := validRegistro()
	r.NossoNumero = nil
	if v := format.ValidateRegistroBoleto(r); len(v) > 0 {
		t.Fatalf("bank-assigned nosso número must validate: %v", v)
	}
}

func TestValidateRegistroBoleto_MensagemTooLong(t *testing.T) {
	r := validRegistro()
	r.Mensagem = strings.Repeat("x", 166)
	violations := format.ValidateRegistroBoleto(r)
	if len(violations) != 1 || violations[0].Field != "mensagem" {
		t.Fatalf("expected single mensagem violation, got %v", violations)
	}
}

func validPixLine() domain.PixLine {
	return domain.PixLine{
		Form:   domain.FormCPF,
		Amount: 10,
		Data:   "01.09.2026",
		CPF:    "012.345.678-90",
	}
}

func TestValidatePixLine_Valid(t *testing.T) {
	l := validPixLine()
	if v := format.ValidatePixLine(&l); len(v) > 0 {
		t.Fatalf("expected no violations, got %v", v)
	}
}

func TestValidatePixLine_NoForm(t *testing.T) {
	l := domain.PixLine{Form: domain.FormCPF, Amount: 10, Data: "01.09.2026"}
	v := format.ValidatePixLine(&l)
	if len(v) == 0 {
		t.Fatal("expected a violation when no identification form is present")
	}
}

func TestValidatePixLine_TwoForms(t *testing.T) {
	l := validPixLine()
	l.Email = "alguem@example.com"
	v := format.ValidatePixLine(&l)
	found := false
	for _, viol := range v {
		if viol.Field == "forma_identificacao" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected forma_identificacao violation for two forms, got %v", v)
	}
}

func TestValidatePixLine_DeclaredFormMismatch(t *testing.T) {
	l := validPixLine()
	l.Form = domain.FormEmail // fields say CPF
	if v := format.ValidatePixLine(&l); len(v) == 0 {
		t.Fatal("expected a violation when declared form disagrees with the fields")
	}
}

func TestValidatePixLine_BankAccountForm(t *testing.T) {
	l := domain.PixLine{
		Form:    domain.FormDadosBancarios,
		Amount:  25,
		Data:    "01.09.2026",
		ISPB:    "00000000",
		Agencia: "1234",
		Conta:   "56789",
	}
	if v := format.ValidatePixLine(&l); len(v) > 0 {
		t.Fatalf("expected no violations, got %v", v)
	}

	l.Conta = ""
	if v := format.ValidatePixLine(&l); len(v) == 0 {
		t.Fatal("expected violation for incomplete bank-account form")
	}
}

func TestValidateBarcodeLine(t *testing.T) {
	barcode44 := strings.Repeat("1", 44)
	if v := format.ValidateBarcodeLine(barcode44, 50, "01.09.2026"); len(v) > 0 {
		t.Fatalf("expected no violations, got %v", v)
	}

	if v := format.ValidateBarcodeLine(strings.Repeat("1", 45), 50, "01.09.2026"); len(v) == 0 {
		t.Fatal("expected violation for 45-digit barcode")
	}
	if v := format.ValidateBarcodeLine(barcode44, 0, "01.09.2026"); len(v) == 0 {
		t.Fatal("expected violation for zero amount")
	}
	if v := format.ValidateBarcodeLine(barcode44, 50, "2026-09-01"); len(v) == 0 {
		t.Fatal("expected violation for wrong date grammar")
	}
}
