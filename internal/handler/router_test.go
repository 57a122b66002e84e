package handler_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/handler"
	"github.com/agrovale/cobranca-bb-go/internal/identifier"
	"github.com/agrovale/cobranca-bb-go/internal/infra/memory"
	"github.com/agrovale/cobranca-bb-go/internal/infra/mtls"
	"github.com/agrovale/cobranca-bb-go/internal/infra/notify"
	"github.com/agrovale/cobranca-bb-go/internal/infra/observability"
	"github.com/agrovale/cobranca-bb-go/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	testJWTSecret     = "jwt-test-secret"
	testWebhookSecret = "webhook-test-secret"
)

// stubGateway answers every bank call with a canned success.
type stubGateway struct{}

func (stubGateway) RegistrarBoleto(_ context.Context, req *domain.RegistroBoleto) (*domain.RegistroBoletoResult, error) {
	nosso := "00031285579999999999"
	if req.NossoNumero != nil {
		nosso = *req.NossoNumero
	}
	return &domain.RegistroBoletoResult{NossoNumero: nosso, LinhaDigitavel: "00190000090312855700", CodigoBarras: "00193896800000150000"}, nil
}

func (stubGateway) AlterarBoleto(context.Context, *domain.AlteracaoBoleto) error { return nil }
func (stubGateway) BaixarBoleto(context.Context, string, string) error           { return nil }

func (stubGateway) ConsultarBoleto(context.Context, string, string) (*domain.BankBoleto, error) {
	return &domain.BankBoleto{}, nil
}

func (stubGateway) ListarBoletos(context.Context, *domain.ListBoletosQuery) (*domain.BoletoPage, error) {
	return &domain.BoletoPage{}, nil
}

func (stubGateway) EnviarLotePix(_ context.Context, numeroRequisicao, accountID string, lines []domain.PixLine) (*domain.BatchResult, error) {
	outcomes := make([]domain.LineOutcome, len(lines))
	for i := range outcomes {
		outcomes[i] = domain.LineOutcome{Index: i, Valid: true, BankCode: "PGT-OK"}
	}
	return &domain.BatchResult{NumeroRequisicao: numeroRequisicao, AccountID: accountID, Estado: "CONSISTENTE", Lines: outcomes}, nil
}

func (stubGateway) EnviarLoteBoletos(_ context.Context, numeroRequisicao, accountID string, lines []domain.BoletoPaymentLine) (*domain.BatchResult, error) {
	return &domain.BatchResult{NumeroRequisicao: numeroRequisicao, AccountID: accountID, Estado: "CONSISTENTE", Lines: make([]domain.LineOutcome, len(lines))}, nil
}

func (stubGateway) EnviarLoteGuias(_ context.Context, numeroRequisicao, accountID string, lines []domain.GuiaPaymentLine) (*domain.BatchResult, error) {
	return &domain.BatchResult{NumeroRequisicao: numeroRequisicao, AccountID: accountID, Estado: "CONSISTENTE", Lines: make([]domain.LineOutcome, len(lines))}, nil
}

func (stubGateway) LiberarPagamentos(context.Context, string, string) error { return nil }

func (stubGateway) CancelarPagamentos(_ context.Context, _ string, codes []string) ([]domain.CancelOutcome, error) {
	outcomes := make([]domain.CancelOutcome, len(codes))
	for i, c := range codes {
		outcomes[i] = domain.CancelOutcome{Code: c, Cancelled: true}
	}
	return outcomes, nil
}

func (stubGateway) ConsultarLote(_ context.Context, numeroRequisicao string) (*domain.BatchResult, error) {
	return &domain.BatchResult{NumeroRequisicao: numeroRequisicao}, nil
}

func (stubGateway) ConsultarPixRecebidos(context.Context, *domain.PixReceivedQuery) (*domain.PixReceivedPage, error) {
	return &domain.PixReceivedPage{}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	repos := memory.NewRepositories()
	repos.SeedCustomer(domain.BillingProfile{
		CustomerID: "cust-1",
		Nome:       "Fazenda Boa Vista LTDA",
		Documento:  "12.345.678/0001-90",
		Endereco:   "Rod BR-040 km 12",
		Cidade:     "Uberaba",
		Bairro:     "Zona Rural",
		UF:         "MG",
		CEP:        "38000-000",
	})
	repos.SeedOrder(domain.Order{Number: "PED-2026-0001", CustomerID: "cust-1", Total: 1500})
	repos.SeedAccount(domain.Account{ID: "acc-1", Agencia: "1234", Conta: "56789", Convenio: "3128557", Carteira: 17})

	gen := identifier.NewGeneratorWithSeed(memory.NewSequenceStore(), func() uint64 { return 1_000_000_000 })
	allocator := identifier.NewAllocator(gen, true)

	boletos := memory.NewBoletoStore()
	audit := memory.NewAuditStore()
	gateway := stubGateway{}

	boletoSvc := service.NewBoletoService(boletos, audit, repos, repos, repos, gateway, allocator, metrics, logger)
	pagamentoSvc := service.NewPagamentoService(gateway, audit, metrics, logger)
	pixSvc := service.NewPixService(gateway, logger)
	certSvc := service.NewCertificadoService(mtls.NewStore(nil), notify.New("", nil, logger), metrics, logger)

	router := handler.NewRouter(handler.Deps{
		Boletos:       boletoSvc,
		Pagamentos:    pagamentoSvc,
		Pix:           pixSvc,
		Certificados:  certSvc,
		Metrics:       metrics,
		Logger:        logger,
		JWTSecret:     testJWTSecret,
		WebhookSecret: testWebhookSecret,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func bearerToken(t *testing.T) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "operador-teste",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestV1_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/boletos?convenio=3128557")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestV1_RejectsMalformedToken(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/boletos?convenio=3128557", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for garbage token, got %d", resp.StatusCode)
	}
}

func TestIssueBoleto_EndToEnd(t *testing.T) {
	srv := newTestServer(t)
	token := bearerToken(t)

	body, _ := json.Marshal(domain.IssueBoletoRequest{
		OrderNumber: "PED-2026-0001",
		AccountID:   "acc-1",
		Amount:      1500,
		DueDate:     "2026-10-01",
	})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/boletos", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var boleto domain.Boleto
	if err := json.NewDecoder(resp.Body).Decode(&boleto); err != nil {
		t.Fatal(err)
	}
	if boleto.Status != domain.StatusAberto {
		t.Errorf("expected ABERTO, got %s", boleto.Status)
	}
	if len(boleto.NossoNumero) != 20 {
		t.Errorf("expected 20-char nosso número, got %q", boleto.NossoNumero)
	}
}

func TestIssueBoleto_UnknownOrderIs404(t *testing.T) {
	srv := newTestServer(t)
	token := bearerToken(t)

	body, _ := json.Marshal(domain.IssueBoletoRequest{
		OrderNumber: "PED-0000-0000",
		AccountID:   "acc-1",
		Amount:      10,
		DueDate:     "2026-10-01",
	})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/boletos", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestWebhook_RequiresValidSignature(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{"nosso_numero":"00031285571000000000","valor_pago":1500,"data_pagamento":"2026-09-10T14:00:00Z"}`)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/webhooks/bb/pagamento", bytes.NewReader(body))
	req.Header.Set("X-Signature", "deadbeef")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad signature, got %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodPost, srv.URL+"/webhooks/bb/pagamento", bytes.NewReader(body))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for missing signature, got %d", resp.StatusCode)
	}
}

func TestWebhook_PaymentFlow(t *testing.T) {
	srv := newTestServer(t)
	token := bearerToken(t)

	// Issue a boleto first so the webhook has something to hit.
	issueBody, _ := json.Marshal(domain.IssueBoletoRequest{
		OrderNumber: "PED-2026-0001",
		AccountID:   "acc-1",
		Amount:      1500,
		DueDate:     "2026-10-01",
	})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/boletos", bytes.NewReader(issueBody))
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var boleto domain.Boleto
	if err := json.NewDecoder(resp.Body).Decode(&boleto); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	payload, _ := json.Marshal(map[string]any{
		"nosso_numero":   boleto.NossoNumero,
		"valor_pago":     1500.0,
		"data_pagamento": "2026-09-10T14:00:00Z",
	})
	req, _ = http.NewRequest(http.MethodPost, srv.URL+"/webhooks/bb/pagamento", bytes.NewReader(payload))
	req.Header.Set("X-Signature", signBody(payload))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for signed webhook, got %d", resp.StatusCode)
	}

	// The boleto settled.
	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/v1/boletos/"+boleto.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var paid domain.Boleto
	if err := json.NewDecoder(resp.Body).Decode(&paid); err != nil {
		t.Fatal(err)
	}
	if paid.Status != domain.StatusPago {
		t.Errorf("expected PAGO after webhook, got %s", paid.Status)
	}
}
