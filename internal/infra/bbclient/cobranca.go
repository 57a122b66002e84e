package bbclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/format"
)

// ============================================================
// Cobrança — registrar, alterar, baixar, consultar, listar
// ============================================================

// wirePagador is the pagador block of the registrar payload.
type wirePagador struct {
	TipoInscricao   int    `json:"tipoInscricao"`
	NumeroInscricao string `json:"numeroInscricao"`
	Nome            string `json:"nome"`
	Endereco        string `json:"endereco"`
	Cidade          string `json:"cidade"`
	Bairro          string `json:"bairro"`
	UF              string `json:"uf"`
	CEP             string `json:"cep"`
}

type wireRegistro struct {
	NumeroConvenio           string      `json:"numeroConvenio"`
	CodigoModalidade         int         `json:"codigoModalidade"`
	DataEmissao              string      `json:"dataEmissao"`
	DataVencimento           string      `json:"dataVencimento"`
	ValorOriginal            string      `json:"valorOriginal"`
	NumeroTituloBeneficiario string      `json:"numeroTituloBeneficiario"`
	NumeroTituloCliente      *string     `json:"numeroTituloCliente,omitempty"`
	IndicadorJuros           string      `json:"indicadorCobrarJuros"`
	IndicadorMulta           string      `json:"indicadorCobrarMulta"`
	Mensagem                 string      `json:"mensagemBloquetoOcorrencia,omitempty"`
	Pagador                  wirePagador `json:"pagador"`
}

// RegistrarBoleto registers a billet. Non-idempotent: once the request is on
// the wire the allocated identifiers are burned whether or not a response
// comes back.
func (c *Client) RegistrarBoleto(ctx context.Context, req *domain.RegistroBoleto) (*domain.RegistroBoletoResult, error) {
	valor, err := format.FormatAmount(req.Valor)
	if err != nil {
		return nil, err
	}

	wire := wireRegistro{
		NumeroConvenio:           req.Convenio,
		CodigoModalidade:         req.Modalidade,
		DataEmissao:              format.FormatDate(req.DataEmissao),
		DataVencimento:           format.FormatDate(req.DataVencimento),
		ValorOriginal:            valor,
		NumeroTituloBeneficiario: req.SeuNumero,
		NumeroTituloCliente:      req.NossoNumero,
		IndicadorJuros:           simNao(req.CobrarJuros),
		IndicadorMulta:           simNao(req.CobrarMulta),
		Mensagem:                 req.Mensagem,
		Pagador: wirePagador{
			TipoInscricao:   req.TipoInscricao,
			NumeroInscricao: format.OnlyDigits(req.Documento),
			Nome:            req.NomePagador,
			Endereco:        req.Endereco,
			Cidade:          req.Cidade,
			Bairro:          req.Bairro,
			UF:              req.UF,
			CEP:             format.OnlyDigits(req.CEP),
		},
	}

	ref := req.SeuNumero
	var out domain.RegistroBoletoResult
	if err := c.doSend(ctx, c.cobranca, "cobranca.registrar", http.MethodPost, "/boletos", ref, wire, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type wireAlteracao struct {
	NumeroConvenio     string  `json:"numeroConvenio"`
	NovaDataVencimento *string `json:"novaDataVencimento,omitempty"`
	NovoValor          *string `json:"novoValorNominal,omitempty"`
	CobrarJuros        *string `json:"indicadorCobrarJuros,omitempty"`
	CobrarMulta        *string `json:"indicadorCobrarMulta,omitempty"`
	DocumentoSacado    *string `json:"numeroInscricaoSacado,omitempty"`
}

// AlterarBoleto applies an alteration to an open billet.
func (c *Client) AlterarBoleto(ctx context.Context, req *domain.AlteracaoBoleto) error {
	wire := wireAlteracao{NumeroConvenio: req.Convenio}

	if req.NovaDataVencimento != nil {
		d := format.FormatDate(*req.NovaDataVencimento)
		wire.NovaDataVencimento = &d
	}
	if req.NovoValor != nil {
		v, err := format.FormatAmount(*req.NovoValor)
		if err != nil {
			return err
		}
		wire.NovoValor = &v
	}
	if req.CobrarJuros != nil {
		s := simNao(*req.CobrarJuros)
		wire.CobrarJuros = &s
	}
	if req.CobrarMulta != nil {
		s := simNao(*req.CobrarMulta)
		wire.CobrarMulta = &s
	}
	if req.DocumentoSacado != nil {
		d := format.OnlyDigits(*req.DocumentoSacado)
		wire.DocumentoSacado = &d
	}

	path := fmt.Sprintf("/boletos/%s", url.PathEscape(req.NossoNumero))
	return c.doSend(ctx, c.cobranca, "cobranca.alterar", http.MethodPatch, path, req.NossoNumero, wire, nil)
}

// BaixarBoleto writes off a billet.
func (c *Client) BaixarBoleto(ctx context.Context, convenio, nossoNumero string) error {
	path := fmt.Sprintf("/boletos/%s/baixar", url.PathEscape(nossoNumero))
	body := map[string]string{"numeroConvenio": convenio}
	return c.doSend(ctx, c.cobranca, "cobranca.baixar", http.MethodPost, path, nossoNumero, body, nil)
}

// ConsultarBoleto fetches one billet. Idempotent, retried.
func (c *Client) ConsultarBoleto(ctx context.Context, convenio, nossoNumero string) (*domain.BankBoleto, error) {
	path := fmt.Sprintf("/boletos/%s?numeroConvenio=%s", url.PathEscape(nossoNumero), url.QueryEscape(convenio))
	var out domain.BankBoleto
	if err := c.doRead(ctx, c.cobranca, "cobranca.consultar", path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type wireListagem struct {
	Boletos               []domain.BankBoleto `json:"boletos"`
	IndicadorContinuidade string              `json:"indicadorContinuidade"`
	ProximoIndice         int                 `json:"proximoIndice"`
}

// ListarBoletos returns one page of the bank-side listing. Cursor-following
// for "fetch all" lives with the caller; the gateway only speaks pages.
func (c *Client) ListarBoletos(ctx context.Context, q *domain.ListBoletosQuery) (*domain.BoletoPage, error) {
	params := url.Values{}
	params.Set("numeroConvenio", q.Convenio)
	if q.Situacao != "" {
		params.Set("indicadorSituacao", q.Situacao)
	}
	if q.StartIndex > 0 {
		params.Set("indice", strconv.Itoa(q.StartIndex))
	}

	var out wireListagem
	if err := c.doRead(ctx, c.cobranca, "cobranca.listar", "/boletos?"+params.Encode(), &out); err != nil {
		return nil, err
	}

	return &domain.BoletoPage{
		Boletos:       out.Boletos,
		HasMore:       out.IndicadorContinuidade == "S",
		ProximoIndice: out.ProximoIndice,
	}, nil
}

func simNao(b bool) string {
	if b {
		return "S"
	}
	return "N"
}
