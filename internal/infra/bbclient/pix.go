package bbclient

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
)

// ============================================================
// PIX — consulta de transações recebidas
// ============================================================

// itensPorPagina is the page size the bank serves on the received-PIX
// consultation.
const itensPorPagina = 100

type wirePixPage struct {
	Paginacao struct {
		PaginaAtual       int `json:"paginaAtual"`
		ItensPorPagina    int `json:"itensPorPagina"`
		QuantidadePaginas int `json:"quantidadeDePaginas"`
	} `json:"parametros"`
	Pix []struct {
		EndToEndID string `json:"endToEndId"`
		TxID       string `json:"txid"`
		Valor      string `json:"valor"`
		Horario    string `json:"horario"`
		Pagador    struct {
			CPF  string `json:"cpf"`
			CNPJ string `json:"cnpj"`
			Nome string `json:"nome"`
		} `json:"pagador"`
		InfoPagador string `json:"infoPagador"`
	} `json:"pix"`
}

// ConsultarPixRecebidos lists received PIX transactions inside a bounded date
// window. The bank caps the window; wider queries are refused locally before
// any network call. FetchAll walks paginaAtual to the last page.
func (c *Client) ConsultarPixRecebidos(ctx context.Context, q *domain.PixReceivedQuery) (*domain.PixReceivedPage, error) {
	if !q.End.After(q.Start) {
		return nil, domain.NewValidationError("fim", "deve ser posterior ao início")
	}
	if q.End.Sub(q.Start) > c.cfg.PixMaxWindow {
		return nil, domain.NewValidationError("periodo",
			fmt.Sprintf("janela máxima de consulta é %s", c.cfg.PixMaxWindow))
	}

	page := q.Page
	if page < 1 {
		page = 1
	}

	var all []domain.PixReceived
	for {
		wire, err := c.fetchPixPage(ctx, q.Start, q.End, page)
		if err != nil {
			return nil, err
		}

		received, err := decodePixPage(wire)
		if err != nil {
			return nil, err
		}
		all = append(all, received...)

		if !q.FetchAll || wire.Paginacao.PaginaAtual >= wire.Paginacao.QuantidadePaginas {
			return &domain.PixReceivedPage{
				Transactions: all,
				Page:         wire.Paginacao.PaginaAtual,
				TotalPages:   wire.Paginacao.QuantidadePaginas,
			}, nil
		}
		page = wire.Paginacao.PaginaAtual + 1
	}
}

func (c *Client) fetchPixPage(ctx context.Context, start, end time.Time, page int) (*wirePixPage, error) {
	params := url.Values{}
	params.Set("inicio", start.Format(time.RFC3339))
	params.Set("fim", end.Format(time.RFC3339))
	params.Set("paginacao.paginaAtual", fmt.Sprintf("%d", page))
	params.Set("paginacao.itensPorPagina", fmt.Sprintf("%d", itensPorPagina))

	var out wirePixPage
	if err := c.doRead(ctx, c.pix, "pix.consultar_recebidos", "/pix?"+params.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func decodePixPage(wire *wirePixPage) ([]domain.PixReceived, error) {
	out := make([]domain.PixReceived, 0, len(wire.Pix))
	for _, p := range wire.Pix {
		var valor float64
		if _, err := fmt.Sscanf(p.Valor, "%f", &valor); err != nil {
			return nil, fmt.Errorf("decode pix valor %q: %w", p.Valor, err)
		}
		horario, err := time.Parse(time.RFC3339, p.Horario)
		if err != nil {
			return nil, fmt.Errorf("decode pix horario %q: %w", p.Horario, err)
		}

		doc := p.Pagador.CPF
		if doc == "" {
			doc = p.Pagador.CNPJ
		}
		out = append(out, domain.PixReceived{
			EndToEndID:  p.EndToEndID,
			TxID:        p.TxID,
			Valor:       valor,
			Horario:     horario,
			PagadorDoc:  doc,
			PagadorNome: p.Pagador.Nome,
			InfoPagador: p.InfoPagador,
		})
	}
	return out, nil
}
