package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
)

// BoletoStore persists boleto rows. Rows are append-and-update only: a
// terminal status is still a row, never a deletion.
type BoletoStore struct {
	client *Client
}

// NewBoletoStore creates the store.
func NewBoletoStore(client *Client) *BoletoStore {
	return &BoletoStore{client: client}
}

type boletoRow struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
	AccountID   string `json:"account_id"`
	Convenio    string `json:"convenio"`

	Amount    float64 `json:"amount"`
	IssueDate string  `json:"issue_date"`
	DueDate   string  `json:"due_date"`
	PaidAt    *string `json:"paid_at,omitempty"`
	BaixaAt   *string `json:"baixa_at,omitempty"`
	PaidValue float64 `json:"paid_value"`

	Status string `json:"status"`

	NossoNumero    string `json:"nosso_numero"`
	SeuNumero      string `json:"seu_numero"`
	LinhaDigitavel string `json:"linha_digitavel,omitempty"`
	CodigoBarras   string `json:"codigo_barras,omitempty"`

	PixTxID    string `json:"pix_txid,omitempty"`
	PixQRCode  string `json:"pix_qrcode,omitempty"`
	PixCopiaEC string `json:"pix_copia_e_cola,omitempty"`

	Pagador domain.PayerSnapshot `json:"pagador"`

	AtualizadoPorWebhook bool   `json:"atualizado_por_webhook"`
	WebhookSourceIP      string `json:"webhook_source_ip,omitempty"`

	Version   int64  `json:"version"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toRow(b *domain.Boleto) boletoRow {
	row := boletoRow{
		ID:                   b.ID,
		OrderNumber:          b.OrderNumber,
		AccountID:            b.AccountID,
		Convenio:             b.Convenio,
		Amount:               b.Amount,
		IssueDate:            b.IssueDate.Format(time.RFC3339),
		DueDate:              b.DueDate.Format(time.RFC3339),
		PaidValue:            b.PaidValue,
		Status:               string(b.Status),
		NossoNumero:          b.NossoNumero,
		SeuNumero:            b.SeuNumero,
		LinhaDigitavel:       b.LinhaDigitavel,
		CodigoBarras:         b.CodigoBarras,
		PixTxID:              b.PixTxID,
		PixQRCode:            b.PixQRCode,
		PixCopiaEC:           b.PixCopiaEC,
		Pagador:              b.Pagador,
		AtualizadoPorWebhook: b.AtualizadoPorWebhook,
		WebhookSourceIP:      b.WebhookSourceIP,
		Version:              b.Version,
		CreatedAt:            b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            b.UpdatedAt.Format(time.RFC3339),
	}
	if b.PaidAt != nil {
		s := b.PaidAt.Format(time.RFC3339)
		row.PaidAt = &s
	}
	if b.BaixaAt != nil {
		s := b.BaixaAt.Format(time.RFC3339)
		row.BaixaAt = &s
	}
	return row
}

func fromRow(r *boletoRow) (*domain.Boleto, error) {
	issue, err := time.Parse(time.RFC3339, r.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("decode issue_date: %w", err)
	}
	due, err := time.Parse(time.RFC3339, r.DueDate)
	if err != nil {
		return nil, fmt.Errorf("decode due_date: %w", err)
	}

	b := &domain.Boleto{
		ID:                   r.ID,
		OrderNumber:          r.OrderNumber,
		AccountID:            r.AccountID,
		Convenio:             r.Convenio,
		Amount:               r.Amount,
		IssueDate:            issue,
		DueDate:              due,
		PaidValue:            r.PaidValue,
		Status:               domain.BoletoStatus(r.Status),
		NossoNumero:          r.NossoNumero,
		SeuNumero:            r.SeuNumero,
		LinhaDigitavel:       r.LinhaDigitavel,
		CodigoBarras:         r.CodigoBarras,
		PixTxID:              r.PixTxID,
		PixQRCode:            r.PixQRCode,
		PixCopiaEC:           r.PixCopiaEC,
		Pagador:              r.Pagador,
		AtualizadoPorWebhook: r.AtualizadoPorWebhook,
		WebhookSourceIP:      r.WebhookSourceIP,
		Version:              r.Version,
	}
	if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
		b.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, r.UpdatedAt); err == nil {
		b.UpdatedAt = t
	}
	if r.PaidAt != nil {
		if t, err := time.Parse(time.RFC3339, *r.PaidAt); err == nil {
			b.PaidAt = &t
		}
	}
	if r.BaixaAt != nil {
		if t, err := time.Parse(time.RFC3339, *r.BaixaAt); err == nil {
			b.BaixaAt = &t
		}
	}
	return b, nil
}

// CreateBoleto inserts the row. Unique indexes on nosso_numero and
// seu_numero turn duplicates into ErrConflict.
func (s *BoletoStore) CreateBoleto(ctx context.Context, b *domain.Boleto) error {
	payload, err := json.Marshal(toRow(b))
	if err != nil {
		return err
	}

	err = s.client.once(func() error {
		_, _, err := s.client.doRequest(ctx, http.MethodPost, "boletos", payload)
		return err
	})

	var conflict *errConflictRow
	if errors.As(err, &conflict) {
		return &domain.ErrConflict{Resource: "boleto", Key: b.NossoNumero}
	}
	return err
}

// GetBoleto fetches one row by id.
func (s *BoletoStore) GetBoleto(ctx context.Context, id string) (*domain.Boleto, error) {
	return s.getOne(ctx, fmt.Sprintf("boletos?id=eq.%s&limit=1", url.QueryEscape(id)), id)
}

// GetBoletoByNossoNumero fetches one row by its Nosso Número.
func (s *BoletoStore) GetBoletoByNossoNumero(ctx context.Context, nossoNumero string) (*domain.Boleto, error) {
	return s.getOne(ctx, fmt.Sprintf("boletos?nosso_numero=eq.%s&limit=1", url.QueryEscape(nossoNumero)), nossoNumero)
}

func (s *BoletoStore) getOne(ctx context.Context, path, key string) (*domain.Boleto, error) {
	var rows []boletoRow
	err := s.client.withRetry(ctx, func() error {
		body, _, err := s.client.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		rows = nil
		if len(body) == 0 || string(body) == "[]" {
			return nil
		}
		return json.Unmarshal(body, &rows)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "boleto", ID: key}
	}
	return fromRow(&rows[0])
}

// UpdateBoleto applies the row only when the stored version still equals
// expectedVersion, bumping it in the same statement. Zero affected rows means
// a concurrent transition won: ErrConflict, caller reloads.
func (s *BoletoStore) UpdateBoleto(ctx context.Context, b *domain.Boleto, expectedVersion int64) error {
	b.Version = expectedVersion + 1
	payload, err := json.Marshal(toRow(b))
	if err != nil {
		return err
	}

	var affected int
	err = s.client.once(func() error {
		path := fmt.Sprintf("boletos?id=eq.%s&version=eq.%d", url.QueryEscape(b.ID), expectedVersion)
		_, n, err := s.client.doRequest(ctx, http.MethodPatch, path, payload)
		affected = n
		return err
	})
	if err != nil {
		b.Version = expectedVersion
		return err
	}
	if affected == 0 {
		b.Version = expectedVersion
		return &domain.ErrConflict{Resource: "boleto", Key: b.ID}
	}
	return nil
}

// CountBoletosForOrder counts rows referencing an order.
func (s *BoletoStore) CountBoletosForOrder(ctx context.Context, orderNumber string) (int, error) {
	var count int
	err := s.client.withRetry(ctx, func() error {
		path := fmt.Sprintf("boletos?order_number=eq.%s&select=id", url.QueryEscape(orderNumber))
		_, n, err := s.client.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("postgrest did not return a count for %s", path)
		}
		count = n
		return nil
	})
	return count, err
}
