package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
)

// Repositories serves the read-only CRM-side lookups (billing profiles,
// orders, issuing accounts) from their PostgREST tables.
type Repositories struct {
	client *Client
}

// NewRepositories creates the repositories.
func NewRepositories(client *Client) *Repositories {
	return &Repositories{client: client}
}

func (r *Repositories) GetBillingProfile(ctx context.Context, customerID string) (*domain.BillingProfile, error) {
	var profiles []domain.BillingProfile
	path := fmt.Sprintf("billing_profiles?customer_id=eq.%s&limit=1", url.QueryEscape(customerID))
	if err := r.fetch(ctx, path, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, &domain.ErrNotFound{Resource: "customer", ID: customerID}
	}
	return &profiles[0], nil
}

func (r *Repositories) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	var orders []domain.Order
	path := fmt.Sprintf("orders?number=eq.%s&limit=1", url.QueryEscape(number))
	if err := r.fetch(ctx, path, &orders); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, &domain.ErrNotFound{Resource: "order", ID: number}
	}
	return &orders[0], nil
}

func (r *Repositories) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	var accounts []domain.Account
	path := fmt.Sprintf("accounts?id=eq.%s&limit=1", url.QueryEscape(accountID))
	if err := r.fetch(ctx, path, &accounts); err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	return &accounts[0], nil
}

func (r *Repositories) fetch(ctx context.Context, path string, out any) error {
	return r.client.withRetry(ctx, func() error {
		body, _, err := r.client.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		if len(body) == 0 {
			return nil
		}
		return json.Unmarshal(body, out)
	})
}
