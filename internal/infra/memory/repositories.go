package memory

import (
	"context"
	"sync"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
)

// Repositories bundles the read-only CRM-side lookups for the dev profile.
// Seed it with fixtures; everything is safe for concurrent reads.
type Repositories struct {
	mu        sync.RWMutex
	customers map[string]domain.BillingProfile
	orders    map[string]domain.Order
	accounts  map[string]domain.Account
}

// NewRepositories creates empty repositories.
func NewRepositories() *Repositories {
	return &Repositories{
		customers: make(map[string]domain.BillingProfile),
		orders:    make(map[string]domain.Order),
		accounts:  make(map[string]domain.Account),
	}
}

// SeedCustomer registers a billing profile.
func (r *Repositories) SeedCustomer(p domain.BillingProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[p.CustomerID] = p
}

// SeedOrder registers an order.
func (r *Repositories) SeedOrder(o domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.Number] = o
}

// SeedAccount registers an issuing account.
func (r *Repositories) SeedAccount(a domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[a.ID] = a
}

func (r *Repositories) GetBillingProfile(ctx context.Context, customerID string) (*domain.BillingProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.customers[customerID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "customer", ID: customerID}
	}
	return &p, nil
}

func (r *Repositories) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[number]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "order", ID: number}
	}
	return &o, nil
}

func (r *Repositories) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[accountID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	return &a, nil
}
