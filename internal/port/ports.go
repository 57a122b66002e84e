// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
)

// SequenceStore is the durable counter behind Nosso Número generation, one
// row per (account, agreement). Implementations must make CompareAndSwap
// atomic: two concurrent callers never both succeed with the same old value.
type SequenceStore interface {
	// Get returns the last issued value for the key. found=false means the
	// counter was never initialized.
	Get(ctx context.Context, accountID, agreement string) (last uint64, found bool, err error)

	// Create initializes the counter. Returns domain.ErrConflict if another
	// caller created it first.
	Create(ctx context.Context, accountID, agreement string, initial uint64) error

	// CompareAndSwap advances the counter from old to new. swapped=false
	// means a concurrent caller won; the caller must re-read and retry.
	CompareAndSwap(ctx context.Context, accountID, agreement string, old, new uint64) (swapped bool, err error)
}

// BoletoStore persists boleto rows. Rows are never deleted; terminal statuses
// are statuses, not deletions.
type BoletoStore interface {
	// CreateBoleto inserts a new row. Returns domain.ErrConflict on a
	// duplicate Nosso/Seu Número.
	CreateBoleto(ctx context.Context, b *domain.Boleto) error

	GetBoleto(ctx context.Context, id string) (*domain.Boleto, error)
	GetBoletoByNossoNumero(ctx context.Context, nossoNumero string) (*domain.Boleto, error)

	// UpdateBoleto applies the row only if the stored version still equals
	// expectedVersion, then bumps it. Returns domain.ErrConflict when stale,
	// so concurrent transitions on the same boleto are serialized.
	UpdateBoleto(ctx context.Context, b *domain.Boleto, expectedVersion int64) error

	// CountBoletosForOrder counts previously issued boletos for an order
	// (drives the Seu Número re-issuance suffix).
	CountBoletosForOrder(ctx context.Context, orderNumber string) (int, error)
}

// AuditStore appends immutable audit entries.
type AuditStore interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
}

// CustomerRepository exposes the CRM-owned billing profile, read-only.
type CustomerRepository interface {
	GetBillingProfile(ctx context.Context, customerID string) (*domain.BillingProfile, error)
}

// OrderRepository exposes commercial orders, read-only.
type OrderRepository interface {
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)
}

// AccountRepository exposes issuing accounts, read-only.
type AccountRepository interface {
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
}

// Notifier delivers events to the external notification collaborator
// (push/email/WhatsApp are someone else's problem).
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}
