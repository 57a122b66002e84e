// Package identifier produces the bank-compliant identifiers of the Cobrança
// protocol: the durable per-(account, agreement) sequence behind Nosso Número
// and the fixed-width Nosso/Seu Número strings themselves.
package identifier

import (
	"context"
	"errors"
	"math/rand"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/port"
)

// The sequence rides in a 10-digit fixed-width field.
const maxSequence = 9_999_999_999

// First use of a key seeds the counter inside a reserved high range instead
// of starting at 1, so independently-seeded environments (dev, staging,
// re-created databases) don't collide on the same low numbers.
const (
	seedBase = 1_000_000_000
	seedSpan = 4_000_000_000
)

// Generator hands out collision-free sequence values scoped to
// (account, agreement). Values are strictly increasing and never reused,
// even across process restarts: the store is durable and the advance is a
// compare-and-swap.
type Generator struct {
	store port.SequenceStore
	seed  func() uint64
}

// NewGenerator creates a Generator over the given durable store.
func NewGenerator(store port.SequenceStore) *Generator {
	return &Generator{
		store: store,
		seed: func() uint64 {
			return seedBase + uint64(rand.Int63n(seedSpan))
		},
	}
}

// NewGeneratorWithSeed overrides the seed function (deterministic tests).
func NewGeneratorWithSeed(store port.SequenceStore, seed func() uint64) *Generator {
	return &Generator{store: store, seed: seed}
}

// NextSequence returns the next value for the key. Concurrent callers race on
// the CAS; the loser re-reads and retries, so no two callers ever receive the
// same value. Returns domain.ErrSequenceExhausted once the 10-digit capacity
// is reached — fatal for the key, not retryable.
func (g *Generator) NextSequence(ctx context.Context, accountID, agreement string) (uint64, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		last, found, err := g.store.Get(ctx, accountID, agreement)
		if err != nil {
			return 0, err
		}

		if !found {
			initial := g.seed()
			err := g.store.Create(ctx, accountID, agreement, initial)
			var conflict *domain.ErrConflict
			if errors.As(err, &conflict) {
				// Another caller initialized the key first; fall through to
				// the CAS path on the next iteration.
				continue
			}
			if err != nil {
				return 0, err
			}
			return initial, nil
		}

		if last >= maxSequence {
			return 0, &domain.ErrSequenceExhausted{AccountID: accountID, Agreement: agreement, Last: last}
		}

		next := last + 1
		swapped, err := g.store.CompareAndSwap(ctx, accountID, agreement, last, next)
		if err != nil {
			return 0, err
		}
		if swapped {
			return next, nil
		}
		// Lost the race; retry with a fresh read.
	}
}
