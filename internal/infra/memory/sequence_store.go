// Package memory holds in-process store implementations. They back the dev
// profile and the test suites; production wiring uses postgrest instead.
package memory

import (
	"context"
	"sync"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
)

// SequenceStore keeps counters in a map guarded by a mutex. The mutex gives
// the same atomicity the filtered UPDATE gives the durable store.
type SequenceStore struct {
	mu       sync.Mutex
	counters map[string]uint64
}

// NewSequenceStore creates an empty store.
func NewSequenceStore() *SequenceStore {
	return &SequenceStore{counters: make(map[string]uint64)}
}

func seqKey(accountID, agreement string) string {
	return accountID + "/" + agreement
}

func (s *SequenceStore) Get(ctx context.Context, accountID, agreement string) (uint64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.counters[seqKey(accountID, agreement)]
	return last, ok, nil
}

func (s *SequenceStore) Create(ctx context.Context, accountID, agreement string, initial uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := seqKey(accountID, agreement)
	if _, ok := s.counters[key]; ok {
		return &domain.ErrConflict{Resource: "sequence", Key: key}
	}
	s.counters[key] = initial
	return nil
}

func (s *SequenceStore) CompareAndSwap(ctx context.Context, accountID, agreement string, old, new uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := seqKey(accountID, agreement)
	current, ok := s.counters[key]
	if !ok || current != old {
		return false, nil
	}
	s.counters[key] = new
	return true, nil
}
