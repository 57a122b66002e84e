package identifier_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/identifier"
	"github.com/agrovale/cobranca-bb-go/internal/infra/memory"
)

func TestNextSequence_SeedsOnFirstUse(t *testing.T) {
	store := memory.NewSequenceStore()
	gen := identifier.NewGeneratorWithSeed(store, func() uint64 { return 5_000_000_000 })

	seq, err := gen.NextSequence(context.Background(), "acc-1", "3128557")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if seq != 5_000_000_000 {
		t.Errorf("expected the seed value back on first use, got %d", seq)
	}

	next, err := gen.NextSequence(context.Background(), "acc-1", "3128557")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if next != 5_000_000_001 {
		t.Errorf("expected seed+1, got %d", next)
	}
}

func TestNextSequence_IndependentKeys(t *testing.T) {
	store := memory.NewSequenceStore()
	gen := identifier.NewGeneratorWithSeed(store, func() uint64 { return 1_000_000_000 })

	a, _ := gen.NextSequence(context.Background(), "acc-1", "3128557")
	b, _ := gen.NextSequence(context.Background(), "acc-1", "7654321")
	if a != b {
		t.Errorf("independent keys should each start at their own seed: %d vs %d", a, b)
	}

	a2, _ := gen.NextSequence(context.Background(), "acc-1", "3128557")
	if a2 != a+1 {
		t.Errorf("advancing one key must not advance the other: got %d", a2)
	}
}

func TestNextSequence_ConcurrentCallersGetDistinctValues(t *testing.T) {
	store := memory.NewSequenceStore()
	gen := identifier.NewGeneratorWithSeed(store, func() uint64 { return 2_000_000_000 })

	const workers = 50
	results := make(chan uint64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := gen.NextSequence(context.Background(), "acc-1", "3128557")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results <- seq
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uint64]bool)
	for seq := range results {
		if seen[seq] {
			t.Fatalf("duplicate sequence value %d", seq)
		}
		seen[seq] = true
	}
	if len(seen) != workers {
		t.Errorf("expected %d distinct values, got %d", workers, len(seen))
	}
}

func TestNextSequence_Exhausted(t *testing.T) {
	store := memory.NewSequenceStore()
	if err := store.Create(context.Background(), "acc-1", "3128557", 9_999_999_999); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	gen := identifier.NewGenerator(store)

	_, err := gen.NextSequence(context.Background(), "acc-1", "3128557")
	var exhausted *domain.ErrSequenceExhausted
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ErrSequenceExhausted, got %v", err)
	}
	if exhausted.Last != 9_999_999_999 {
		t.Errorf("expected last=9999999999, got %d", exhausted.Last)
	}
}

func TestNextSequence_CancelledContext(t *testing.T) {
	store := memory.NewSequenceStore()
	gen := identifier.NewGenerator(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gen.NextSequence(ctx, "acc-1", "3128557"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
