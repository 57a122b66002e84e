package memory

import (
	"context"
	"sync"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
)

// BoletoStore keeps boletos in maps keyed by id and Nosso Número. Updates
// honor the same version check the durable store enforces with a filtered
// UPDATE, so the concurrency semantics match.
type BoletoStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Boleto
	byNosso map[string]string // nosso número -> id
	bySeu   map[string]string // seu número -> id
}

// NewBoletoStore creates an empty store.
func NewBoletoStore() *BoletoStore {
	return &BoletoStore{
		byID:    make(map[string]*domain.Boleto),
		byNosso: make(map[string]string),
		bySeu:   make(map[string]string),
	}
}

func (s *BoletoStore) CreateBoleto(ctx context.Context, b *domain.Boleto) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byNosso[b.NossoNumero]; ok {
		return &domain.ErrConflict{Resource: "boleto", Key: b.NossoNumero}
	}
	if _, ok := s.bySeu[b.SeuNumero]; ok {
		return &domain.ErrConflict{Resource: "boleto", Key: b.SeuNumero}
	}
	cp := *b
	s.byID[b.ID] = &cp
	s.byNosso[b.NossoNumero] = b.ID
	s.bySeu[b.SeuNumero] = b.ID
	return nil
}

func (s *BoletoStore) GetBoleto(ctx context.Context, id string) (*domain.Boleto, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "boleto", ID: id}
	}
	cp := *b
	return &cp, nil
}

func (s *BoletoStore) GetBoletoByNossoNumero(ctx context.Context, nossoNumero string) (*domain.Boleto, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNosso[nossoNumero]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "boleto", ID: nossoNumero}
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *BoletoStore) UpdateBoleto(ctx context.Context, b *domain.Boleto, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[b.ID]
	if !ok {
		return &domain.ErrNotFound{Resource: "boleto", ID: b.ID}
	}
	if stored.Version != expectedVersion {
		return &domain.ErrConflict{Resource: "boleto", Key: b.ID}
	}
	b.Version = expectedVersion + 1
	cp := *b
	s.byID[b.ID] = &cp
	return nil
}

func (s *BoletoStore) CountBoletosForOrder(ctx context.Context, orderNumber string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, b := range s.byID {
		if b.OrderNumber == orderNumber {
			count++
		}
	}
	return count, nil
}
