package identifier

import (
	"context"
	"fmt"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/format"
)

// Nosso Número is fixed at 20 characters: "000" + convênio(7) + sequência(10).
const (
	nossoNumeroLen = 20
	convenioLen    = 7
	sequenciaLen   = 10
	maxSeuNumero   = 15
)

// BuildNossoNumero assembles the 20-character Nosso Número from the 7-digit
// agreement and the sequence value. The result is exactly 20 characters or
// the call fails — there is no "close enough" in a fixed-width protocol.
func BuildNossoNumero(agreement string, seq uint64) (string, error) {
	if len(agreement) != convenioLen {
		return "", &domain.ErrFormat{Field: "convenio", Reason: fmt.Sprintf("deve ter %d dígitos, recebido %q", convenioLen, agreement)}
	}
	for _, r := range agreement {
		if r < '0' || r > '9' {
			return "", &domain.ErrFormat{Field: "convenio", Reason: fmt.Sprintf("deve conter apenas dígitos, recebido %q", agreement)}
		}
	}

	s := fmt.Sprintf("000%s%0*d", agreement, sequenciaLen, seq)
	if len(s) != nossoNumeroLen {
		return "", &domain.ErrFormat{Field: "nossoNumero", Reason: fmt.Sprintf("resultado com %d caracteres, esperado %d", len(s), nossoNumeroLen)}
	}
	return s, nil
}

// BuildSeuNumero derives the Seu Número from the order number: separators
// stripped, and a "-N" suffix when the order already had boletos issued
// (re-issuance). Exceeding 15 characters is a hard protocol limit — the
// value fails instead of being truncated silently.
func BuildSeuNumero(orderNumber string, existingBoletoCount int) (string, error) {
	stripped := format.StripSeparators(orderNumber)
	if stripped == "" {
		return "", &domain.ErrFormat{Field: "seuNumero", Reason: "número do pedido vazio"}
	}

	s := stripped
	if existingBoletoCount > 0 {
		s = fmt.Sprintf("%s-%d", stripped, existingBoletoCount)
	}
	if len(s) > maxSeuNumero {
		return "", &domain.ErrFormat{Field: "seuNumero", Reason: fmt.Sprintf("%q excede %d caracteres", s, maxSeuNumero)}
	}
	return s, nil
}

// Allocator binds the generator and formatter behind the environment switch:
// in production the bank auto-assigns Nosso Número for our agreement type, so
// the field is omitted; everywhere else it is generated locally so
// integration runs are deterministic and collision-free.
type Allocator struct {
	gen           *Generator
	generateLocal bool
}

// NewAllocator creates an Allocator. generateLocal=false defers Nosso Número
// generation to the bank.
func NewAllocator(gen *Generator, generateLocal bool) *Allocator {
	return &Allocator{gen: gen, generateLocal: generateLocal}
}

// NossoNumero returns the locally generated identifier, or nil when
// generation is deferred to the bank.
func (a *Allocator) NossoNumero(ctx context.Context, accountID, agreement string) (*string, error) {
	if !a.generateLocal {
		return nil, nil
	}
	seq, err := a.gen.NextSequence(ctx, accountID, agreement)
	if err != nil {
		return nil, err
	}
	s, err := BuildNossoNumero(agreement, seq)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
