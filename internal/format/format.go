// Package format holds the pure field-formatting and validation rules of the
// bank protocol: fixed date and amount grammars, digit-only documents, and
// field-length ceilings. No I/O happens here.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
)

// BankDateLayout is the bank's period-separated date grammar (dd.mm.yyyy).
const BankDateLayout = "02.01.2006"

// FormatDate renders t in the bank's date grammar.
func FormatDate(t time.Time) string {
	return t.Format(BankDateLayout)
}

// ParseDate parses a bank-formatted date. Invalid calendar dates are
// rejected (time.Parse already refuses 31.02 etc. in strict layouts).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(BankDateLayout, s)
	if err != nil {
		return time.Time{}, domain.NewValidationError("data", fmt.Sprintf("data inválida: %q", s))
	}
	return t, nil
}

// FormatAmount renders a non-negative amount as a fixed 2-decimal string.
// Negative amounts are a protocol violation, not a formatting detail.
func FormatAmount(v float64) (string, error) {
	if v < 0 {
		return "", domain.NewValidationError("valor", "não pode ser negativo")
	}
	return fmt.Sprintf("%.2f", v), nil
}

// OnlyDigits strips every non-digit rune from s. Leading zeros are
// significant in CPF/CNPJ fields and are preserved.
func OnlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// StripSeparators removes the separator characters allowed in order numbers
// ("-", ".", "/", spaces) while keeping everything else intact.
func StripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '.', '/', ' ':
			return -1
		}
		return r
	}, s)
}
