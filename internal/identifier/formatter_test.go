package identifier_test

import (
	"errors"
	"testing"

	"github.com/agrovale/cobranca-bb-go/internal/domain"
	"github.com/agrovale/cobranca-bb-go/internal/identifier"
)

func TestBuildNossoNumero(t *testing.T) {
	got, err := identifier.BuildNossoNumero("3128557", 42)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := "00031285570000000042"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if len(got) != 20 {
		t.Errorf("expected 20 characters, got %d", len(got))
	}
}

func TestBuildNossoNumero_PreservesLeadingZeros(t *testing.T) {
	got, err := identifier.BuildNossoNumero("0012345", 7)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "00000123450000000007" {
		t.Errorf("unexpected result %q", got)
	}
}

func TestBuildNossoNumero_BadAgreement(t *testing.T) {
	cases := []struct {
		name      string
		agreement string
	}{
		{"too short", "312855"},
		{"too long", "31285570"},
		{"non digit", "31285a7"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := identifier.BuildNossoNumero(tc.agreement, 1)
			var formatErr *domain.ErrFormat
			if !errors.As(err, &formatErr) {
				t.Fatalf("expected ErrFormat, got %v", err)
			}
		})
	}
}

func TestBuildSeuNumero(t *testing.T) {
	got, err := identifier.BuildSeuNumero("PED-2026-0001", 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "PED20260001" {
		t.Errorf("expected PED20260001, got %q", got)
	}
}

func TestBuildSeuNumero_Reissue(t *testing.T) {
	got, err := identifier.BuildSeuNumero("PED-2026-0001", 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "PED20260001-1" {
		t.Errorf("expected PED20260001-1, got %q", got)
	}
}

func TestBuildSeuNumero_TooLong(t *testing.T) {
	// 16 characters after stripping: the protocol cap is hard, no truncation.
	_, err := identifier.BuildSeuNumero("PED-2026-00000001234", 0)
	var formatErr *domain.ErrFormat
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestBuildSeuNumero_SuffixPushesOverLimit(t *testing.T) {
	// Exactly 15 characters fits; a re-issuance suffix no longer does.
	base := "PED920260000001" // 15 chars
	if _, err := identifier.BuildSeuNumero(base, 0); err != nil {
		t.Fatalf("base should fit: %v", err)
	}
	if _, err := identifier.BuildSeuNumero(base, 1); err == nil {
		t.Fatal("expected suffixed value to exceed the limit")
	}
}

func TestBuildSeuNumero_Empty(t *testing.T) {
	if _, err := identifier.BuildSeuNumero("-./ ", 0); err == nil {
		t.Fatal("expected error for separator-only order number")
	}
}
