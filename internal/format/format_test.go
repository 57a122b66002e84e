package format_test

import (
	"testing"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/format"
)

func TestFormatDate(t *testing.T) {
	d := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	if got := format.FormatDate(d); got != "05.03.2026" {
		t.Errorf("expected 05.03.2026, got %q", got)
	}
}

func TestParseDate_RoundTrip(t *testing.T) {
	parsed, err := format.ParseDate("29.08.2026")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := format.FormatDate(parsed); got != "29.08.2026" {
		t.Errorf("round trip broke: %q", got)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	cases := []string{"31.02.2026", "2026-08-29", "29/08/2026", "", "1.1.2026"}
	for _, c := range cases {
		if _, err := format.ParseDate(c); err == nil {
			t.Errorf("expected error for %q", c)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	got, err := format.FormatAmount(1234.5)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "1234.50" {
		t.Errorf("expected 1234.50, got %q", got)
	}

	if got, _ := format.FormatAmount(0); got != "0.00" {
		t.Errorf("expected 0.00, got %q", got)
	}
}

func TestFormatAmount_Negative(t *testing.T) {
	if _, err := format.FormatAmount(-0.01); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestOnlyDigits_PreservesLeadingZeros(t *testing.T) {
	if got := format.OnlyDigits("012.345.678-90"); got != "01234567890" {
		t.Errorf("expected 01234567890, got %q", got)
	}
}

func TestStripSeparators(t *testing.T) {
	if got := format.StripSeparators("PED-2026/000.1 A"); got != "PED20260001A" {
		t.Errorf("expected PED20260001A, got %q", got)
	}
}
