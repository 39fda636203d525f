package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyFromDecimal(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		err error
	}{
		{"1", 100, nil},
		{"1.23", 123, nil},
		{"1.005", 101, nil}, // half away from zero
		{"12.344", 1234, nil},
		{"0.01", 1, nil},
		{"1000000", MaxAmountCents, nil},
		{"1000000.004", MaxAmountCents, nil},
		{"1000000.01", 0, ErrAmountTooLarge},
		{"0", 0, ErrInvalidAmount},
		{"0.004", 0, ErrInvalidAmount},
		{"-5", 0, ErrInvalidAmount},
		{"1e99999999", 0, ErrAmountTooLarge},
		{"-1e99999999", 0, ErrInvalidAmount},
		{"0e99999999", 0, ErrInvalidAmount},
		{"1e-99999999", 0, ErrAmountPrecision},
		{"92233720368547758.08", 0, ErrAmountTooLarge},
		{"12.5000000000000000000", 1250, nil},
	}
	for _, tc := range cases {
		got, err := MoneyFromDecimal(decimal.RequireFromString(tc.in))
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%s expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil || got.Cents != tc.out {
			t.Fatalf("%s expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{" 2.50 ", 250, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyFormatting(t *testing.T) {
	m := Money{Cents: 123450}
	if m.String() != "1234.50" {
		t.Fatalf("got %q", m.String())
	}
	if m.Float64() != 1234.5 {
		t.Fatalf("got %v", m.Float64())
	}
	if err := (Money{Cents: MaxAmountCents + 1}).Validate(); !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}
}

func TestBoundCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		err error
	}{
		{"0", 0, nil},
		{"12.5", 1250, nil},
		{"1000000", MaxAmountCents, nil},
		{"1000000.01", MaxAmountCents + 1, nil},
		{"92233720368547758.08", MaxAmountCents + 1, nil},
		{"1e99999999", MaxAmountCents + 1, nil},
		{"1e-99999999", 0, ErrAmountPrecision},
	}
	for _, tc := range cases {
		got, err := BoundCents(decimal.RequireFromString(tc.in))
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%s expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil || got != tc.out {
			t.Fatalf("%s expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
		}
	}
}
