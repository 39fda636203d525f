// Package core provides the expense domain model and its validation rules.
//
// This file contains amount handling: decimal input is rounded to cents and
// checked against the allowed range before anything is stored.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountCents is the largest storable amount (1,000,000.00).
const MaxAmountCents int64 = 100_000_000

var hundred = decimal.NewFromInt(100)

// Limits on the shape of a decimal before it is rounded. Rounding cost grows
// with the distance between the exponent and -2, so anything outside these
// bounds is rejected up front.
const (
	minAmountExponent  = -20
	maxIntegerDigits   = 10
	maxCoefficientBits = 128
)

// boundedDecimal returns d unchanged when it is cheap to round, or the error
// describing why it cannot be an amount.
func boundedDecimal(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsZero() {
		return decimal.Zero, nil
	}
	if d.Coefficient().BitLen() > maxCoefficientBits || d.Exponent() < minAmountExponent {
		return decimal.Decimal{}, ErrAmountPrecision
	}
	if int64(d.NumDigits())+int64(d.Exponent()) > maxIntegerDigits {
		if d.IsNegative() {
			return decimal.Decimal{}, ErrInvalidAmount
		}
		return decimal.Decimal{}, ErrAmountTooLarge
	}
	return d, nil
}

// MoneyFromDecimal rounds d to two decimal places (half away from zero) and
// validates that the result lies in (0, 1,000,000].
//
// Examples:
//
//	12.345  -> 1235 cents
//	0.004   -> ErrInvalidAmount (rounds to zero)
//	1000000 -> 100000000 cents
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	d, err := boundedDecimal(d)
	if err != nil {
		return Money{}, err
	}
	rounded := d.Round(2)
	if !rounded.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	if rounded.GreaterThan(decimal.New(MaxAmountCents, -2)) {
		return Money{}, ErrAmountTooLarge
	}
	return Money{Cents: rounded.Mul(hundred).IntPart()}, nil
}

// ParseAmount parses a decimal string, accepting either dot or comma as the
// decimal separator, and applies the same rounding and range as MoneyFromDecimal.
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// BoundCents converts a non-negative filter bound to cents. Bounds above the
// largest storable amount clamp to one cent past it, which keeps both
// comparisons exact: no stored amount reaches a clamped minimum and every
// stored amount is under a clamped maximum.
func BoundCents(d decimal.Decimal) (int64, error) {
	d, err := boundedDecimal(d)
	if errors.Is(err, ErrAmountTooLarge) {
		return MaxAmountCents + 1, nil
	}
	if err != nil {
		return 0, err
	}
	cents := d.Round(2).Mul(hundred).IntPart()
	if cents > MaxAmountCents {
		cents = MaxAmountCents + 1
	}
	return cents, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	if m.Cents > MaxAmountCents {
		return ErrAmountTooLarge
	}
	return nil
}

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float64 returns the value for JSON output.
// Use cents or Decimal for calculations.
func (m Money) Float64() float64 {
	return m.Decimal().InexactFloat64()
}

// String formats the amount with exactly two decimals, e.g. "1234.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
