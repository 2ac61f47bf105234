// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer satang; parsing and formatting go through
// shopspring/decimal so no float arithmetic touches a stored value.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var maxCents = decimal.NewFromInt(math.MaxInt64)

// ParseAmount converts a decimal string in baht to Money.
//
// Thousands separators are accepted ("1,250.50"). The value is rounded
// half-up to two places. Zero is a valid amount; negative values fail
// with ErrNegativePrice.
//
// Examples:
//
//	ParseAmount("50")       -> 5000
//	ParseAmount("12.345")   -> 1235
//	ParseAmount("1,250.5")  -> 125050
func ParseAmount(s string) (Money, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return FromDecimal(d)
}

// FromDecimal converts a baht amount to Money, rounding half-up to satang.
func FromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrNegativePrice
	}
	cents := d.Round(2).Shift(2)
	if cents.GreaterThan(maxCents) {
		return Money{}, ErrAmountTooLarge
	}
	return Money{Cents: cents.IntPart()}, nil
}

// ParseQuantity parses a non-negative whole quantity. Spreadsheet values like
// "3.0" are accepted; fractional quantities are not.
func ParseQuantity(s string) (int64, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, ErrInvalidQuantity
	}
	return QuantityFromDecimal(d)
}

// QuantityFromDecimal converts a decimal quantity into a whole count.
func QuantityFromDecimal(d decimal.Decimal) (int64, error) {
	if !d.Equal(d.Truncate(0)) {
		return 0, ErrInvalidQuantity
	}
	if d.IsNegative() {
		return 0, ErrNegativeQuantity
	}
	if d.GreaterThan(maxCents) {
		return 0, ErrAmountTooLarge
	}
	return d.IntPart(), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "฿")
	return decimal.NewFromString(strings.TrimSpace(s))
}

// Decimal returns the amount in baht.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Baht returns the baht value as a float64 for display and spreadsheet cells.
// Use Cents for calculations.
func (m Money) Baht() float64 {
	return m.Decimal().InexactFloat64()
}

// Plain formats the amount with two decimals and no grouping, e.g. "1250.50".
func (m Money) Plain() string {
	return m.Decimal().StringFixed(2)
}

// String formats the amount with thousands grouping, e.g. "1,250.50".
func (m Money) String() string {
	s := m.Plain()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
