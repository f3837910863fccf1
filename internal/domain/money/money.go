// Package money provides the monetary value object used for all order
// amounts. Amounts are non-negative and carry exactly two fractional digits.
package money

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNegativeAmount is returned when an operation would produce a negative
// monetary amount.
var ErrNegativeAmount = errors.New("amount cannot be negative")

// Money is an immutable monetary amount. Construction rounds to two decimal
// places (half away from zero, matching NUMERIC(12,2) storage) and rejects
// negative values. Every arithmetic operation routes through the same check,
// so a subtraction that would go below zero fails exactly like constructing
// from a negative value would.
type Money struct {
	amount decimal.Decimal
}

// From constructs a Money from a decimal amount.
func From(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return Money{amount: d.Round(2)}, nil
}

// FromFloat constructs a Money from a float64 amount.
func FromFloat(f float64) (Money, error) {
	return From(decimal.NewFromFloat(f))
}

// MustFrom is From for amounts known to be valid. It panics on a negative
// amount and is intended for constants and tests.
func MustFrom(d decimal.Decimal) Money {
	m, err := From(d)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns the additive identity, 0.00.
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Add returns the sum of m and other.
func (m Money) Add(other Money) (Money, error) {
	return From(m.amount.Add(other.amount))
}

// Sub returns the difference of m and other. It fails with ErrNegativeAmount
// when other exceeds m.
func (m Money) Sub(other Money) (Money, error) {
	return From(m.amount.Sub(other.amount))
}

// Mul returns m scaled by factor.
func (m Money) Mul(factor decimal.Decimal) (Money, error) {
	return From(m.amount.Mul(factor))
}

// MulInt returns m scaled by an integer quantity.
func (m Money) MulInt(n int) (Money, error) {
	return m.Mul(decimal.NewFromInt(int64(n)))
}

// GreaterThan reports whether m exceeds other.
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// LessThan reports whether m is below other.
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// Equal reports whether m and other represent the same rounded amount.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// IsZero reports whether m is 0.00.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// Decimal returns the underlying rounded decimal amount.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// String renders the amount with a currency prefix and two fixed decimals.
func (m Money) String() string {
	return "¥" + m.amount.StringFixed(2)
}

// MarshalJSON encodes the amount as a plain JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.amount.StringFixed(2)), nil
}

// UnmarshalJSON decodes a JSON number, applying the same rounding and
// negativity check as From.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	parsed, err := From(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
