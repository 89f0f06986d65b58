package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point currency amount: integer minor units (cents) plus a
// currency code. A single debt entry always carries a non-negative amount;
// signed values appear only inside balance aggregation.
type Money struct {
	// Amount is the value in minor units (e.g. cents).
	Amount int64 `json:"amount"`

	// Currency is the ISO 4217 code (e.g. "USD").
	Currency string `json:"currency"`
}

// NewMoney constructs a Money from minor units.
func NewMoney(minorUnits int64, currency string) Money {
	return Money{Amount: minorUnits, Currency: currency}
}

// ParseMoney converts a decimal string like "12.34" to minor units.
// At most two fractional digits are accepted and the result must be positive.
func ParseMoney(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents := d.Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() {
		return Money{}, fmt.Errorf("%w: %q has more than two decimal places", ErrInvalidAmount, s)
	}
	if !cents.IsPositive() {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{Amount: cents.IntPart(), Currency: currency}, nil
}

// Add returns m + o. Both values must share a currency.
func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount + o.Amount, Currency: m.Currency}
}

// Sub returns m - o. Both values must share a currency.
func (m Money) Sub(o Money) Money {
	return Money{Amount: m.Amount - o.Amount, Currency: m.Currency}
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// SameCurrency reports whether both values share a currency code.
func (m Money) SameCurrency(o Money) bool { return m.Currency == o.Currency }

// String formats the amount as a decimal string with the currency code,
// e.g. "12.34 USD". For display only; calculations stay in minor units.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", decimal.New(m.Amount, -2).StringFixed(2), m.Currency)
}
