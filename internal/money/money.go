// Package money provides the exact decimal amount type used for all order
// and payment arithmetic. Arithmetic is performed on decimals, never on
// binary floats; formatting for display is a separate, one-way operation.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ErrInvalidAmount indicates a value that cannot be used as a monetary
// amount (non-numeric input, or a negative amount where one is disallowed).
var ErrInvalidAmount = errors.New("invalid amount")

// Money is an immutable amount with two fractional digits.
type Money struct {
	v decimal.Decimal
}

// Zero returns the zero amount.
func Zero() Money {
	return Money{v: decimal.Zero}
}

// FromString parses a decimal string such as "1000000" or "2500000.50".
// The value is rounded half-up to two fractional digits.
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}
	return Money{v: d.Round(2)}, nil
}

// FromMinorUnits constructs an amount from a count of minor units
// (hundredths), e.g. FromMinorUnits(150000) == 1500.00.
func FromMinorUnits(n int64) Money {
	return Money{v: decimal.New(n, -2)}
}

// MustFromString is FromString for trusted literals; it panics on error.
func MustFromString(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{v: m.v.Add(o.v)}
}

// Sub returns m - o. The result may be negative.
func (m Money) Sub(o Money) Money {
	return Money{v: m.v.Sub(o.v)}
}

// MulInt returns m multiplied by a whole quantity.
func (m Money) MulInt(n int) Money {
	return Money{v: m.v.Mul(decimal.NewFromInt(int64(n)))}
}

// Cmp compares two amounts: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int {
	return m.v.Cmp(o.v)
}

// Equal reports whether two amounts are numerically identical.
func (m Money) Equal(o Money) bool {
	return m.v.Equal(o.v)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.v.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.v.IsNegative()
}

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool {
	return m.v.IsPositive()
}

// String returns the canonical decimal form with two fractional digits,
// e.g. "1000000.00". This form round-trips through FromString.
func (m Money) String() string {
	return m.v.StringFixed(2)
}

// Display renders the amount for humans in the given locale with a currency
// symbol prefix. Rupiah convention: grouped thousands, no fractional digits.
// Display output is never parsed back into arithmetic.
func (m Money) Display(loc language.Tag, symbol string) string {
	p := message.NewPrinter(loc)
	whole := m.v.Round(0).IntPart()
	return p.Sprintf("%s%v", symbol, number.Decimal(whole))
}

// DisplayIDR renders the amount as Indonesian Rupiah, e.g. "Rp1.000.000".
func (m Money) DisplayIDR() string {
	return m.Display(language.Indonesian, "Rp")
}

// MarshalJSON encodes the amount as a decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON decodes a decimal string or bare JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := FromString(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer; amounts are stored as TEXT.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner for TEXT and BLOB columns.
func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := FromString(v)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case []byte:
		parsed, err := FromString(string(v))
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case nil:
		*m = Zero()
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T into Money", ErrInvalidAmount, src)
	}
}
