package domain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// maxDecimalScale bounds the digits DecimalString renders after the point.
const maxDecimalScale = 8

// PriceScale is the number of decimal places a parsed price keeps. Every
// backend stores at least this many.
const PriceScale = 4

// Parsed prices must have an exponent within ±maxPriceExponent and an integer
// part of at most maxPriceIntegerDigits digits.
const (
	maxPriceExponent      = 12
	maxPriceIntegerDigits = 10
)

var maxPrice = decimal.New(1, maxPriceIntegerDigits)

// Money represents a monetary value with precise decimal arithmetic using big.Rat.
// It stores the value as a rational number (numerator/denominator) to avoid floating-point precision issues.
type Money struct {
	rat *big.Rat
}

// NewMoney creates a new Money instance from numerator and denominator.
// Example: NewMoney(1250, 100) represents 12.50
func NewMoney(numerator, denominator int64) (*Money, error) {
	if denominator == 0 {
		return nil, fmt.Errorf("denominator cannot be zero")
	}

	rat := big.NewRat(numerator, denominator)
	return &Money{rat: rat}, nil
}

// NewMoneyFromRat creates a new Money instance from a big.Rat.
func NewMoneyFromRat(rat *big.Rat) *Money {
	if rat == nil {
		return Zero()
	}
	return &Money{rat: new(big.Rat).Set(rat)}
}

// NewMoneyFromDecimal converts a shopspring decimal into Money, rounded half
// away from zero to PriceScale places. The exponent of d must be small; use
// ParseMoney for untrusted input.
func NewMoneyFromDecimal(d decimal.Decimal) *Money {
	return &Money{rat: d.Round(PriceScale).Rat()}
}

// ParseMoney parses a decimal string such as "12.50". Values whose exponent or
// magnitude is out of range fail with ErrPriceOutOfRange before they are
// expanded.
func ParseMoney(s string) (*Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("failed to parse money %q: %w", s, err)
	}
	if exp := d.Exponent(); exp < -maxPriceExponent || exp > maxPriceExponent {
		return nil, fmt.Errorf("%w: %q", ErrPriceOutOfRange, s)
	}
	d = d.Round(PriceScale)
	if d.Abs().Cmp(maxPrice) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrPriceOutOfRange, s)
	}
	return &Money{rat: d.Rat()}, nil
}

// Zero returns a zero Money value.
func Zero() *Money {
	return &Money{rat: new(big.Rat)}
}

// Rat returns a copy of the underlying rational.
func (m *Money) Rat() *big.Rat {
	return new(big.Rat).Set(m.rat)
}

// IsZero returns true if the money value is zero.
func (m *Money) IsZero() bool {
	return m.rat.Sign() == 0
}

// IsNegative returns true if the money value is negative.
func (m *Money) IsNegative() bool {
	return m.rat.Sign() < 0
}

// LessThan returns true if this Money value is less than another.
func (m *Money) LessThan(other *Money) bool {
	return m.rat.Cmp(other.rat) < 0
}

// Equals returns true if this Money value equals another.
func (m *Money) Equals(other *Money) bool {
	return m.rat.Cmp(other.rat) == 0
}

// Float64 returns an approximate float64 representation (for display only, not calculations).
func (m *Money) Float64() float64 {
	f, _ := m.rat.Float64()
	return f
}

// String returns the value rounded to two decimal places.
func (m *Money) String() string {
	return m.rat.FloatString(2)
}

// DecimalString renders the value exactly, with at least two decimal places.
// Values that need more than maxDecimalScale digits are rounded.
func (m *Money) DecimalString() string {
	ten := big.NewInt(10)
	scaled := new(big.Rat).Set(m.rat)
	factor := big.NewRat(100, 1)
	scaled.Mul(scaled, factor)
	scale := 2
	for !scaled.IsInt() && scale < maxDecimalScale {
		scaled.Mul(scaled, new(big.Rat).SetInt(ten))
		scale++
	}
	return m.rat.FloatString(scale)
}

// Copy creates a deep copy of this Money instance.
func (m *Money) Copy() *Money {
	return &Money{rat: new(big.Rat).Set(m.rat)}
}

// MarshalJSON encodes the value as a decimal string to keep it exact.
func (m *Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.DecimalString())
}

// UnmarshalJSON accepts a decimal string or a bare JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	m.rat = parsed.rat
	return nil
}
