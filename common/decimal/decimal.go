// Package decimal provides the fixed-scale Money type used for every
// persisted monetary or quantity field in the council pipeline.
package decimal

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale enumerates the fixed scales used across the data model.
type Scale int32

const (
	// ScaleAsset is the scale for asset quantities and prices.
	ScaleAsset Scale = 8
	// ScaleUSD is the scale for USD-denominated balances.
	ScaleUSD Scale = 2
	// ScalePercent is the scale for percentages and confidence values.
	ScalePercent Scale = 4

	// maxDigits bounds the total digit count a Money value may carry;
	// rescale checks it on every constructed value and every arithmetic
	// result. shopspring/decimal has no
	// fixed significand width, so this stands in for the 128-bit
	// significand overflow check described for stores that do have one.
	maxDigits = 39
)

// ErrOverflow is raised when a parsed value or an arithmetic result
// exceeds maxDigits. It is a Fatal error: it stops the affected council, never
// the whole process.
var ErrOverflow = errors.New("decimal: value exceeds maximum persisted precision")

// Money is an exact, fixed-scale decimal value.
type Money struct {
	val   decimal.Decimal
	scale Scale
}

// Zero returns the zero value at the given scale.
func Zero(scale Scale) Money {
	return Money{val: decimal.Zero, scale: scale}
}

// FromString parses an exact decimal string at the given scale. This is
// the only constructor permitted at a persistence boundary — no
// FromFloat64 equivalent is exposed here on purpose.
func FromString(s string, scale Scale) (Money, error) {
	if s == "" {
		return Zero(scale), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("decimal: parse %q: %w", s, err)
	}
	m := Money{val: d, scale: scale}
	return m.rescale(scale)
}

// FromInt64Scaled builds a Money value from an integer number of the
// smallest unit at the given scale, e.g. FromInt64Scaled(150, ScaleUSD)
// == 1.50.
func FromInt64Scaled(units int64, scale Scale) Money {
	return Money{val: decimal.New(units, int32(-scale)), scale: scale}
}

// MustFromString is FromString but panics on error; for constants in
// tests and defaults only, never for persisted or user-supplied input.
func MustFromString(s string, scale Scale) Money {
	m, err := FromString(s, scale)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) rescale(scale Scale) (Money, error) {
	r := m.val.Round(int32(scale))
	if len(r.Coefficient().String()) > maxDigits {
		return Money{}, ErrOverflow
	}
	return Money{val: r, scale: scale}, nil
}

// Scale returns the value's fixed scale.
func (m Money) Scale() Scale { return m.scale }

// String renders the value at its fixed scale.
func (m Money) String() string { return m.val.StringFixed(int32(m.scale)) }

// Value implements driver.Valuer for database/sql.
func (m Money) Value() (driver.Value, error) { return m.String(), nil }

// Scan implements sql.Scanner for database/sql.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Zero(m.scale)
		return nil
	case string:
		parsed, err := FromString(v, m.scale)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case []byte:
		parsed, err := FromString(string(v), m.scale)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case float64:
		return fmt.Errorf("decimal: refusing to scan float64 at a persistence boundary")
	default:
		return fmt.Errorf("decimal: unsupported scan source %T", src)
	}
}

// Add returns m + other, rescaled to m's scale.
func (m Money) Add(other Money) (Money, error) {
	return Money{val: m.val.Add(other.val)}.rescale(m.scale)
}

// Sub returns m - other, rescaled to m's scale.
func (m Money) Sub(other Money) (Money, error) {
	return Money{val: m.val.Sub(other.val)}.rescale(m.scale)
}

// Mul returns m * other, rescaled to m's scale.
func (m Money) Mul(other Money) (Money, error) {
	return Money{val: m.val.Mul(other.val)}.rescale(m.scale)
}

// Div returns m / other using banker's rounding at m's scale.
// Division by zero returns an error rather than panicking.
func (m Money) Div(other Money) (Money, error) {
	if other.val.IsZero() {
		return Money{}, errors.New("decimal: division by zero")
	}
	q, r := m.val.QuoRem(other.val, int32(m.scale))
	unit := other.val.Abs().Shift(-int32(m.scale))
	c := r.Abs().Mul(decimal.New(2, 0)).Cmp(unit)
	odd := !q.Shift(int32(m.scale)).Mod(decimal.New(2, 0)).IsZero()
	if c > 0 || (c == 0 && odd) {
		q = q.Add(decimal.New(int64(m.val.Sign()*other.val.Sign()), -int32(m.scale)))
	}
	return Money{val: q}.rescale(m.scale)
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	return Money{val: m.val.Abs(), scale: m.scale}
}

// Neg returns the negated value.
func (m Money) Neg() Money {
	return Money{val: m.val.Neg(), scale: m.scale}
}

// Cmp compares m to other: -1, 0, or 1.
func (m Money) Cmp(other Money) int { return m.val.Cmp(other.val) }

// GreaterThanOrEqual reports whether m >= other.
func (m Money) GreaterThanOrEqual(other Money) bool { return m.val.Cmp(other.val) >= 0 }

// GreaterThan reports whether m > other.
func (m Money) GreaterThan(other Money) bool { return m.val.Cmp(other.val) > 0 }

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool { return m.val.Cmp(other.val) < 0 }

// IsZero reports whether m is exactly zero.
func (m Money) IsZero() bool { return m.val.IsZero() }

// IsNegative reports whether m is strictly negative.
func (m Money) IsNegative() bool { return m.val.Sign() < 0 }

// Sign returns -1, 0, or 1.
func (m Money) Sign() int { return m.val.Sign() }

// Max returns the larger of a and b.
func Max(a, b Money) Money {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Sum adds a slice of Money values at the given scale; an empty slice
// yields Zero(scale).
func Sum(scale Scale, values ...Money) (Money, error) {
	total := Zero(scale)
	var err error
	for _, v := range values {
		total, err = total.Add(v)
		if err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

// Mean returns the arithmetic mean of values at the given scale, or
// Zero(scale) for an empty slice (never divides by zero).
func Mean(scale Scale, values ...Money) (Money, error) {
	if len(values) == 0 {
		return Zero(scale), nil
	}
	total, err := Sum(scale, values...)
	if err != nil {
		return Money{}, err
	}
	count := Money{val: decimal.NewFromInt(int64(len(values))), scale: scale}
	return total.Div(count)
}
