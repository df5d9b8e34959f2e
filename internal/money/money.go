// Package money represents currency amounts as integer minor units (satang,
// cents) and converts them to and from decimal values at the API boundary.
package money

import (
	"bytes"
	"fmt"

	"eventix/internal/apperr"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places carried by an Amount.
const Scale = 2

// MaxAmount bounds every Amount in either direction. It leaves enough room
// below the int64 limit that checked arithmetic never wraps.
const MaxAmount Amount = 1_000_000_000_000_000

var (
	ErrTooPrecise = fmt.Errorf("%w: more than 2 decimal places", apperr.ErrInvalidAmount)
	ErrTooLarge   = fmt.Errorf("%w: out of range", apperr.ErrInvalidAmount)
)

// Amount is a currency value in minor units.
type Amount int64

const Zero Amount = 0

// FromDecimal converts d to minor units. Values with sub-minor precision are
// rejected instead of rounded, as are values beyond MaxAmount.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	shifted := d.Shift(Scale)
	if shifted.Abs().GreaterThan(decimal.NewFromInt(int64(MaxAmount))) {
		return 0, ErrTooLarge
	}
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, ErrTooPrecise
	}
	return Amount(shifted.IntPart()), nil
}

// Parse reads a decimal string such as "300" or "12.50".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

func (a Amount) IsPositive() bool { return a > 0 }

// Mul multiplies by a ticket quantity. A product that wraps or leaves
// [-MaxAmount, MaxAmount] is ErrTooLarge.
func (a Amount) Mul(n int) (Amount, error) {
	if a == 0 || n == 0 {
		return 0, nil
	}
	p := a * Amount(n)
	if p/Amount(n) != a || p > MaxAmount || p < -MaxAmount {
		return 0, ErrTooLarge
	}
	return p, nil
}

// MarshalJSON renders the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*a = 0
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Split divides a across n recipients. Every share is a/n rounded down and the
// remaining units go one each to the first recipients, so the shares always
// sum to a and the allocation is deterministic for a given order.
func (a Amount) Split(n int) []Amount {
	if n <= 0 {
		return nil
	}
	base := a / Amount(n)
	rem := int(a % Amount(n))
	shares := make([]Amount, n)
	for i := range shares {
		shares[i] = base
		if i < rem {
			shares[i]++
		}
	}
	return shares
}
