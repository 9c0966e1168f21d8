package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Money is an amount in US cents.
// Integer cents keep fee and payout sums exact.
type Money int64

// Cents returns the amount in cents.
func (m Money) Cents() int64 {
	return int64(m)
}

// Dollars returns the amount as a float for display purposes only.
func (m Money) Dollars() float64 {
	return float64(m) / 100
}

// String renders the amount as "$9.90".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}

// Percent returns pct percent of m, rounded half away from zero to the cent.
func (m Money) Percent(pct int64) Money {
	v := int64(m) * pct
	if v >= 0 {
		return Money((v + 50) / 100)
	}
	return Money((v - 50) / 100)
}

// MarshalJSON encodes the amount as a decimal number with two places.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Dollars(), 'f', 2, 64)), nil
}

// UnmarshalJSON decodes a decimal dollar amount.
func (m *Money) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid money amount %q: %w", string(data), err)
	}
	*m = MoneyFromDollars(f)
	return nil
}

// MoneyFromDollars converts a dollar float to cents.
func MoneyFromDollars(d float64) Money {
	return Money(math.Round(d * 100))
}
