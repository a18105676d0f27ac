package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const maxWholeUnits = (1<<63 - 1) / 100

// ParseDecimalToCents converts a user-entered amount to minor units.
//
// Both "12.34" and "12,34" are accepted. Digits past the second decimal are
// rounded half-up on the third. Signs, exponents, grouping separators and
// anything that rounds to zero are rejected with ErrInvalidAmount.
//
//	ParseDecimalToCents("12.345") -> 1235
//	ParseDecimalToCents("0.004")  -> ErrInvalidAmount
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, ErrInvalidAmount
	}

	whole, frac, _ := strings.Cut(s, ".")
	if strings.Contains(frac, ".") || (whole == "" && frac == "") {
		return 0, ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, ErrInvalidAmount
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > maxWholeUnits {
		return 0, ErrInvalidAmount
	}

	var cents int64
	for i := 0; i < 2 && i < len(frac); i++ {
		cents = cents*10 + int64(frac[i]-'0')
	}
	if len(frac) == 1 {
		cents *= 10
	}
	if len(frac) > 2 && frac[2] >= '5' {
		cents++
	}

	total := units*100 + cents
	if total <= 0 {
		return 0, ErrInvalidAmount
	}
	return total, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Units returns the amount in currency units as a float64, for charts only.
// Sums and averages are always computed on cents or decimals.
func (m Money) Units() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// String renders the plain decimal amount, e.g. "12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Add returns m+o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// AverageOf divides total by count in currency units. An empty group
// averages to zero.
func AverageOf(total Money, count int64) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return total.Decimal().Div(decimal.NewFromInt(count))
}
