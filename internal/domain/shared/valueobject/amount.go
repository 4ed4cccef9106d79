// Package valueobject holds the exact decimal helpers used for every
// monetary amount. Amounts are never converted to float64 for sums or
// comparisons.
package valueobject

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits stored for an amount
const AmountScale = 2

// Cent is the smallest representable currency unit and the tolerance used
// when two amounts are compared for equality.
var Cent = decimal.New(1, -AmountScale)

// ParseAmount parses a decimal string such as "250.00"
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// MustParseAmount is ParseAmount for constants and tests
func MustParseAmount(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return d
}

// RoundAmount rounds half away from zero to AmountScale
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// NearlyEqual reports whether |a-b| is strictly less than one cent
func NearlyEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Cent)
}

// Sum adds amounts exactly
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// IsPositive reports whether d > 0
func IsPositive(d decimal.Decimal) bool {
	return d.Sign() > 0
}

// NonNegative returns d, or zero when d is negative
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.Sign() < 0 {
		return decimal.Zero
	}
	return d
}

// Ratio returns num/den, or zero when den is zero
func Ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}

// Format renders d with exactly AmountScale digits
func Format(d decimal.Decimal) string {
	return d.StringFixed(AmountScale)
}
