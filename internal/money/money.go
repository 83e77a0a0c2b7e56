// Package money holds the local-currency arithmetic shared by valuation and
// price refresh: two-decimal rounding under a configurable mode and INR display.
package money

import (
	"fmt"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the single local currency values are reported in.
const Currency = gomoney.INR

// Places is the number of decimal places currency values are rounded to.
const Places = 2

// RoundingMode selects how half-way values are rounded to Places.
type RoundingMode string

const (
	// HalfAwayFromZero rounds 0.125 to 0.13 and -0.125 to -0.13.
	HalfAwayFromZero RoundingMode = "half_away_from_zero"
	// HalfEven (banker's rounding) rounds 0.125 to 0.12 and 0.135 to 0.14.
	HalfEven RoundingMode = "half_even"
)

// ParseRoundingMode validates a configured mode. Empty means HalfAwayFromZero.
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch RoundingMode(s) {
	case "", HalfAwayFromZero:
		return HalfAwayFromZero, nil
	case HalfEven:
		return HalfEven, nil
	default:
		return "", fmt.Errorf("unknown rounding mode %q (want %s or %s)", s, HalfAwayFromZero, HalfEven)
	}
}

// Round rounds d to Places decimals.
func (m RoundingMode) Round(d decimal.Decimal) decimal.Decimal {
	if m == HalfEven {
		return d.RoundBank(Places)
	}
	return d.Round(Places)
}

// Value returns shares x price rounded to Places decimals.
func (m RoundingMode) Value(shares, price decimal.Decimal) decimal.Decimal {
	return m.Round(shares.Mul(price))
}

// Format renders an already rounded value with exactly Places decimals, e.g. "1800.00".
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// Display renders d in the local currency's notation, e.g. "₹2,345.67".
func Display(d decimal.Decimal) string {
	minor := d.Shift(Places).Round(0).IntPart()
	return gomoney.New(minor, Currency).Display()
}
