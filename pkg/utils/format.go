package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NanoDecimals is the number of fractional digits of one coin
const NanoDecimals = 9

// FormatBalance renders an amount of nano units as a coin string, e.g. "1.5"
func FormatBalance(nano int64) string {
	return decimal.New(nano, -NanoDecimals).String()
}

// ParseBalance converts a coin string back to nano units.
// More than nine fractional digits is an error.
func ParseBalance(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Exponent() < -NanoDecimals {
		return 0, fmt.Errorf("invalid amount %q: more than %d decimals", s, NanoDecimals)
	}
	nano := d.Shift(NanoDecimals)
	if !nano.IsInteger() {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return nano.IntPart(), nil
}
