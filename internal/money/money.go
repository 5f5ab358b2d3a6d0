// Package money provides integer minor-unit currency helpers for the quote
// delivery pipeline. Amounts travel through the pipeline as int64 minor units
// (cents); this package is the only place they are turned into display
// strings or split into deposit amounts.
package money

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
)

// symbols maps the ISO codes this business quotes in to display symbols.
// Codes outside the map fall back to "<CODE> " as a prefix.
var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"CAD": "$",
	"AUD": "$",
}

// ValidCurrency reports whether code is a well-formed ISO 4217 code.
func ValidCurrency(code string) bool {
	_, err := currency.ParseISO(code)
	return err == nil
}

// FormatMinorUnits renders an integer minor-unit amount as a display string,
// e.g. (80000, "USD") -> "$800.00". The fraction-digit count comes from the
// currency definition, so zero-decimal currencies such as JPY render without
// a fractional part.
//
// Unknown or malformed codes fall back to two fraction digits with the raw
// code as prefix; formatting must never fail, because it sits on the render
// path of revenue-critical mail.
func FormatMinorUnits(amount int64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	digits := 2
	if unit, err := currency.ParseISO(code); err == nil {
		if scale, _ := currency.Standard.Rounding(unit); scale >= 0 {
			digits = scale
		}
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	prefix, ok := symbols[code]
	if !ok {
		prefix = code + " "
	}

	if digits == 0 {
		return fmt.Sprintf("%s%s%d", sign, prefix, amount)
	}
	div := int64(math.Pow10(digits))
	return fmt.Sprintf("%s%s%d.%0*d", sign, prefix, amount/div, digits, amount%div)
}

// DepositAmount computes the amount charged for a deposit as
// round-half-up(total * fraction), clamped to [0, total]. The result is
// always a non-negative integer minor-unit amount and never exceeds the
// total.
func DepositAmount(totalMinorUnits int64, fraction float64) int64 {
	if totalMinorUnits <= 0 || fraction <= 0 {
		return 0
	}
	amount := int64(math.Floor(float64(totalMinorUnits)*fraction + 0.5))
	if amount > totalMinorUnits {
		return totalMinorUnits
	}
	if amount < 0 {
		return 0
	}
	return amount
}

// MajorUnits converts an integer minor-unit amount into a float major-unit
// amount (e.g. 16000 -> 160.00). Only for provider APIs whose wire format
// demands floats; never used for internal arithmetic.
func MajorUnits(amountMinorUnits int64, code string) float64 {
	digits := 2
	if unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code))); err == nil {
		if scale, _ := currency.Standard.Rounding(unit); scale >= 0 {
			digits = scale
		}
	}
	return float64(amountMinorUnits) / math.Pow10(digits)
}
