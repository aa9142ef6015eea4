package domain

import "github.com/shopspring/decimal"

// AmountScale is the number of fractional digits kept for every amount.
const AmountScale = 2

// MaxAmount is the largest amount a numeric(14,2) column holds. It bounds
// single amounts and pool balances alike.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// RoundAmount rounds to whole cents, half away from zero.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// FormatAmount renders an amount with exactly two fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountScale)
}

// ParseAmount parses a decimal string and rounds it to cents.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return RoundAmount(d), nil
}
