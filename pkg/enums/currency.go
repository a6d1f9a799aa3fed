package enums

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is a lowercase ISO 4217 code, the form Stripe expects.
type Currency string

const (
	CurrencyUSD Currency = "usd"
	CurrencyEUR Currency = "eur"
	CurrencyGBP Currency = "gbp"
	CurrencyJPY Currency = "jpy"
)

// minorExponent is the number of decimal places in each currency's minor unit.
var minorExponent = map[Currency]int32{
	CurrencyUSD: 2,
	CurrencyEUR: 2,
	CurrencyGBP: 2,
	CurrencyJPY: 0,
}

func (c Currency) String() string { return string(c) }

func (c Currency) IsValid() bool {
	_, ok := minorExponent[c]
	return ok
}

// ToMinor converts a major-unit amount to the integer the provider charges,
// rounding half away from zero.
func (c Currency) ToMinor(amount decimal.Decimal) int64 {
	exp, ok := minorExponent[c]
	if !ok {
		exp = 2
	}
	return amount.Shift(exp).Round(0).IntPart()
}

func ParseCurrency(value string) (Currency, error) {
	c := Currency(strings.ToLower(strings.TrimSpace(value)))
	if !c.IsValid() {
		return "", fmt.Errorf("invalid currency %q", value)
	}
	return c, nil
}
