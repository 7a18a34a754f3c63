package entities

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places kept for amounts and odds
const MoneyScale = 2

var (
	// OneOdd is the neutral multiplier used for void legs
	OneOdd = decimal.NewFromInt(1)
)

// RoundMoney rounds half away from zero to two decimals, which is half-up for
// the non-negative values stored by the system
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}
