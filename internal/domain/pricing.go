package domain

import "github.com/shopspring/decimal"

// Margin is the per-unit profit for a set price against its landed cost
type Margin struct {
	Amount     decimal.Decimal
	Percentage int64
}

// LandedCost returns (cost + shipping + customs) converted at the given exchange rate
func LandedCost(cost, shipping, customs, exchangeRate decimal.Decimal) decimal.Decimal {
	return cost.Add(shipping).Add(customs).Mul(exchangeRate)
}

// CalculateMargin returns the margin amount rounded to cents and its share of the
// selling price as a whole percentage. A non-positive price yields 0%.
func CalculateMargin(price, totalCost decimal.Decimal) Margin {
	amount := price.Sub(totalCost).Round(2)
	var pct int64
	if price.IsPositive() {
		pct = amount.Div(price).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	}
	return Margin{Amount: amount, Percentage: pct}
}
