package ledger

import "github.com/shopspring/decimal"

// Scale is the number of decimal places the ledger stores for amounts,
// quantities and prices. It matches the numeric(20,8) columns.
const Scale int32 = 8

// RecomputeAverage returns the weighted average cost after adding deltaQty
// units at deltaPrice to a position of oldQty units at oldAvg:
//
//	(oldQty×oldAvg + deltaQty×deltaPrice) / (oldQty + deltaQty)
//
// It is the only place the ledger computes cost basis. A resulting quantity
// of zero or less yields zero.
func RecomputeAverage(oldQty, oldAvg, deltaQty, deltaPrice decimal.Decimal) decimal.Decimal {
	total := oldQty.Add(deltaQty)
	if !total.IsPositive() {
		return decimal.Zero
	}
	cost := oldQty.Mul(oldAvg).Add(deltaQty.Mul(deltaPrice))
	return cost.DivRound(total, Scale)
}

// RealizedPnL returns quantity × (price − averageCost).
func RealizedPnL(quantity, price, averageCost decimal.Decimal) decimal.Decimal {
	return quantity.Mul(price.Sub(averageCost)).Round(Scale)
}
