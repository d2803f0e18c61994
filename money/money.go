// Package money holds the rounding policy shared by the ledger and the
// balance aggregator. Every amount that leaves the service is rounded through
// RoundShare or RoundTotal; intermediate sums keep full precision.
package money

import (
	"github.com/shopspring/decimal"
)

// Places is the number of decimal places kept at the external boundary.
const Places = 2

func init() {
	// Amounts are JSON numbers on the wire, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// RoundShare splits total equally across n participants and rounds the
// per-participant share half-up in a single step. The rounding error is not
// redistributed. n must be positive.
func RoundShare(total decimal.Decimal, n int) decimal.Decimal {
	return total.DivRound(decimal.NewFromInt(int64(n)), Places)
}

// RoundTotal rounds an accumulated amount half-up to two places.
func RoundTotal(v decimal.Decimal) decimal.Decimal {
	return v.Round(Places)
}

// Sum adds amounts without rounding.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, values...)
}
