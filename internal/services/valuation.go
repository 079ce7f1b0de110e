package services

import (
	"context"

	"github.com/shopspring/decimal"

	"papertrader/internal/logger"
	"papertrader/internal/models"
	"papertrader/internal/provider"
)

var hundred = decimal.NewFromInt(100)

// valuation is the price used for one holding and where it came from.
type valuation struct {
	Price decimal.Decimal
	Quote *provider.Quote
	Stale bool
}

// valueHoldings prices every holding. A symbol that cannot be resolved falls
// back to its last cached quote, then to its average cost, and is marked
// stale instead of failing the whole valuation.
func valueHoldings(ctx context.Context, quotes QuoteResolver, holdings []models.Holding) map[string]valuation {
	out := make(map[string]valuation, len(holdings))
	if len(holdings) == 0 {
		return out
	}

	symbols := make([]string, len(holdings))
	for i, h := range holdings {
		symbols[i] = h.Symbol
	}
	results := quotes.ResolveMany(ctx, symbols)

	for _, h := range holdings {
		res, ok := results[h.Symbol]
		if ok && res.Err == nil {
			q := res.Quote
			out[h.Symbol] = valuation{Price: q.Price, Quote: &q, Stale: q.Stale}
			continue
		}

		if ok {
			logger.Get().Warnw("Valuing holding at last known price", "symbol", h.Symbol, "error", res.Err)
		}
		if q, found := quotes.Cached(ctx, h.Symbol); found {
			q.Stale = true
			out[h.Symbol] = valuation{Price: q.Price, Quote: &q, Stale: true}
			continue
		}
		out[h.Symbol] = valuation{Price: h.AverageCost, Stale: true}
	}
	return out
}

// percentOf returns part/whole × 100 rounded to four places, or zero when
// whole is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(4)
}
