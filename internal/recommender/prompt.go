package recommender

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// maxPositionShare caps a single position relative to total capital.
var maxPositionShare = decimal.RequireFromString("0.20")

// BuildPrompt renders the portfolio for the model.
func BuildPrompt(pc PortfolioContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You manage a simulated growth portfolio of $%s. Today is %s.\n\n",
		pc.TotalCapital.StringFixed(2), pc.Date)

	b.WriteString("Current holdings:\n")
	if len(pc.Holdings) == 0 {
		b.WriteString("  - none\n")
	}
	for _, h := range pc.Holdings {
		fmt.Fprintf(&b, "  - %s: %s shares, average cost $%s, last price $%s",
			h.Ticker, h.Quantity.String(), h.AverageCost.StringFixed(2), h.CurrentPrice.StringFixed(2))
		if h.StopLoss.Valid {
			fmt.Fprintf(&b, ", stop loss $%s", h.StopLoss.Decimal.StringFixed(2))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nAvailable cash: $%s\n\n", pc.Cash.StringFixed(2))

	b.WriteString("For every holding return a sell decision of SELL, TRIM or HOLD with a reason.\n")
	fmt.Fprintf(&b, "Recommend new buys only with conviction; no position may exceed $%s.\n",
		pc.TotalCapital.Mul(maxPositionShare).StringFixed(0))
	b.WriteString("Use real NYSE or NASDAQ tickers, whole-share quantities, and a stop loss 15-20% below the buy price.\n")
	b.WriteString("The combined cost of all buys must not exceed available cash.\n")

	return b.String()
}
