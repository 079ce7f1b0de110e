// Package recommender obtains structured trade recommendations from an
// external model.
package recommender

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// SellAction is the model's decision for an existing position.
type SellAction string

const (
	ActionSell SellAction = "SELL"
	ActionTrim SellAction = "TRIM"
	ActionHold SellAction = "HOLD"
)

// SellDecision is a recommendation for a held symbol.
type SellDecision struct {
	Ticker string     `json:"ticker"`
	Action SellAction `json:"action"`
	Reason string     `json:"reason"`
}

// BuyRecommendation proposes opening or adding to a position.
type BuyRecommendation struct {
	Ticker        string          `json:"ticker"`
	BuyPrice      decimal.Decimal `json:"buy_price"`
	Quantity      int64           `json:"quantity"`
	StopLossPrice decimal.Decimal `json:"stop_loss_price"`
	Reason        string          `json:"reason"`
}

// Recommendations is the full response for one trading cycle.
type Recommendations struct {
	SellDecisions      []SellDecision      `json:"sell_decisions"`
	BuyRecommendations []BuyRecommendation `json:"buy_recommendations"`
	RemainingCash      decimal.Decimal     `json:"remaining_cash"`
}

// HoldingContext describes one open position for the model.
type HoldingContext struct {
	Ticker       string
	Quantity     decimal.Decimal
	AverageCost  decimal.Decimal
	CurrentPrice decimal.Decimal
	StopLoss     decimal.NullDecimal
}

// PortfolioContext is what the model sees when asked for recommendations.
type PortfolioContext struct {
	Date         string
	Cash         decimal.Decimal
	TotalCapital decimal.Decimal
	Holdings     []HoldingContext
}

// Recommender returns trade recommendations for a portfolio.
type Recommender interface {
	Recommend(ctx context.Context, pc PortfolioContext) (*Recommendations, error)
}

// StopLossCorrection is the fraction of the price a corrected stop sits at.
var StopLossCorrection = decimal.RequireFromString("0.85")

// CorrectStopLoss returns a stop strictly below price. A stop at or above
// price is replaced by price × 0.85 rounded to cents; the bool reports
// whether a correction was made.
func CorrectStopLoss(stop, price decimal.Decimal) (decimal.Decimal, bool) {
	if stop.LessThan(price) && stop.IsPositive() {
		return stop, false
	}
	return price.Mul(StopLossCorrection).Round(2), true
}

// Normalize upper-cases tickers and drops entries without one, unknown
// actions, and buys with a non-positive quantity.
func (r *Recommendations) Normalize() {
	sells := r.SellDecisions[:0]
	for _, s := range r.SellDecisions {
		s.Ticker = strings.ToUpper(strings.TrimSpace(s.Ticker))
		s.Action = SellAction(strings.ToUpper(strings.TrimSpace(string(s.Action))))
		if s.Ticker == "" {
			continue
		}
		switch s.Action {
		case ActionSell, ActionTrim, ActionHold:
			sells = append(sells, s)
		}
	}
	r.SellDecisions = sells

	buys := r.BuyRecommendations[:0]
	for _, b := range r.BuyRecommendations {
		b.Ticker = strings.ToUpper(strings.TrimSpace(b.Ticker))
		if b.Ticker == "" || b.Quantity <= 0 {
			continue
		}
		buys = append(buys, b)
	}
	r.BuyRecommendations = buys
}

// TrimQuantity returns how many shares a TRIM sells: half the position,
// rounded down, but at least one.
func TrimQuantity(held decimal.Decimal) decimal.Decimal {
	half := held.Div(decimal.NewFromInt(2)).Floor()
	if half.LessThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return half
}
