// Package notify publishes executed trades to downstream consumers.
package notify

import (
	"context"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// TradeEvent describes one executed ledger transaction.
type TradeEvent struct {
	EventType     string          `json:"event_type"`
	TransactionID uint            `json:"transaction_id"`
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	RealizedPnL   *string         `json:"realized_pnl,omitempty"`
	CashAfter     decimal.Decimal `json:"cash_after"`
	Reason        string          `json:"reason"`
	Display       string          `json:"display"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Event types.
const (
	EventTradeExecuted    = "TRADE_EXECUTED"
	EventStopLossExecuted = "STOP_LOSS_EXECUTED"
)

// Notifier publishes trade events. Implementations must be safe for
// concurrent use.
type Notifier interface {
	PublishTrade(ctx context.Context, event TradeEvent) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

// PublishTrade implements Notifier.
func (Nop) PublishTrade(context.Context, TradeEvent) error { return nil }

// Close implements Notifier.
func (Nop) Close() error { return nil }

// FormatAmount renders amount in currency's conventional form, e.g.
// "$1,234.56". Unknown currency codes fall back to two decimals.
func FormatAmount(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}
