package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide is the direction of a ledger transaction.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// Transaction is one append-only ledger entry. Rows are never updated or
// deleted; holdings and cash can be replayed from them.
type Transaction struct {
	ID          uint                `gorm:"primaryKey;autoIncrement" json:"id"`
	ExecutedAt  time.Time           `gorm:"not null;index" json:"executed_at"`
	Symbol      string              `gorm:"size:16;not null;index" json:"symbol"`
	Side        TradeSide           `gorm:"size:4;not null" json:"side"`
	Quantity    decimal.Decimal     `gorm:"type:numeric(20,8);not null" json:"quantity"`
	Price       decimal.Decimal     `gorm:"type:numeric(20,8);not null" json:"price"`
	RealizedPnL decimal.NullDecimal `gorm:"type:numeric(20,8)" json:"realized_pnl" swaggertype:"string"`
	StopLoss    decimal.NullDecimal `gorm:"type:numeric(20,8)" json:"stop_loss" swaggertype:"string"`
	CashAfter   decimal.Decimal     `gorm:"type:numeric(20,8);not null" json:"cash_after"`
	Reason      string              `json:"reason"`
	QuoteSource string              `gorm:"size:32" json:"quote_source"`
}

// Amount returns quantity × price.
func (t *Transaction) Amount() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}
