package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is the open position in one symbol. A holding whose quantity
// reaches zero is deleted, never stored with a zero quantity.
type Holding struct {
	Symbol      string              `gorm:"primaryKey;size:16" json:"symbol"`
	Quantity    decimal.Decimal     `gorm:"type:numeric(20,8);not null" json:"quantity"`
	AverageCost decimal.Decimal     `gorm:"type:numeric(20,8);not null" json:"average_cost"`
	StopLoss    decimal.NullDecimal `gorm:"type:numeric(20,8)" json:"stop_loss" swaggertype:"string"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// CostBasis returns quantity × average cost.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AverageCost)
}
