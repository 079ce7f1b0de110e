package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashBalanceID is the primary key of the single cash row.
const CashBalanceID uint = 1

// CashBalance holds the portfolio's uninvested cash. InitialAmount is the
// funding the ledger was opened with and never changes afterwards.
type CashBalance struct {
	ID            uint            `gorm:"primaryKey" json:"-"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"amount"`
	InitialAmount decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"initial_amount"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
