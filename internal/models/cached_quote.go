package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CachedQuote persists the last good quote per symbol so the resolver cache
// survives restarts.
type CachedQuote struct {
	Symbol    string          `gorm:"primaryKey;size:16" json:"symbol"`
	Price     decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"price"`
	Source    string          `gorm:"size:32;not null" json:"source"`
	FetchedAt time.Time       `gorm:"not null" json:"fetched_at"`
}
