package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the key format of DailyPerformance rows.
const DateLayout = "2006-01-02"

// DailyPerformance is the portfolio valuation for one calendar date,
// alongside the benchmark over the same period.
type DailyPerformance struct {
	Date                 string          `gorm:"primaryKey;size:10" json:"date"`
	PortfolioValue       decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"portfolio_value"`
	PortfolioGainLoss    decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"portfolio_gain_loss"`
	PortfolioGainLossPct decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"portfolio_gain_loss_pct"`
	BenchmarkSymbol      string          `gorm:"size:16;not null" json:"benchmark_symbol"`
	BenchmarkPrice       decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"benchmark_price"`
	BenchmarkGainLoss    decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"benchmark_gain_loss"`
	BenchmarkGainLossPct decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"benchmark_gain_loss_pct"`
	StaleSymbols         string          `json:"stale_symbols,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// PerformanceBaselineID is the primary key of the single baseline row.
const PerformanceBaselineID uint = 1

// PerformanceBaseline fixes the reference values for percentage fields.
// It is written once, by the first snapshot ever recorded.
type PerformanceBaseline struct {
	ID              uint            `gorm:"primaryKey" json:"-"`
	InitialValue    decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"initial_value"`
	BenchmarkSymbol string          `gorm:"size:16;not null" json:"benchmark_symbol"`
	BenchmarkPrice  decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"benchmark_price"`
	EstablishedOn   string          `gorm:"size:10;not null" json:"established_on"`
	CreatedAt       time.Time       `json:"created_at"`
}
