package testutil

import (
	"testing"
	"time"

	"papertrader/internal/models"
	"papertrader/internal/provider"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Dec parses s as a decimal and panics on malformed input. Test use only.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// NullDec returns a valid NullDecimal for s, or an invalid one for "".
func NullDec(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(Dec(s))
}

// FreshQuote returns a non-stale quote for symbol at price, timestamped now.
func FreshQuote(symbol, price string) provider.Quote {
	return provider.Quote{
		Symbol:    symbol,
		Price:     Dec(price),
		Timestamp: time.Now().UTC(),
		Source:    "test",
	}
}

// StaleQuote returns a quote carrying the staleness flag.
func StaleQuote(symbol, price string) provider.Quote {
	q := FreshQuote(symbol, price)
	q.Timestamp = q.Timestamp.Add(-2 * time.Hour)
	q.Stale = true
	return q
}

// FundLedger creates the cash row with amount as both balance and funding.
func FundLedger(t *testing.T, db *gorm.DB, amount string) *models.CashBalance {
	t.Helper()

	cash := &models.CashBalance{
		ID:            models.CashBalanceID,
		Amount:        Dec(amount),
		InitialAmount: Dec(amount),
	}
	if err := db.Create(cash).Error; err != nil {
		t.Fatalf("failed to fund ledger: %v", err)
	}
	return cash
}

// CreateTestHolding inserts a holding row directly, bypassing the ledger.
func CreateTestHolding(t *testing.T, db *gorm.DB, symbol, quantity, averageCost, stopLoss string) *models.Holding {
	t.Helper()

	holding := &models.Holding{
		Symbol:      symbol,
		Quantity:    Dec(quantity),
		AverageCost: Dec(averageCost),
		StopLoss:    NullDec(stopLoss),
	}
	if err := db.Create(holding).Error; err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return holding
}

// CreateTestCachedQuote stores a cached quote fetched at fetchedAt.
func CreateTestCachedQuote(t *testing.T, db *gorm.DB, symbol, price string, fetchedAt time.Time) *models.CachedQuote {
	t.Helper()

	cq := &models.CachedQuote{
		Symbol:    symbol,
		Price:     Dec(price),
		Source:    "test",
		FetchedAt: fetchedAt,
	}
	if err := db.Create(cq).Error; err != nil {
		t.Fatalf("failed to create cached quote: %v", err)
	}
	return cq
}

// CreateTestSnapshot inserts a daily performance row for date.
func CreateTestSnapshot(t *testing.T, db *gorm.DB, date, value string) *models.DailyPerformance {
	t.Helper()

	snap := &models.DailyPerformance{
		Date:                 date,
		PortfolioValue:       Dec(value),
		PortfolioGainLoss:    decimal.Zero,
		PortfolioGainLossPct: decimal.Zero,
		BenchmarkSymbol:      "SPY",
		BenchmarkPrice:       Dec("500"),
		BenchmarkGainLoss:    decimal.Zero,
		BenchmarkGainLossPct: decimal.Zero,
	}
	if err := db.Create(snap).Error; err != nil {
		t.Fatalf("failed to create test snapshot: %v", err)
	}
	return snap
}
