package testutil_test

import (
	"testing"
	"time"

	"papertrader/internal/errors"
	"papertrader/internal/models"
	"papertrader/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"cash_balances", "holdings", "transactions", "cached_quotes", "daily_performances", "performance_baselines", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	second := testutil.SetupTestDB(t)

	testutil.FundLedger(t, first, "100")

	var count int64
	second.Model(&models.CashBalance{}).Count(&count)
	if count != 0 {
		t.Errorf("expected isolated databases, found %d cash rows", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)

	cash := testutil.FundLedger(t, db, "10000")
	testutil.AssertDecimal(t, "10000", cash.Amount)

	holding := testutil.CreateTestHolding(t, db, "XYZ", "10", "50", "42.5")
	if !holding.StopLoss.Valid {
		t.Error("expected stop loss to be set")
	}

	cq := testutil.CreateTestCachedQuote(t, db, "XYZ", "51", time.Now())
	testutil.AssertDecimal(t, "51", cq.Price)

	snap := testutil.CreateTestSnapshot(t, db, "2026-01-02", "10100")
	if snap.Date != "2026-01-02" {
		t.Errorf("expected date 2026-01-02, got %s", snap.Date)
	}

	if !testutil.StaleQuote("XYZ", "1").Stale {
		t.Error("expected stale quote fixture to be flagged")
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrInsufficientCash, "custom message")
	testutil.AssertAppError(t, err, "INSUFFICIENT_CASH")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
