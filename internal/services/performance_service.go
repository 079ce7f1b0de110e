package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/logger"
	"papertrader/internal/models"
	"papertrader/internal/pagination"
	"papertrader/internal/provider"
)

// performanceService records daily portfolio valuations against a benchmark.
type performanceService struct {
	db        *gorm.DB
	ledger    Ledger
	quotes    QuoteResolver
	audit     AuditServicer
	benchmark string
}

// NewPerformanceService creates a new PerformanceServicer.
func NewPerformanceService(db *gorm.DB, l Ledger, quotes QuoteResolver, audit AuditServicer, benchmarkSymbol string) PerformanceServicer {
	return &performanceService{
		db:        db,
		ledger:    l,
		quotes:    quotes,
		audit:     audit,
		benchmark: provider.NormalizeSymbol(benchmarkSymbol),
	}
}

// RecordDailySnapshot values the portfolio and the benchmark and stores the
// result under date. Recording the same date again replaces the row.
func (s *performanceService) RecordDailySnapshot(ctx context.Context, date time.Time) (*models.DailyPerformance, error) {
	key := date.Format(models.DateLayout)

	state, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	prices := valueHoldings(ctx, s.quotes, state.Holdings)
	value := state.Cash
	var stale []string
	for _, h := range state.Holdings {
		v := prices[h.Symbol]
		value = value.Add(h.Quantity.Mul(v.Price))
		if v.Stale {
			stale = append(stale, h.Symbol)
		}
	}
	value = value.Round(2)
	sort.Strings(stale)

	baseline, err := s.loadBaseline(ctx)
	if err != nil {
		return nil, err
	}

	benchPrice, err := s.benchmarkPrice(ctx, baseline)
	if err != nil {
		return nil, err
	}

	if baseline == nil {
		baseline = &models.PerformanceBaseline{
			ID:              models.PerformanceBaselineID,
			InitialValue:    state.InitialCash,
			BenchmarkSymbol: s.benchmark,
			BenchmarkPrice:  benchPrice,
			EstablishedOn:   key,
		}
		result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(baseline)
		if result.Error != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			// A concurrent snapshot established it first; the stored row wins.
			if baseline, err = s.loadBaseline(ctx); err != nil {
				return nil, err
			}
			if baseline == nil {
				return nil, apperrors.WithMessage(apperrors.ErrInternalServer, "Performance baseline vanished after insert")
			}
		} else {
			logger.Get().Infow("Performance baseline established",
				"date", key,
				"initial_value", baseline.InitialValue.String(),
				"benchmark", s.benchmark,
				"benchmark_price", benchPrice.String(),
			)
		}
	}

	snapshot := &models.DailyPerformance{
		Date:                 key,
		PortfolioValue:       value,
		PortfolioGainLoss:    value.Sub(baseline.InitialValue),
		PortfolioGainLossPct: percentOf(value.Sub(baseline.InitialValue), baseline.InitialValue),
		BenchmarkSymbol:      baseline.BenchmarkSymbol,
		BenchmarkPrice:       benchPrice,
		StaleSymbols:         strings.Join(stale, ","),
	}
	snapshot.BenchmarkGainLoss, snapshot.BenchmarkGainLossPct = benchmarkReturn(baseline, benchPrice)

	db := s.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"portfolio_value",
			"portfolio_gain_loss",
			"portfolio_gain_loss_pct",
			"benchmark_symbol",
			"benchmark_price",
			"benchmark_gain_loss",
			"benchmark_gain_loss_pct",
			"stale_symbols",
			"updated_at",
		}),
	}).Create(snapshot).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	// created_at survives a replace; read it back.
	if err := db.First(snapshot, "date = ?", key).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Log(ctx, AuditEntry{
		Actor:        ActorSystem,
		Action:       AuditActionSnapshot,
		ResourceType: "daily_performance",
		ResourceID:   key,
		Changes: map[string]interface{}{
			"portfolio_value": snapshot.PortfolioValue.String(),
			"benchmark_price": snapshot.BenchmarkPrice.String(),
			"stale_symbols":   snapshot.StaleSymbols,
		},
	})
	logger.Get().Infow("Daily snapshot recorded",
		"date", key,
		"portfolio_value", snapshot.PortfolioValue.String(),
		"gain_loss_pct", snapshot.PortfolioGainLossPct.String(),
		"benchmark_gain_loss_pct", snapshot.BenchmarkGainLossPct.String(),
		"stale_symbols", len(stale),
	)
	return snapshot, nil
}

// GetPerformance returns snapshots between from and to (inclusive dates),
// newest first by default.
func (s *performanceService) GetPerformance(ctx context.Context, from, to *time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.DailyPerformance], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.DailyPerformance{})
	if from != nil {
		base = base.Where("date >= ?", from.Format(models.DateLayout))
	}
	if to != nil {
		base = base.Where("date <= ?", to.Format(models.DateLayout))
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.DailyPerformance
	if err := base.Order(page.OrderBy("date")).Scopes(pagination.Paginate(page)).Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBaseline returns the reference values fixed by the first snapshot.
func (s *performanceService) GetBaseline(ctx context.Context) (*models.PerformanceBaseline, error) {
	baseline, err := s.loadBaseline(ctx)
	if err != nil {
		return nil, err
	}
	if baseline == nil {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "No snapshot has been recorded yet")
	}
	return baseline, nil
}

func (s *performanceService) loadBaseline(ctx context.Context) (*models.PerformanceBaseline, error) {
	var baseline models.PerformanceBaseline
	err := s.db.WithContext(ctx).First(&baseline, models.PerformanceBaselineID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &baseline, nil
}

// benchmarkPrice resolves the benchmark, falling back to its cached quote and
// then to the baseline price. Without any of them there is nothing to
// compare against.
func (s *performanceService) benchmarkPrice(ctx context.Context, baseline *models.PerformanceBaseline) (decimal.Decimal, error) {
	symbol := s.benchmark
	if baseline != nil {
		symbol = baseline.BenchmarkSymbol
	}

	q, err := s.quotes.Resolve(ctx, symbol)
	if err == nil {
		return q.Price, nil
	}
	logger.Get().Warnw("Benchmark quote unavailable", "symbol", symbol, "error", err)

	if cached, ok := s.quotes.Cached(ctx, symbol); ok {
		return cached.Price, nil
	}
	if baseline != nil {
		return baseline.BenchmarkPrice, nil
	}
	return decimal.Zero, apperrors.Wrap(apperrors.ErrQuoteUnavailable, err)
}

// benchmarkReturn is the gain of investing the baseline value in the
// benchmark at the baseline price.
func benchmarkReturn(baseline *models.PerformanceBaseline, price decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if !baseline.BenchmarkPrice.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	units := baseline.InitialValue.Div(baseline.BenchmarkPrice)
	gain := units.Mul(price).Sub(baseline.InitialValue).Round(2)
	pct := price.Div(baseline.BenchmarkPrice).Sub(decimal.NewFromInt(1)).Mul(hundred).Round(4)
	return gain, pct
}
