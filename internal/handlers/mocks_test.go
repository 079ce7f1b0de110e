package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"papertrader/internal/middleware"
	"papertrader/internal/models"
	"papertrader/internal/pagination"
	"papertrader/internal/provider"
	"papertrader/internal/quote"
	"papertrader/internal/services"
	"papertrader/internal/validator"
)

// --- mock trading service ---

type mockTradingService struct {
	buyAtMarketFn     func(symbol string, qty decimal.Decimal, opts services.TradeOptions) (*models.Transaction, error)
	sellAtMarketFn    func(symbol string, qty decimal.Decimal, opts services.TradeOptions) (*models.Transaction, error)
	getPortfolioFn    func() (*services.PortfolioSummary, error)
	getTransactionsFn func(page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

var _ services.TradingServicer = (*mockTradingService)(nil)

func (m *mockTradingService) Buy(context.Context, string, decimal.Decimal, provider.Quote, services.TradeOptions) (*models.Transaction, error) {
	return nil, nil
}

func (m *mockTradingService) Sell(context.Context, string, decimal.Decimal, provider.Quote, services.TradeOptions) (*models.Transaction, error) {
	return nil, nil
}

func (m *mockTradingService) EvaluateStopLoss(context.Context, string, provider.Quote) (*models.Transaction, error) {
	return nil, nil
}

func (m *mockTradingService) BuyAtMarket(_ context.Context, symbol string, qty decimal.Decimal, opts services.TradeOptions) (*models.Transaction, error) {
	if m.buyAtMarketFn != nil {
		return m.buyAtMarketFn(symbol, qty, opts)
	}
	return &models.Transaction{ID: 1, Symbol: symbol, Side: models.TradeSideBuy, Quantity: qty}, nil
}

func (m *mockTradingService) SellAtMarket(_ context.Context, symbol string, qty decimal.Decimal, opts services.TradeOptions) (*models.Transaction, error) {
	if m.sellAtMarketFn != nil {
		return m.sellAtMarketFn(symbol, qty, opts)
	}
	return &models.Transaction{ID: 1, Symbol: symbol, Side: models.TradeSideSell, Quantity: qty}, nil
}

func (m *mockTradingService) GetPortfolio(context.Context) (*services.PortfolioSummary, error) {
	if m.getPortfolioFn != nil {
		return m.getPortfolioFn()
	}
	return &services.PortfolioSummary{Holdings: []services.HoldingSummary{}}, nil
}

func (m *mockTradingService) GetTransactions(_ context.Context, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getTransactionsFn != nil {
		return m.getTransactionsFn(page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

// --- mock performance service ---

type mockPerformanceService struct {
	recordDailySnapshotFn func(date time.Time) (*models.DailyPerformance, error)
	getPerformanceFn      func(from, to *time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.DailyPerformance], error)
	getBaselineFn         func() (*models.PerformanceBaseline, error)
}

var _ services.PerformanceServicer = (*mockPerformanceService)(nil)

func (m *mockPerformanceService) RecordDailySnapshot(_ context.Context, date time.Time) (*models.DailyPerformance, error) {
	if m.recordDailySnapshotFn != nil {
		return m.recordDailySnapshotFn(date)
	}
	return &models.DailyPerformance{Date: date.Format(models.DateLayout)}, nil
}

func (m *mockPerformanceService) GetPerformance(_ context.Context, from, to *time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.DailyPerformance], error) {
	if m.getPerformanceFn != nil {
		return m.getPerformanceFn(from, to, page)
	}
	resp := pagination.NewPageResponse([]models.DailyPerformance{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockPerformanceService) GetBaseline(context.Context) (*models.PerformanceBaseline, error) {
	if m.getBaselineFn != nil {
		return m.getBaselineFn()
	}
	return &models.PerformanceBaseline{}, nil
}

// --- mock automation service ---

type mockAutomationService struct {
	runAITradingCycleFn func() (*services.CycleReport, error)
	runStopLossCheckFn  func() (*services.StopLossReport, error)
	refreshQuotesFn     func() (*services.RefreshReport, error)
}

var _ services.AutomationServicer = (*mockAutomationService)(nil)

func (m *mockAutomationService) RunAITradingCycle(context.Context) (*services.CycleReport, error) {
	if m.runAITradingCycleFn != nil {
		return m.runAITradingCycleFn()
	}
	return &services.CycleReport{}, nil
}

func (m *mockAutomationService) RunStopLossCheck(context.Context) (*services.StopLossReport, error) {
	if m.runStopLossCheckFn != nil {
		return m.runStopLossCheckFn()
	}
	return &services.StopLossReport{}, nil
}

func (m *mockAutomationService) RefreshQuotes(context.Context) (*services.RefreshReport, error) {
	if m.refreshQuotesFn != nil {
		return m.refreshQuotesFn()
	}
	return &services.RefreshReport{}, nil
}

// --- mock quote resolver ---

type mockQuoteResolver struct {
	resolveFn     func(symbol string) (provider.Quote, error)
	resolveManyFn func(symbols []string) map[string]quote.Result
}

var _ services.QuoteResolver = (*mockQuoteResolver)(nil)

func (m *mockQuoteResolver) Resolve(_ context.Context, symbol string) (provider.Quote, error) {
	if m.resolveFn != nil {
		return m.resolveFn(symbol)
	}
	return provider.Quote{Symbol: symbol}, nil
}

func (m *mockQuoteResolver) Refresh(ctx context.Context, symbol string) (provider.Quote, error) {
	return m.Resolve(ctx, symbol)
}

func (m *mockQuoteResolver) ResolveMany(_ context.Context, symbols []string) map[string]quote.Result {
	if m.resolveManyFn != nil {
		return m.resolveManyFn(symbols)
	}
	return map[string]quote.Result{}
}

func (m *mockQuoteResolver) RefreshMany(ctx context.Context, symbols []string) map[string]quote.Result {
	return m.ResolveMany(ctx, symbols)
}

func (m *mockQuoteResolver) Cached(context.Context, string) (provider.Quote, bool) {
	return provider.Quote{}, false
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectOperator(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.OperatorKey, name)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
