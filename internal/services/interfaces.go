package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"papertrader/internal/ledger"
	"papertrader/internal/models"
	"papertrader/internal/pagination"
	"papertrader/internal/provider"
	"papertrader/internal/quote"
)

// QuoteResolver is the quote layer as seen by the services.
// *quote.Resolver satisfies it.
type QuoteResolver interface {
	Resolve(ctx context.Context, symbol string) (provider.Quote, error)
	Refresh(ctx context.Context, symbol string) (provider.Quote, error)
	ResolveMany(ctx context.Context, symbols []string) map[string]quote.Result
	RefreshMany(ctx context.Context, symbols []string) map[string]quote.Result
	Cached(ctx context.Context, symbol string) (provider.Quote, bool)
}

// Ledger is the transactional store as seen by the services.
// *ledger.Store satisfies it.
type Ledger interface {
	Apply(ctx context.Context, op ledger.Operation) (*ledger.Result, error)
	Snapshot(ctx context.Context) (*ledger.State, error)
}

// TradeOptions carries the optional parts of a trade request.
type TradeOptions struct {
	StopLoss  decimal.NullDecimal
	Reason    string
	Actor     string
	IPAddress string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Symbol   *string
	Side     *models.TradeSide
}

// HoldingSummary is one position valued at its latest quote.
type HoldingSummary struct {
	Symbol           string              `json:"symbol"`
	Quantity         decimal.Decimal     `json:"quantity"`
	AverageCost      decimal.Decimal     `json:"average_cost"`
	CostBasis        decimal.Decimal     `json:"cost_basis"`
	CurrentPrice     decimal.Decimal     `json:"current_price"`
	MarketValue      decimal.Decimal     `json:"market_value"`
	UnrealizedPnL    decimal.Decimal     `json:"unrealized_pnl"`
	UnrealizedPnLPct decimal.Decimal     `json:"unrealized_pnl_pct"`
	StopLoss         decimal.NullDecimal `json:"stop_loss" swaggertype:"string"`
	StopLossRiskPct  decimal.NullDecimal `json:"stop_loss_risk_pct" swaggertype:"string"`
	QuoteSource      string              `json:"quote_source"`
	QuoteTimestamp   *time.Time          `json:"quote_timestamp,omitempty"`
	Stale            bool                `json:"stale"`
}

// PortfolioSummary is the whole portfolio valued at current quotes.
type PortfolioSummary struct {
	Cash               decimal.Decimal  `json:"cash"`
	InitialCash        decimal.Decimal  `json:"initial_cash"`
	Holdings           []HoldingSummary `json:"holdings"`
	TotalCostBasis     decimal.Decimal  `json:"total_cost_basis"`
	TotalMarketValue   decimal.Decimal  `json:"total_market_value"`
	TotalUnrealizedPnL decimal.Decimal  `json:"total_unrealized_pnl"`
	PortfolioValue     decimal.Decimal  `json:"portfolio_value"`
	TotalGainLoss      decimal.Decimal  `json:"total_gain_loss"`
	TotalGainLossPct   decimal.Decimal  `json:"total_gain_loss_pct"`
	StaleQuotes        int              `json:"stale_quotes"`
	Display            string           `json:"display"`
	AsOf               time.Time        `json:"as_of"`
}

// TradingServicer is the portfolio accounting engine.
type TradingServicer interface {
	Buy(ctx context.Context, symbol string, quantity decimal.Decimal, q provider.Quote, opts TradeOptions) (*models.Transaction, error)
	Sell(ctx context.Context, symbol string, quantity decimal.Decimal, q provider.Quote, opts TradeOptions) (*models.Transaction, error)
	EvaluateStopLoss(ctx context.Context, symbol string, q provider.Quote) (*models.Transaction, error)
	BuyAtMarket(ctx context.Context, symbol string, quantity decimal.Decimal, opts TradeOptions) (*models.Transaction, error)
	SellAtMarket(ctx context.Context, symbol string, quantity decimal.Decimal, opts TradeOptions) (*models.Transaction, error)
	GetPortfolio(ctx context.Context) (*PortfolioSummary, error)
	GetTransactions(ctx context.Context, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

// PerformanceServicer records and lists daily performance snapshots.
type PerformanceServicer interface {
	RecordDailySnapshot(ctx context.Context, date time.Time) (*models.DailyPerformance, error)
	GetPerformance(ctx context.Context, from, to *time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.DailyPerformance], error)
	GetBaseline(ctx context.Context) (*models.PerformanceBaseline, error)
}

// Outcome statuses reported by automation runs.
const (
	OutcomeExecuted = "executed"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Outcome reports what happened to one recommendation or stop check.
type Outcome struct {
	Symbol            string              `json:"symbol"`
	Action            string              `json:"action"`
	Quantity          decimal.Decimal     `json:"quantity"`
	Status            string              `json:"status"`
	Reason            string              `json:"reason,omitempty"`
	ErrorCode         string              `json:"error_code,omitempty"`
	TransactionID     *uint               `json:"transaction_id,omitempty"`
	StopLoss          decimal.NullDecimal `json:"stop_loss,omitempty" swaggertype:"string"`
	StopLossCorrected bool                `json:"stop_loss_corrected,omitempty"`
}

// CycleReport summarizes one AI trading cycle.
type CycleReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Sells      []Outcome `json:"sells"`
	Buys       []Outcome `json:"buys"`
	Executed   int       `json:"executed"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}

// StopLossReport summarizes one stop-loss check.
type StopLossReport struct {
	CheckedAt time.Time `json:"checked_at"`
	Checked   int       `json:"checked"`
	Triggered int       `json:"triggered"`
	Outcomes  []Outcome `json:"outcomes"`
}

// RefreshReport lists the result of a forced quote refresh.
type RefreshReport struct {
	Refreshed int               `json:"refreshed"`
	Quotes    []provider.Quote  `json:"quotes"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// AutomationServicer holds the scheduler-invoked entry points.
type AutomationServicer interface {
	RunAITradingCycle(ctx context.Context) (*CycleReport, error)
	RunStopLossCheck(ctx context.Context) (*StopLossReport, error)
	RefreshQuotes(ctx context.Context) (*RefreshReport, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, entry AuditEntry)
}
