package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/ledger"
	"papertrader/internal/logger"
	"papertrader/internal/models"
	"papertrader/internal/notify"
	"papertrader/internal/pagination"
	"papertrader/internal/provider"
)

// tradingService applies trades to the ledger using resolved quotes.
type tradingService struct {
	db       *gorm.DB
	ledger   Ledger
	quotes   QuoteResolver
	audit    AuditServicer
	notifier notify.Notifier
	currency string
}

// NewTradingService creates a new TradingServicer.
func NewTradingService(db *gorm.DB, l Ledger, quotes QuoteResolver, audit AuditServicer, notifier notify.Notifier, currency string) TradingServicer {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &tradingService{db: db, ledger: l, quotes: quotes, audit: audit, notifier: notifier, currency: currency}
}

// Buy purchases quantity units of symbol at q.Price.
func (s *tradingService) Buy(ctx context.Context, symbol string, quantity decimal.Decimal, q provider.Quote, opts TradeOptions) (*models.Transaction, error) {
	symbol, err := checkTrade(symbol, quantity, q)
	if err != nil {
		return nil, err
	}
	if opts.StopLoss.Valid && !opts.StopLoss.Decimal.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Stop loss must be greater than zero")
	}

	res, err := s.ledger.Apply(ctx, ledger.Operation{
		Side:        models.TradeSideBuy,
		Symbol:      symbol,
		Quantity:    quantity,
		Price:       q.Price,
		StopLoss:    opts.StopLoss,
		Reason:      opts.Reason,
		QuoteSource: q.Source,
	})
	if err != nil {
		return nil, err
	}

	s.recordTrade(ctx, AuditActionBuy, notify.EventTradeExecuted, res.Transaction, opts)
	return res.Transaction, nil
}

// Sell disposes of quantity units of symbol at q.Price.
func (s *tradingService) Sell(ctx context.Context, symbol string, quantity decimal.Decimal, q provider.Quote, opts TradeOptions) (*models.Transaction, error) {
	symbol, err := checkTrade(symbol, quantity, q)
	if err != nil {
		return nil, err
	}

	res, err := s.ledger.Apply(ctx, ledger.Operation{
		Side:        models.TradeSideSell,
		Symbol:      symbol,
		Quantity:    quantity,
		Price:       q.Price,
		Reason:      opts.Reason,
		QuoteSource: q.Source,
	})
	if err != nil {
		return nil, err
	}

	s.recordTrade(ctx, AuditActionSell, notify.EventTradeExecuted, res.Transaction, opts)
	return res.Transaction, nil
}

// EvaluateStopLoss sells the whole position in symbol when q.Price is at or
// below the holding's stop price. It returns nil when nothing was sold.
func (s *tradingService) EvaluateStopLoss(ctx context.Context, symbol string, q provider.Quote) (*models.Transaction, error) {
	symbol = provider.NormalizeSymbol(symbol)
	if q.Stale {
		return nil, apperrors.ErrStaleQuote
	}
	if q.Symbol != "" && provider.NormalizeSymbol(q.Symbol) != symbol {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Quote does not match symbol")
	}

	res, err := s.ledger.Apply(ctx, ledger.Operation{
		Side:           models.TradeSideSell,
		Symbol:         symbol,
		EntirePosition: true,
		AtStop:         true,
		Price:          q.Price,
		QuoteSource:    q.Source,
	})
	if errors.Is(err, ledger.ErrStopNotTriggered) || errors.Is(err, apperrors.ErrHoldingNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	opts := TradeOptions{Actor: ActorSystem, Reason: res.Transaction.Reason}
	s.recordTrade(ctx, AuditActionStopLoss, notify.EventStopLossExecuted, res.Transaction, opts)
	return res.Transaction, nil
}

// BuyAtMarket resolves the current quote for symbol and buys at it.
func (s *tradingService) BuyAtMarket(ctx context.Context, symbol string, quantity decimal.Decimal, opts TradeOptions) (*models.Transaction, error) {
	if !quantity.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must be greater than zero")
	}
	q, err := s.quotes.Resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return s.Buy(ctx, symbol, quantity, q, opts)
}

// SellAtMarket resolves the current quote for symbol and sells at it.
func (s *tradingService) SellAtMarket(ctx context.Context, symbol string, quantity decimal.Decimal, opts TradeOptions) (*models.Transaction, error) {
	if !quantity.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must be greater than zero")
	}
	q, err := s.quotes.Resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return s.Sell(ctx, symbol, quantity, q, opts)
}

// GetPortfolio values every holding at its latest quote.
func (s *tradingService) GetPortfolio(ctx context.Context) (*PortfolioSummary, error) {
	state, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	prices := valueHoldings(ctx, s.quotes, state.Holdings)
	summary := &PortfolioSummary{
		Cash:        state.Cash,
		InitialCash: state.InitialCash,
		Holdings:    make([]HoldingSummary, 0, len(state.Holdings)),
		AsOf:        state.TakenAt,
	}

	for _, h := range state.Holdings {
		v := prices[h.Symbol]
		hs := HoldingSummary{
			Symbol:       h.Symbol,
			Quantity:     h.Quantity,
			AverageCost:  h.AverageCost,
			CostBasis:    h.CostBasis().Round(2),
			CurrentPrice: v.Price,
			MarketValue:  h.Quantity.Mul(v.Price).Round(2),
			StopLoss:     h.StopLoss,
			Stale:        v.Stale,
		}
		hs.UnrealizedPnL = hs.MarketValue.Sub(hs.CostBasis)
		hs.UnrealizedPnLPct = percentOf(hs.UnrealizedPnL, hs.CostBasis)
		if v.Quote != nil {
			hs.QuoteSource = v.Quote.Source
			ts := v.Quote.Timestamp
			hs.QuoteTimestamp = &ts
		}
		if h.StopLoss.Valid && v.Price.IsPositive() {
			risk := percentOf(v.Price.Sub(h.StopLoss.Decimal), v.Price)
			if risk.IsNegative() {
				risk = decimal.Zero
			}
			hs.StopLossRiskPct = decimal.NewNullDecimal(risk)
		}
		if hs.Stale {
			summary.StaleQuotes++
		}

		summary.TotalCostBasis = summary.TotalCostBasis.Add(hs.CostBasis)
		summary.TotalMarketValue = summary.TotalMarketValue.Add(hs.MarketValue)
		summary.Holdings = append(summary.Holdings, hs)
	}

	summary.TotalUnrealizedPnL = summary.TotalMarketValue.Sub(summary.TotalCostBasis)
	summary.PortfolioValue = summary.Cash.Add(summary.TotalMarketValue)
	summary.TotalGainLoss = summary.PortfolioValue.Sub(summary.InitialCash)
	summary.TotalGainLossPct = percentOf(summary.TotalGainLoss, summary.InitialCash)
	summary.Display = notify.FormatAmount(summary.PortfolioValue, s.currency)
	return summary, nil
}

// GetTransactions returns the transaction log, newest first by default.
func (s *tradingService) GetTransactions(ctx context.Context, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	query := s.db.WithContext(ctx).Model(&models.Transaction{})
	if filter.FromDate != nil {
		query = query.Where("executed_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("executed_at <= ?", *filter.ToDate)
	}
	if filter.Symbol != nil {
		query = query.Where("symbol = ?", provider.NormalizeSymbol(*filter.Symbol))
	}
	if filter.Side != nil {
		query = query.Where("side = ?", *filter.Side)
	}

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var txns []models.Transaction
	if err := query.Order(page.OrderBy("id")).Scopes(pagination.Paginate(page)).Find(&txns).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(txns, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// checkTrade validates the parts of a trade shared by buys and sells and
// returns the normalized symbol.
func checkTrade(symbol string, quantity decimal.Decimal, q provider.Quote) (string, error) {
	symbol = provider.NormalizeSymbol(symbol)
	if symbol == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Symbol is required")
	}
	if !quantity.IsPositive() {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must be greater than zero")
	}
	if q.Stale {
		return "", apperrors.ErrStaleQuote
	}
	if q.Symbol != "" && provider.NormalizeSymbol(q.Symbol) != symbol {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Quote does not match symbol")
	}
	if !q.Price.IsPositive() {
		return "", apperrors.ErrQuoteUnavailable
	}
	return symbol, nil
}

// recordTrade writes the audit entry, publishes the trade event and logs it.
// None of these can fail the trade, which is already committed.
func (s *tradingService) recordTrade(ctx context.Context, action, eventType string, txn *models.Transaction, opts TradeOptions) {
	changes := map[string]interface{}{
		"symbol":     txn.Symbol,
		"side":       txn.Side,
		"quantity":   txn.Quantity.String(),
		"price":      txn.Price.String(),
		"cash_after": txn.CashAfter.String(),
	}
	if txn.RealizedPnL.Valid {
		changes["realized_pnl"] = txn.RealizedPnL.Decimal.String()
	}
	if txn.StopLoss.Valid {
		changes["stop_loss"] = txn.StopLoss.Decimal.String()
	}
	s.audit.Log(ctx, AuditEntry{
		Actor:        opts.Actor,
		Action:       action,
		ResourceType: "transaction",
		ResourceID:   transactionRef(txn.ID),
		IPAddress:    opts.IPAddress,
		Changes:      changes,
	})

	event := notify.TradeEvent{
		EventType:     eventType,
		TransactionID: txn.ID,
		Symbol:        txn.Symbol,
		Side:          string(txn.Side),
		Quantity:      txn.Quantity,
		Price:         txn.Price,
		CashAfter:     txn.CashAfter,
		Reason:        txn.Reason,
		Display:       notify.FormatAmount(txn.Amount(), s.currency),
		Timestamp:     time.Now().UTC(),
	}
	if txn.RealizedPnL.Valid {
		pnl := txn.RealizedPnL.Decimal.String()
		event.RealizedPnL = &pnl
	}
	if err := s.notifier.PublishTrade(ctx, event); err != nil {
		logger.Get().Warnw("Failed to publish trade event", "transaction_id", txn.ID, "error", err)
	}

	logger.Get().Infow("Trade executed",
		"transaction_id", txn.ID,
		"symbol", txn.Symbol,
		"side", txn.Side,
		"quantity", txn.Quantity.String(),
		"price", txn.Price.String(),
		"amount", notify.FormatAmount(txn.Amount(), s.currency),
		"cash_after", notify.FormatAmount(txn.CashAfter, s.currency),
		"reason", txn.Reason,
	)
}
