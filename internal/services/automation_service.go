package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/ledger"
	"papertrader/internal/logger"
	"papertrader/internal/models"
	"papertrader/internal/provider"
	"papertrader/internal/recommender"
)

const aiReasonPrefix = "AI Recommendation: "

// automationService runs the scheduled trading jobs.
type automationService struct {
	ledger    Ledger
	quotes    QuoteResolver
	trading   TradingServicer
	rec       recommender.Recommender
	audit     AuditServicer
	benchmark string
	now       func() time.Time
}

// NewAutomationService creates a new AutomationServicer. rec may be nil, in
// which case the AI cycle reports the recommender as unavailable.
func NewAutomationService(l Ledger, quotes QuoteResolver, trading TradingServicer, rec recommender.Recommender, audit AuditServicer, benchmarkSymbol string) AutomationServicer {
	return &automationService{
		ledger:    l,
		quotes:    quotes,
		trading:   trading,
		rec:       rec,
		audit:     audit,
		benchmark: provider.NormalizeSymbol(benchmarkSymbol),
		now:       time.Now,
	}
}

// RunAITradingCycle asks the recommender for decisions and executes them,
// sells first so their proceeds are available to the buys.
func (s *automationService) RunAITradingCycle(ctx context.Context) (*CycleReport, error) {
	if s.rec == nil {
		return nil, apperrors.ErrRecommenderUnavailable
	}

	report := &CycleReport{StartedAt: s.now().UTC(), Sells: []Outcome{}, Buys: []Outcome{}}
	log := logger.Named("ai-cycle")

	state, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	pc := recommender.PortfolioContext{
		Date:     report.StartedAt.Format(models.DateLayout),
		Cash:     state.Cash,
		Holdings: make([]recommender.HoldingContext, 0, len(state.Holdings)),
	}
	prices := valueHoldings(ctx, s.quotes, state.Holdings)
	total := state.Cash
	for _, h := range state.Holdings {
		price := prices[h.Symbol].Price
		total = total.Add(h.Quantity.Mul(price))
		pc.Holdings = append(pc.Holdings, recommender.HoldingContext{
			Ticker:       h.Symbol,
			Quantity:     h.Quantity,
			AverageCost:  h.AverageCost,
			CurrentPrice: price,
			StopLoss:     h.StopLoss,
		})
	}
	pc.TotalCapital = total.Round(2)

	recs, err := s.rec.Recommend(ctx, pc)
	if err != nil {
		log.Errorw("Recommender failed", "error", err)
		return nil, apperrors.Wrap(apperrors.ErrRecommenderUnavailable, err)
	}
	recs.Normalize()
	log.Infow("Recommendations received",
		"sells", len(recs.SellDecisions),
		"buys", len(recs.BuyRecommendations),
	)

	for _, d := range recs.SellDecisions {
		report.Sells = append(report.Sells, s.executeSell(ctx, state, d))
	}
	for _, b := range recs.BuyRecommendations {
		report.Buys = append(report.Buys, s.executeBuy(ctx, b))
	}

	report.tally(report.Sells)
	report.tally(report.Buys)
	report.FinishedAt = s.now().UTC()

	s.audit.Log(ctx, AuditEntry{
		Actor:        ActorAICycle,
		Action:       AuditActionAICycle,
		ResourceType: "cycle",
		ResourceID:   report.StartedAt.Format(time.RFC3339),
		Changes: map[string]interface{}{
			"executed": report.Executed,
			"skipped":  report.Skipped,
			"failed":   report.Failed,
		},
	})
	log.Infow("AI trading cycle finished",
		"executed", report.Executed,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)
	return report, nil
}

func (s *automationService) executeSell(ctx context.Context, state *ledger.State, d recommender.SellDecision) Outcome {
	out := Outcome{Symbol: d.Ticker, Action: string(d.Action), Reason: d.Reason}

	if d.Action == recommender.ActionHold {
		out.Status = OutcomeSkipped
		return out
	}
	holding, ok := state.Holding(d.Ticker)
	if !ok {
		out.Status = OutcomeSkipped
		out.Reason = "not held"
		return out
	}

	qty := holding.Quantity
	if d.Action == recommender.ActionTrim {
		qty = decimal.Min(recommender.TrimQuantity(holding.Quantity), holding.Quantity)
	}
	out.Quantity = qty

	q, err := s.quotes.Resolve(ctx, d.Ticker)
	if err != nil {
		return failed(out, err)
	}
	txn, err := s.trading.Sell(ctx, d.Ticker, qty, q, TradeOptions{
		Reason: aiReasonPrefix + d.Reason,
		Actor:  ActorAICycle,
	})
	if err != nil {
		return failed(out, err)
	}
	return executed(out, txn)
}

func (s *automationService) executeBuy(ctx context.Context, b recommender.BuyRecommendation) Outcome {
	out := Outcome{
		Symbol:   b.Ticker,
		Action:   "BUY",
		Quantity: decimal.NewFromInt(b.Quantity),
		Reason:   b.Reason,
	}

	q, err := s.quotes.Resolve(ctx, b.Ticker)
	if err != nil {
		return failed(out, err)
	}

	stop, corrected := recommender.CorrectStopLoss(b.StopLossPrice, q.Price)
	if corrected {
		logger.Get().Warnw("Corrected stop loss above current price",
			"symbol", b.Ticker,
			"recommended", b.StopLossPrice.String(),
			"price", q.Price.String(),
			"corrected", stop.String(),
		)
	}
	out.StopLoss = decimal.NewNullDecimal(stop)
	out.StopLossCorrected = corrected

	txn, err := s.trading.Buy(ctx, b.Ticker, out.Quantity, q, TradeOptions{
		StopLoss: out.StopLoss,
		Reason:   aiReasonPrefix + b.Reason,
		Actor:    ActorAICycle,
	})
	if err != nil {
		return failed(out, err)
	}
	return executed(out, txn)
}

// RunStopLossCheck sells every position whose current price has fallen to
// or below its stop.
func (s *automationService) RunStopLossCheck(ctx context.Context) (*StopLossReport, error) {
	report := &StopLossReport{CheckedAt: s.now().UTC(), Outcomes: []Outcome{}}

	state, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var symbols []string
	for _, h := range state.Holdings {
		if h.StopLoss.Valid {
			symbols = append(symbols, h.Symbol)
		}
	}
	if len(symbols) == 0 {
		return report, nil
	}

	quotes := s.quotes.RefreshMany(ctx, symbols)
	for _, sym := range symbols {
		holding, _ := state.Holding(sym)
		out := Outcome{
			Symbol:   sym,
			Action:   "STOP_LOSS",
			Quantity: holding.Quantity,
			StopLoss: holding.StopLoss,
		}
		report.Checked++

		res := quotes[sym]
		if res.Err != nil {
			report.Outcomes = append(report.Outcomes, failed(out, res.Err))
			continue
		}

		txn, err := s.trading.EvaluateStopLoss(ctx, sym, res.Quote)
		switch {
		case err != nil:
			report.Outcomes = append(report.Outcomes, failed(out, err))
		case txn == nil:
			out.Status = OutcomeSkipped
			out.Reason = "price " + res.Quote.Price.StringFixed(2) + " above stop"
			report.Outcomes = append(report.Outcomes, out)
		default:
			report.Triggered++
			out.Reason = txn.Reason
			report.Outcomes = append(report.Outcomes, executed(out, txn))
		}
	}

	logger.Named("stop-loss").Infow("Stop loss check finished",
		"checked", report.Checked,
		"triggered", report.Triggered,
	)
	return report, nil
}

// RefreshQuotes force-refreshes every held symbol and the benchmark.
func (s *automationService) RefreshQuotes(ctx context.Context) (*RefreshReport, error) {
	state, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	symbols := state.Symbols()
	if s.benchmark != "" {
		symbols = append(symbols, s.benchmark)
	}

	report := &RefreshReport{Quotes: []provider.Quote{}}
	results := s.quotes.RefreshMany(ctx, symbols)

	keys := make([]string, 0, len(results))
	for sym := range results {
		keys = append(keys, sym)
	}
	sort.Strings(keys)

	for _, sym := range keys {
		res := results[sym]
		if res.Err != nil {
			if report.Errors == nil {
				report.Errors = make(map[string]string)
			}
			report.Errors[sym] = res.Err.Error()
			continue
		}
		report.Quotes = append(report.Quotes, res.Quote)
		if !res.Quote.Stale {
			report.Refreshed++
		}
	}

	logger.Get().Infow("Quotes refreshed",
		"requested", len(keys),
		"refreshed", report.Refreshed,
		"errors", len(report.Errors),
	)
	return report, nil
}

func (r *CycleReport) tally(outcomes []Outcome) {
	for _, o := range outcomes {
		switch o.Status {
		case OutcomeExecuted:
			r.Executed++
		case OutcomeSkipped:
			r.Skipped++
		case OutcomeFailed:
			r.Failed++
		}
	}
}

func executed(out Outcome, txn *models.Transaction) Outcome {
	out.Status = OutcomeExecuted
	id := txn.ID
	out.TransactionID = &id
	out.Quantity = txn.Quantity
	return out
}

func failed(out Outcome, err error) Outcome {
	out.Status = OutcomeFailed
	out.Reason = err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		out.ErrorCode = appErr.Code
	}
	return out
}

// transactionRef renders a transaction ID for audit resource IDs.
func transactionRef(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
