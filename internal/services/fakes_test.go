package services

import (
	"context"
	"sync"
	"testing"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/ledger"
	"papertrader/internal/models"
	"papertrader/internal/notify"
	"papertrader/internal/provider"
	"papertrader/internal/quote"
	"papertrader/internal/recommender"
	"papertrader/internal/testutil"

	"gorm.io/gorm"
)

// fakeQuotes is an in-memory QuoteResolver.
type fakeQuotes struct {
	mu        sync.Mutex
	quotes    map[string]provider.Quote
	cached    map[string]provider.Quote
	errs      map[string]error
	refreshed []string
}

func newFakeQuotes() *fakeQuotes {
	return &fakeQuotes{
		quotes: make(map[string]provider.Quote),
		cached: make(map[string]provider.Quote),
		errs:   make(map[string]error),
	}
}

func (f *fakeQuotes) set(symbol, price string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes[symbol] = testutil.FreshQuote(symbol, price)
	delete(f.errs, symbol)
}

func (f *fakeQuotes) fail(symbol string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[symbol] = err
}

func (f *fakeQuotes) Resolve(_ context.Context, symbol string) (provider.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[symbol]; ok {
		return provider.Quote{}, err
	}
	if q, ok := f.quotes[symbol]; ok {
		return q, nil
	}
	return provider.Quote{}, apperrors.ErrQuoteUnavailable
}

func (f *fakeQuotes) Refresh(ctx context.Context, symbol string) (provider.Quote, error) {
	f.mu.Lock()
	f.refreshed = append(f.refreshed, symbol)
	f.mu.Unlock()
	return f.Resolve(ctx, symbol)
}

func (f *fakeQuotes) ResolveMany(ctx context.Context, symbols []string) map[string]quote.Result {
	out := make(map[string]quote.Result, len(symbols))
	for _, sym := range symbols {
		q, err := f.Resolve(ctx, sym)
		out[sym] = quote.Result{Quote: q, Err: err}
	}
	return out
}

func (f *fakeQuotes) RefreshMany(ctx context.Context, symbols []string) map[string]quote.Result {
	out := make(map[string]quote.Result, len(symbols))
	for _, sym := range symbols {
		q, err := f.Refresh(ctx, sym)
		out[sym] = quote.Result{Quote: q, Err: err}
	}
	return out
}

func (f *fakeQuotes) Cached(_ context.Context, symbol string) (provider.Quote, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.cached[symbol]
	return q, ok
}

// recordingNotifier keeps every published event.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.TradeEvent
	err    error
}

func (n *recordingNotifier) PublishTrade(_ context.Context, e notify.TradeEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func (n *recordingNotifier) Close() error { return nil }

// fakeRecommender returns canned recommendations and keeps the context it
// was asked about.
type fakeRecommender struct {
	recs *recommender.Recommendations
	err  error
	got  recommender.PortfolioContext
}

func (f *fakeRecommender) Recommend(_ context.Context, pc recommender.PortfolioContext) (*recommender.Recommendations, error) {
	f.got = pc
	if f.err != nil {
		return nil, f.err
	}
	return f.recs, nil
}

// tradingFixture wires a trading service over a funded sqlite ledger.
type tradingFixture struct {
	db       *gorm.DB
	ledger   *ledger.Store
	quotes   *fakeQuotes
	notifier *recordingNotifier
	svc      TradingServicer
}

func newTradingFixture(t *testing.T, cash string) *tradingFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	store := ledger.NewStore(db)
	if _, err := store.Init(context.Background(), testutil.Dec(cash)); err != nil {
		t.Fatalf("failed to fund ledger: %v", err)
	}

	f := &tradingFixture{
		db:       db,
		ledger:   store,
		quotes:   newFakeQuotes(),
		notifier: &recordingNotifier{},
	}
	f.svc = NewTradingService(db, store, f.quotes, NewAuditService(db), f.notifier, "USD")
	return f
}

// buy executes a buy at price, failing the test on error.
func (f *tradingFixture) buy(t *testing.T, symbol, quantity, price, stop string) *models.Transaction {
	t.Helper()

	txn, err := f.svc.Buy(context.Background(), symbol, testutil.Dec(quantity), testutil.FreshQuote(symbol, price), TradeOptions{
		StopLoss: testutil.NullDec(stop),
		Reason:   "fixture",
	})
	testutil.AssertNoError(t, err)
	return txn
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()

	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}

func newUnfundedLedger(db *gorm.DB) *ledger.Store {
	return ledger.NewStore(db)
}

// interleavingLedger runs before ahead of the first stop-loss sale, standing in
// for a trade that commits between the caller's read and its write.
type interleavingLedger struct {
	*ledger.Store
	before func(ctx context.Context) error
	once   sync.Once
}

func (l *interleavingLedger) Apply(ctx context.Context, op ledger.Operation) (*ledger.Result, error) {
	if op.AtStop {
		var err error
		l.once.Do(func() { err = l.before(ctx) })
		if err != nil {
			return nil, err
		}
	}
	return l.Store.Apply(ctx, op)
}

// racingQuotes runs before once, ahead of the first Resolve of symbol.
type racingQuotes struct {
	*fakeQuotes
	symbol string
	before func()
	once   sync.Once
}

func (r *racingQuotes) Resolve(ctx context.Context, symbol string) (provider.Quote, error) {
	if symbol == r.symbol {
		r.once.Do(r.before)
	}
	return r.fakeQuotes.Resolve(ctx, symbol)
}
