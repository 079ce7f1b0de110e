package quote

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/logger"
	"papertrader/internal/provider"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultConcurrency bounds how many symbols ResolveMany works on at once.
const DefaultConcurrency = 4

// Result is the outcome of resolving one symbol in a bulk call.
type Result struct {
	Quote provider.Quote
	Err   error
}

// Resolver returns a trustworthy price per symbol. Fresh cache entries are
// served without touching any provider; otherwise providers are tried in
// priority order.
type Resolver struct {
	providers   []provider.Provider
	cache       *Cache
	ttl         time.Duration
	timeout     time.Duration
	concurrency int
	now         func() time.Time
	group       singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithConcurrency overrides DefaultConcurrency for bulk calls.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewResolver creates a resolver over providers, in priority order.
func NewResolver(providers []provider.Provider, cache *Cache, ttl, timeout time.Duration, opts ...Option) *Resolver {
	r := &Resolver{
		providers:   providers,
		cache:       cache,
		ttl:         ttl,
		timeout:     timeout,
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TTL returns the cache validity window.
func (r *Resolver) TTL() time.Duration { return r.ttl }

// Resolve returns a quote for symbol. When every provider fails it falls back
// to the cached quote flagged Stale, or ErrQuoteUnavailable if none exists.
// An invalid symbol aborts with ErrInvalidSymbol.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (provider.Quote, error) {
	return r.resolve(ctx, symbol, false, newPass())
}

// Refresh is Resolve without the cache-freshness shortcut.
func (r *Resolver) Refresh(ctx context.Context, symbol string) (provider.Quote, error) {
	return r.resolve(ctx, symbol, true, newPass())
}

// ResolveMany resolves each symbol independently. Results are keyed by the
// normalized symbol.
func (r *Resolver) ResolveMany(ctx context.Context, symbols []string) map[string]Result {
	return r.resolveMany(ctx, symbols, false)
}

// RefreshMany is the bulk form of Refresh.
func (r *Resolver) RefreshMany(ctx context.Context, symbols []string) map[string]Result {
	return r.resolveMany(ctx, symbols, true)
}

// Cached returns the last known quote for symbol without contacting any
// provider. The Stale flag reflects the quote's age.
func (r *Resolver) Cached(ctx context.Context, symbol string) (provider.Quote, bool) {
	q, ok := r.cache.Get(ctx, provider.NormalizeSymbol(symbol))
	if !ok {
		return provider.Quote{}, false
	}
	q.Stale = q.Age(r.now()) >= r.ttl
	return q, true
}

func (r *Resolver) resolveMany(ctx context.Context, symbols []string, force bool) map[string]Result {
	unique := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		unique[provider.NormalizeSymbol(s)] = struct{}{}
	}
	ordered := make([]string, 0, len(unique))
	for s := range unique {
		ordered = append(ordered, s)
	}
	sort.Strings(ordered)

	var (
		mu      sync.Mutex
		results = make(map[string]Result, len(ordered))
		p       = newPass()
		g       errgroup.Group
	)
	g.SetLimit(r.concurrency)

	for _, sym := range ordered {
		g.Go(func() error {
			q, err := r.resolve(ctx, sym, force, p)
			mu.Lock()
			results[sym] = Result{Quote: q, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (r *Resolver) resolve(ctx context.Context, symbol string, force bool, p *pass) (provider.Quote, error) {
	sym := provider.NormalizeSymbol(symbol)
	if sym == "" {
		return provider.Quote{}, apperrors.WithMessage(apperrors.ErrInvalidSymbol, "Symbol is required")
	}

	if !force {
		if q, ok := r.cache.Get(ctx, sym); ok && q.Age(r.now()) < r.ttl {
			return q, nil
		}
	}

	// The shared fetch outlives any single caller; each provider call is
	// still bounded by r.timeout.
	fetchCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(sym, func() (interface{}, error) {
		return r.fetch(fetchCtx, sym, p)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return provider.Quote{}, res.Err
		}
		return res.Val.(provider.Quote), nil
	case <-ctx.Done():
		return provider.Quote{}, apperrors.Wrap(apperrors.ErrQuoteUnavailable, ctx.Err())
	}
}

// fetch walks the provider chain once for sym.
func (r *Resolver) fetch(ctx context.Context, sym string, p *pass) (provider.Quote, error) {
	log := logger.Named("quote")
	var lastErr error

	for _, prov := range r.providers {
		name := prov.Name()
		if p.limited(name) {
			continue
		}

		q, err := r.fetchOne(ctx, prov, sym)
		if err == nil {
			q.Symbol = sym
			q.Stale = false
			if q.Timestamp.IsZero() {
				q.Timestamp = r.now().UTC()
			}
			r.cache.Put(ctx, q)
			return q, nil
		}

		lastErr = err
		switch provider.Classify(err) {
		case provider.ErrInvalidSymbol:
			log.Infow("Provider rejected symbol", "symbol", sym, "provider", name, "error", err)
			return provider.Quote{}, apperrors.Wrap(apperrors.ErrInvalidSymbol, err)
		case provider.ErrRateLimited:
			p.markLimited(name)
			log.Warnw("Provider rate limited, skipping for this pass", "symbol", sym, "provider", name)
		default:
			log.Warnw("Provider unavailable, trying next", "symbol", sym, "provider", name, "error", err)
		}
	}

	if q, ok := r.cache.Get(ctx, sym); ok {
		q.Stale = q.Age(r.now()) >= r.ttl
		log.Warnw("All providers failed, serving cached quote",
			"symbol", sym, "age", q.Age(r.now()).Round(time.Second).String(), "stale", q.Stale)
		return q, nil
	}

	log.Errorw("All providers failed and no cached quote exists", "symbol", sym, "error", lastErr)
	return provider.Quote{}, apperrors.Wrap(apperrors.ErrQuoteUnavailable, lastErr)
}

// fetchOne bounds a single provider call by the resolver timeout.
func (r *Resolver) fetchOne(ctx context.Context, prov provider.Provider, sym string) (provider.Quote, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	q, err := prov.Fetch(callCtx, sym)
	if err != nil {
		return provider.Quote{}, err
	}
	if callCtx.Err() != nil {
		return provider.Quote{}, callCtx.Err()
	}
	return q, nil
}

// pass tracks providers that reported rate limiting during one resolution
// pass. They are skipped for the rest of the pass only.
type pass struct {
	mu   sync.Mutex
	hits map[string]bool
}

func newPass() *pass {
	return &pass{hits: make(map[string]bool)}
}

func (p *pass) limited(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits[name]
}

func (p *pass) markLimited(name string) {
	p.mu.Lock()
	p.hits[name] = true
	p.mu.Unlock()
}
