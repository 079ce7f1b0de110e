// Package quote resolves current prices through an ordered provider chain
// backed by a time-bounded cache.
package quote

import (
	"context"
	"sync"

	"papertrader/internal/logger"
	"papertrader/internal/provider"
)

// Store persists the last good quote per symbol.
type Store interface {
	Load(ctx context.Context, symbol string) (provider.Quote, bool, error)
	Save(ctx context.Context, q provider.Quote) error
}

// Cache holds the most recent successful quote per symbol. Entries are
// replaced wholesale, never merged. A nil Store keeps the cache in memory.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]provider.Quote
	store   Store
}

// NewCache creates a cache that writes through to store.
func NewCache(store Store) *Cache {
	return &Cache{entries: make(map[string]provider.Quote), store: store}
}

// Get returns the cached quote for symbol regardless of age. A memory miss
// falls back to the store.
func (c *Cache) Get(ctx context.Context, symbol string) (provider.Quote, bool) {
	c.mu.RLock()
	q, ok := c.entries[symbol]
	c.mu.RUnlock()
	if ok || c.store == nil {
		return q, ok
	}

	q, ok, err := c.store.Load(ctx, symbol)
	if err != nil {
		logger.Named("quote").Warnw("Failed to load cached quote", "symbol", symbol, "error", err)
		return provider.Quote{}, false
	}
	if !ok {
		return provider.Quote{}, false
	}

	c.mu.Lock()
	if cur, exists := c.entries[symbol]; !exists || cur.Timestamp.Before(q.Timestamp) {
		c.entries[symbol] = q
	} else {
		q = cur
	}
	c.mu.Unlock()
	return q, true
}

// Put replaces the entry for q.Symbol. Persistence failures are logged; the
// in-memory entry is kept either way.
func (c *Cache) Put(ctx context.Context, q provider.Quote) {
	q.Stale = false

	c.mu.Lock()
	c.entries[q.Symbol] = q
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, q); err != nil {
		logger.Named("quote").Warnw("Failed to persist cached quote", "symbol", q.Symbol, "error", err)
	}
}
