// Package rules caches per-symbol trading filters fetched from the exchange
package rules

import (
	"context"
	"sync"

	"trading_bot/internal/core"
)

// Fetcher retrieves the trading filters for a single symbol.
// core.ExchangeClient satisfies it.
type Fetcher interface {
	FetchSymbolRules(ctx context.Context, symbol string) (*core.SymbolRules, error)
}

// Cache is a lazy, process-lifetime cache of symbol filters. Entries are
// fetched on first use and never expire; filters change rarely enough
// that a restart is the accepted refresh path, and Refresh exists for
// callers that want to force one. Concurrent misses on the same symbol
// may fetch more than once; last write wins, which is harmless because
// successive fetches return equivalent filters.
type Cache struct {
	fetcher Fetcher
	logger  core.ILogger
	entries sync.Map // symbol -> *core.SymbolRules
}

// NewCache creates a cache backed by the given fetcher
func NewCache(fetcher Fetcher, logger core.ILogger) *Cache {
	return &Cache{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Get returns the filters for symbol, fetching them on a miss. A failed
// fetch caches nothing, so the next call retries.
func (c *Cache) Get(ctx context.Context, symbol string) (*core.SymbolRules, error) {
	if cached, ok := c.entries.Load(symbol); ok {
		return cached.(*core.SymbolRules), nil
	}

	fetched, err := c.fetcher.FetchSymbolRules(ctx, symbol)
	if err != nil {
		return nil, err
	}

	c.entries.Store(symbol, fetched)
	c.logger.Debug("cached symbol rules",
		"symbol", symbol,
		"tick_size", fetched.TickSize.String(),
		"step_size", fetched.StepSize.String(),
		"min_notional", fetched.MinNotional.String())
	return fetched, nil
}

// Refresh drops any cached entry for symbol and fetches fresh filters
func (c *Cache) Refresh(ctx context.Context, symbol string) (*core.SymbolRules, error) {
	c.entries.Delete(symbol)
	return c.Get(ctx, symbol)
}

// Invalidate drops the cached entry for symbol, if any
func (c *Cache) Invalidate(symbol string) {
	c.entries.Delete(symbol)
}
