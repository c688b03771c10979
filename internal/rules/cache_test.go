package rules

import (
	"context"
	"sync"
	"testing"

	"trading_bot/internal/core"
	apperrors "trading_bot/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (m *mockLogger) Debug(msg string, f ...interface{})               {}
func (m *mockLogger) Info(msg string, f ...interface{})                {}
func (m *mockLogger) Warn(msg string, f ...interface{})                {}
func (m *mockLogger) Error(msg string, f ...interface{})               {}
func (m *mockLogger) Fatal(msg string, f ...interface{})               {}
func (m *mockLogger) WithField(k string, v interface{}) core.ILogger   { return m }
func (m *mockLogger) WithFields(f map[string]interface{}) core.ILogger { return m }

type spyFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	rules map[string]*core.SymbolRules
}

func newSpyFetcher() *spyFetcher {
	return &spyFetcher{
		calls: make(map[string]int),
		rules: map[string]*core.SymbolRules{
			"BTCUSDT": {
				Symbol:      "BTCUSDT",
				TickSize:    decimal.RequireFromString("0.1"),
				StepSize:    decimal.RequireFromString("0.001"),
				MinQty:      decimal.RequireFromString("0.001"),
				MinNotional: decimal.NewFromInt(5),
				MaxLeverage: 125,
			},
		},
	}
}

func (f *spyFetcher) FetchSymbolRules(ctx context.Context, symbol string) (*core.SymbolRules, error) {
	f.mu.Lock()
	f.calls[symbol]++
	f.mu.Unlock()
	r, ok := f.rules[symbol]
	if !ok {
		return nil, apperrors.ErrUnknownSymbol
	}
	return r, nil
}

func (f *spyFetcher) callCount(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[symbol]
}

func TestCache_FetchesOnceAcrossCalls(t *testing.T) {
	fetcher := newSpyFetcher()
	cache := NewCache(fetcher, &mockLogger{})
	ctx := context.Background()

	first, err := cache.Get(ctx, "BTCUSDT")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := cache.Get(ctx, "BTCUSDT")
		require.NoError(t, err)
		assert.Same(t, first, again)
	}
	assert.Equal(t, 1, fetcher.callCount("BTCUSDT"))
}

func TestCache_UnknownSymbol(t *testing.T) {
	fetcher := newSpyFetcher()
	cache := NewCache(fetcher, &mockLogger{})
	ctx := context.Background()

	_, err := cache.Get(ctx, "NOPEUSDT")
	assert.ErrorIs(t, err, apperrors.ErrUnknownSymbol)

	// a failed fetch is not cached
	_, err = cache.Get(ctx, "NOPEUSDT")
	assert.ErrorIs(t, err, apperrors.ErrUnknownSymbol)
	assert.Equal(t, 2, fetcher.callCount("NOPEUSDT"))
}

func TestCache_Refresh(t *testing.T) {
	fetcher := newSpyFetcher()
	cache := NewCache(fetcher, &mockLogger{})
	ctx := context.Background()

	_, err := cache.Get(ctx, "BTCUSDT")
	require.NoError(t, err)

	fetcher.mu.Lock()
	fetcher.rules["BTCUSDT"] = &core.SymbolRules{
		Symbol:   "BTCUSDT",
		TickSize: decimal.RequireFromString("0.5"),
		StepSize: decimal.RequireFromString("0.001"),
		MinQty:   decimal.RequireFromString("0.001"),
	}
	fetcher.mu.Unlock()

	refreshed, err := cache.Refresh(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "0.5", refreshed.TickSize.String())
	assert.Equal(t, 2, fetcher.callCount("BTCUSDT"))

	cached, err := cache.Get(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Same(t, refreshed, cached)
}

func TestCache_ConcurrentGets(t *testing.T) {
	fetcher := newSpyFetcher()
	cache := NewCache(fetcher, &mockLogger{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := cache.Get(ctx, "BTCUSDT")
			assert.NoError(t, err)
			assert.Equal(t, "BTCUSDT", r.Symbol)
		}()
	}
	wg.Wait()

	// concurrent misses may race to fetch, but the cache must settle
	_, err := cache.Get(ctx, "BTCUSDT")
	require.NoError(t, err)
	settled := fetcher.callCount("BTCUSDT")
	_, _ = cache.Get(ctx, "BTCUSDT")
	assert.Equal(t, settled, fetcher.callCount("BTCUSDT"))
}
