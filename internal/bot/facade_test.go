package bot

import (
	"context"
	"sync"
	"testing"

	"trading_bot/internal/audit"
	"trading_bot/internal/core"
	"trading_bot/internal/mock"
	"trading_bot/internal/rules"
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

type captureSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *captureSink) Record(event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Close() error { return nil }

func (s *captureSink) snapshot() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}

func btcRules() *core.SymbolRules {
	return &core.SymbolRules{
		Symbol:      "BTCUSDT",
		TickSize:    decimal.RequireFromString("0.1"),
		StepSize:    decimal.RequireFromString("0.001"),
		MinQty:      decimal.RequireFromString("0.001"),
		MinNotional: decimal.NewFromInt(5),
		MaxLeverage: 125,
	}
}

func newTestBot(t *testing.T) (*TradingBot, *mock.Exchange, *captureSink) {
	t.Helper()
	logger := &mockLogger{}
	exchange := mock.NewExchange("mock")
	exchange.SetRules(btcRules())

	sink := &captureSink{}
	dispatcher := audit.NewDispatcher([]audit.Sink{sink}, logger)
	cache := rules.NewCache(exchange, logger)
	return New(exchange, cache, dispatcher, logger), exchange, sink
}

func TestPlaceOrder_NormalizesAndSubmits(t *testing.T) {
	b, exchange, sink := newTestBot(t)

	result, err := b.PlaceOrder(context.Background(), core.OrderIntent{
		Symbol:   "BTCUSDT",
		Side:     core.SideBuy,
		Type:     core.OrderTypeLimit,
		Quantity: decimal.RequireFromString("0.0015"),
		Price:    decimal.RequireFromString("40000.07"),
	})
	require.NoError(t, err)
	assert.Equal(t, core.OrderStatusNew, result.Status)

	subs := exchange.Submissions()
	require.Len(t, subs, 1)
	assert.Equal(t, "0.001", subs[0].Quantity.String())
	assert.Equal(t, "40000.1", subs[0].Price.String())
	assert.Contains(t, subs[0].ClientOrderID, "bot-")

	require.NoError(t, b.Close())
	events := sink.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "place_order", events[0].Operation)
	assert.Equal(t, audit.OutcomeOK, events[0].Outcome)
	assert.Equal(t, result.OrderID, events[0].OrderID)
	assert.Equal(t, "40000.1", events[0].Params["price"])
}

func TestPlaceOrder_ValidationFailureNeverHitsNetwork(t *testing.T) {
	b, exchange, sink := newTestBot(t)

	_, err := b.PlaceOrder(context.Background(), core.OrderIntent{
		Symbol:   "BTCUSDT",
		Side:     core.SideBuy,
		Type:     core.OrderTypeMarket,
		Quantity: decimal.RequireFromString("0.0001"),
	})
	assert.ErrorIs(t, err, apperrors.ErrQuantityTooSmall)
	assert.Empty(t, exchange.Submissions())

	require.NoError(t, b.Close())
	events := sink.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, audit.OutcomeRejected, events[0].Outcome)
	assert.Equal(t, "quantity_too_small", events[0].ErrorKind)
	assert.Equal(t, "BUY", events[0].Params["side"])
	assert.Equal(t, "0.0001", events[0].Params["quantity"])
}

func TestPlaceOrder_ExchangeFailureIsAudited(t *testing.T) {
	b, exchange, sink := newTestBot(t)
	exchange.SubmitErr = apperrors.ErrInsufficientFunds

	_, err := b.PlaceOrder(context.Background(), core.OrderIntent{
		Symbol:   "BTCUSDT",
		Side:     core.SideBuy,
		Type:     core.OrderTypeLimit,
		Quantity: decimal.RequireFromString("0.01"),
		Price:    decimal.NewFromInt(40000),
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

	require.NoError(t, b.Close())
	events := sink.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, audit.OutcomeFailed, events[0].Outcome)
	assert.Equal(t, "insufficient_funds", events[0].ErrorKind)
	assert.NotEmpty(t, events[0].Params)
}

func TestPlaceOrder_UnknownSymbol(t *testing.T) {
	b, _, sink := newTestBot(t)

	_, err := b.PlaceOrder(context.Background(), core.OrderIntent{
		Symbol:   "NOPEUSDT",
		Side:     core.SideBuy,
		Type:     core.OrderTypeMarket,
		Quantity: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, apperrors.ErrUnknownSymbol)

	require.NoError(t, b.Close())
	events := sink.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "unknown_symbol", events[0].ErrorKind)
}

func TestCancelOrder(t *testing.T) {
	b, _, sink := newTestBot(t)
	ctx := context.Background()

	placed, err := b.PlaceOrder(ctx, core.OrderIntent{
		Symbol:   "BTCUSDT",
		Side:     core.SideSell,
		Type:     core.OrderTypeLimit,
		Quantity: decimal.RequireFromString("0.01"),
		Price:    decimal.NewFromInt(45000),
	})
	require.NoError(t, err)

	canceled, err := b.CancelOrder(ctx, "BTCUSDT", placed.OrderID)
	require.NoError(t, err)
	assert.Equal(t, core.OrderStatusCanceled, canceled.Status)

	_, err = b.CancelOrder(ctx, "BTCUSDT", 999999)
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)

	require.NoError(t, b.Close())
	events := sink.snapshot()
	require.Len(t, events, 3)
	assert.Equal(t, audit.OutcomeOK, events[1].Outcome)
	assert.Equal(t, audit.OutcomeFailed, events[2].Outcome)
	assert.Equal(t, "order_not_found", events[2].ErrorKind)
}

func TestCancelAllOrders(t *testing.T) {
	b, _, _ := newTestBot(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := b.PlaceOrder(ctx, core.OrderIntent{
			Symbol:   "BTCUSDT",
			Side:     core.SideBuy,
			Type:     core.OrderTypeLimit,
			Quantity: decimal.RequireFromString("0.01"),
			Price:    decimal.NewFromInt(39000 + int64(i)*100),
		})
		require.NoError(t, err)
	}

	require.NoError(t, b.CancelAllOrders(ctx, "BTCUSDT"))

	open, err := b.GetOpenOrders(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestCancelOrder_InvalidArgsNeverHitNetwork(t *testing.T) {
	b, exchange, sink := newTestBot(t)
	ctx := context.Background()
	exchange.CancelErr = apperrors.ErrTransport

	_, err := b.CancelOrder(ctx, "", 42)
	assert.ErrorIs(t, err, apperrors.ErrMissingField)

	_, err = b.CancelOrder(ctx, "BTCUSDT", -5)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrderID)

	_, err = b.CancelOrder(ctx, "BTCUSDT", 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrderID)

	// the injected failure is one-shot, so a valid cancel still seeing
	// it proves none of the calls above reached the exchange
	_, err = b.CancelOrder(ctx, "BTCUSDT", 42)
	assert.ErrorIs(t, err, apperrors.ErrTransport)

	require.NoError(t, b.Close())
	events := sink.snapshot()
	require.Len(t, events, 4)
	assert.Equal(t, audit.OutcomeRejected, events[0].Outcome)
	assert.Equal(t, "missing_field", events[0].ErrorKind)
	assert.Equal(t, audit.OutcomeRejected, events[1].Outcome)
	assert.Equal(t, "invalid_order_id", events[1].ErrorKind)
	assert.Equal(t, audit.OutcomeFailed, events[3].Outcome)
	assert.Equal(t, "transport", events[3].ErrorKind)
}

func TestCancelAllOrders_RequiresSymbol(t *testing.T) {
	b, _, sink := newTestBot(t)

	err := b.CancelAllOrders(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrMissingField)

	require.NoError(t, b.Close())
	events := sink.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, audit.OutcomeRejected, events[0].Outcome)
}

func TestGetOrderStatus_ValidatesLocally(t *testing.T) {
	b, exchange, _ := newTestBot(t)
	ctx := context.Background()
	exchange.QueryErr = apperrors.ErrTransport

	_, err := b.GetOrderStatus(ctx, "", 1)
	assert.ErrorIs(t, err, apperrors.ErrMissingField)

	_, err = b.GetOrderStatus(ctx, "BTCUSDT", 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrderID)

	_, err = b.GetOrderStatus(ctx, "BTCUSDT", 1)
	assert.ErrorIs(t, err, apperrors.ErrTransport)

	require.NoError(t, b.Close())
}

func TestSetLeverage_BracketEnforced(t *testing.T) {
	b, exchange, sink := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, b.SetLeverage(ctx, "BTCUSDT", 20))
	assert.Equal(t, 20, exchange.Leverage("BTCUSDT"))

	err := b.SetLeverage(ctx, "BTCUSDT", 200)
	assert.ErrorIs(t, err, apperrors.ErrLeverageOutOfRange)

	err = b.SetLeverage(ctx, "BTCUSDT", 0)
	assert.ErrorIs(t, err, apperrors.ErrLeverageOutOfRange)
	assert.Equal(t, 20, exchange.Leverage("BTCUSDT"))

	require.NoError(t, b.Close())
	events := sink.snapshot()
	require.Len(t, events, 3)
	assert.Equal(t, audit.OutcomeOK, events[0].Outcome)
	assert.Equal(t, audit.OutcomeRejected, events[1].Outcome)
	assert.Equal(t, "leverage_out_of_range", events[1].ErrorKind)
}

func TestGetAccountOverview(t *testing.T) {
	b, exchange, _ := newTestBot(t)
	exchange.SetBalance(core.Balance{
		Asset:     "USDT",
		Balance:   decimal.NewFromInt(10000),
		Available: decimal.NewFromInt(8000),
	})
	exchange.SetPositions("BTCUSDT", []core.Position{{
		Symbol:     "BTCUSDT",
		Size:       decimal.RequireFromString("0.5"),
		EntryPrice: decimal.NewFromInt(40000),
		Leverage:   20,
	}})

	overview, err := b.GetAccountOverview(context.Background(), "USDT", "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "10000", overview.Balance.Balance.String())
	require.Len(t, overview.Positions, 1)
	assert.Equal(t, "0.5", overview.Positions[0].Size.String())
}

func TestGetCurrentPrice(t *testing.T) {
	b, exchange, _ := newTestBot(t)
	exchange.SetMarkPrice("BTCUSDT", decimal.RequireFromString("40123.4"))

	price, err := b.GetCurrentPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "40123.4", price.String())

	_, err = b.GetCurrentPrice(context.Background(), "NOPEUSDT")
	assert.ErrorIs(t, err, apperrors.ErrUnknownSymbol)
}
