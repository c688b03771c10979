// Package bot is the high-level trading facade: it validates intents
// locally, submits them through the exchange client, and audits every
// mutating attempt exactly once.
package bot

import (
	"context"
	"fmt"

	"trading_bot/internal/audit"
	"trading_bot/internal/core"
	"trading_bot/internal/order"
	"trading_bot/internal/rules"
	apperrors "trading_bot/pkg/errors"
	"trading_bot/pkg/telemetry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// TradingBot wires the order builder, the rules cache, the exchange
// client and the audit dispatcher into one façade. All methods are safe
// for concurrent use.
type TradingBot struct {
	client  core.ExchangeClient
	rules   *rules.Cache
	audit   *audit.Dispatcher
	logger  core.ILogger
	metrics *telemetry.MetricsHolder
}

// New creates a bot over the given exchange client
func New(client core.ExchangeClient, cache *rules.Cache, dispatcher *audit.Dispatcher, logger core.ILogger) *TradingBot {
	return &TradingBot{
		client:  client,
		rules:   cache,
		audit:   dispatcher,
		logger:  logger.WithField("component", "bot").WithField("exchange", client.GetName()),
		metrics: telemetry.GetGlobalMetrics(),
	}
}

// validateOrderRef checks the symbol/order-id pair locally so malformed
// cancel and query requests never reach the exchange.
func validateOrderRef(symbol string, orderID int64) error {
	if symbol == "" {
		return apperrors.NewValidationError(apperrors.ErrMissingField, "symbol")
	}
	if orderID <= 0 {
		return apperrors.NewValidationError(apperrors.ErrInvalidOrderID, "orderId")
	}
	return nil
}

// intentParams summarizes an intent as entered, before any
// normalization, so rejected attempts are reconstructable from the
// audit trail alone.
func intentParams(intent core.OrderIntent) map[string]string {
	p := map[string]string{
		"symbol":   intent.Symbol,
		"side":     string(intent.Side),
		"type":     string(intent.Type),
		"quantity": intent.Quantity.String(),
	}
	if !intent.Price.IsZero() {
		p["price"] = intent.Price.String()
	}
	if !intent.StopPrice.IsZero() {
		p["stopPrice"] = intent.StopPrice.String()
	}
	return p
}

// PlaceOrder validates the intent against the symbol's trading filters
// and submits it. Validation failures never reach the network; every
// attempt, including those, produces one audit event.
func (b *TradingBot) PlaceOrder(ctx context.Context, intent core.OrderIntent) (*core.OrderResult, error) {
	symbolRules, err := b.rules.Get(ctx, intent.Symbol)
	if err != nil {
		b.audit.Publish(audit.Event{
			Operation: "place_order",
			Symbol:    intent.Symbol,
			Params:    intentParams(intent),
			Outcome:   audit.OutcomeFailed,
			ErrorKind: apperrors.Kind(err),
			ErrorMsg:  err.Error(),
		})
		return nil, fmt.Errorf("failed to load rules for %s: %w", intent.Symbol, err)
	}

	req, err := order.Build(intent, symbolRules)
	if err != nil {
		b.metrics.RecordOrderRejected(ctx, intent.Symbol, apperrors.Kind(err))
		b.audit.Publish(audit.Event{
			Operation: "place_order",
			Symbol:    intent.Symbol,
			Params:    intentParams(intent),
			Outcome:   audit.OutcomeRejected,
			ErrorKind: apperrors.Kind(err),
			ErrorMsg:  err.Error(),
		})
		return nil, err
	}

	if req.ClientOrderID == "" {
		req.ClientOrderID = "bot-" + uuid.NewString()
	}

	result, err := b.client.SubmitOrder(ctx, req)
	if err != nil {
		b.metrics.RecordOrderFailed(ctx, intent.Symbol, apperrors.Kind(err))
		b.audit.Publish(audit.Event{
			Operation: "place_order",
			Symbol:    intent.Symbol,
			Params:    req.Params(),
			Outcome:   audit.OutcomeFailed,
			ErrorKind: apperrors.Kind(err),
			ErrorMsg:  err.Error(),
		})
		return nil, err
	}

	b.metrics.RecordOrderPlaced(ctx, intent.Symbol)
	b.audit.Publish(audit.Event{
		Operation: "place_order",
		Symbol:    intent.Symbol,
		Params:    req.Params(),
		Outcome:   audit.OutcomeOK,
		OrderID:   result.OrderID,
	})
	b.logger.Info("order placed",
		"symbol", result.Symbol,
		"side", string(result.Side),
		"type", string(result.Type),
		"quantity", result.OrigQuantity.String(),
		"order_id", result.OrderID)
	return result, nil
}

// CancelOrder cancels one order by exchange ID. The symbol/id pair is
// checked locally first; invalid arguments never produce a network call.
func (b *TradingBot) CancelOrder(ctx context.Context, symbol string, orderID int64) (*core.OrderResult, error) {
	if err := validateOrderRef(symbol, orderID); err != nil {
		b.audit.Publish(audit.Event{
			Operation: "cancel_order",
			Symbol:    symbol,
			OrderID:   orderID,
			Outcome:   audit.OutcomeRejected,
			ErrorKind: apperrors.Kind(err),
			ErrorMsg:  err.Error(),
		})
		return nil, err
	}

	b.metrics.RecordCancel(ctx, symbol)
	result, err := b.client.CancelOrder(ctx, symbol, orderID)
	if err != nil {
		b.audit.Publish(audit.Event{
			Operation: "cancel_order",
			Symbol:    symbol,
			OrderID:   orderID,
			Outcome:   audit.OutcomeFailed,
			ErrorKind: apperrors.Kind(err),
			ErrorMsg:  err.Error(),
		})
		return nil, err
	}

	b.audit.Publish(audit.Event{
		Operation: "cancel_order",
		Symbol:    symbol,
		OrderID:   orderID,
		Outcome:   audit.OutcomeOK,
	})
	return result, nil
}

// CancelAllOrders cancels every open order on the symbol
func (b *TradingBot) CancelAllOrders(ctx context.Context, symbol string) error {
	if symbol == "" {
		err := apperrors.NewValidationError(apperrors.ErrMissingField, "symbol")
		b.audit.Publish(audit.Event{
			Operation: "cancel_all_orders",
			Outcome:   audit.OutcomeRejected,
			ErrorKind: apperrors.Kind(err),
			ErrorMsg:  err.Error(),
		})
		return err
	}

	b.metrics.RecordCancel(ctx, symbol)
	err := b.client.CancelAllOrders(ctx, symbol)
	event := audit.Event{
		Operation: "cancel_all_orders",
		Symbol:    symbol,
		Outcome:   audit.OutcomeOK,
	}
	if err != nil {
		event.Outcome = audit.OutcomeFailed
		event.ErrorKind = apperrors.Kind(err)
		event.ErrorMsg = err.Error()
	}
	b.audit.Publish(event)
	return err
}

// GetOrderStatus fetches the current state of one order after checking
// the symbol/id pair locally
func (b *TradingBot) GetOrderStatus(ctx context.Context, symbol string, orderID int64) (*core.OrderResult, error) {
	if err := validateOrderRef(symbol, orderID); err != nil {
		return nil, err
	}
	return b.client.QueryOrder(ctx, symbol, orderID)
}

// GetOpenOrders lists resting orders on the symbol
func (b *TradingBot) GetOpenOrders(ctx context.Context, symbol string) ([]*core.OrderResult, error) {
	return b.client.ListOpenOrders(ctx, symbol)
}

// GetPositions returns open positions, all symbols when symbol is empty.
// Always fetched fresh.
func (b *TradingBot) GetPositions(ctx context.Context, symbol string) ([]core.Position, error) {
	return b.client.ListPositions(ctx, symbol)
}

// GetBalance returns the futures wallet balance for one asset
func (b *TradingBot) GetBalance(ctx context.Context, asset string) (core.Balance, error) {
	return b.client.GetBalance(ctx, asset)
}

// GetCurrentPrice returns the last traded price for the symbol
func (b *TradingBot) GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return b.client.GetTickerPrice(ctx, symbol)
}

// GetMarkPrice returns the mark price used for liquidation and funding
func (b *TradingBot) GetMarkPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return b.client.GetMarkPrice(ctx, symbol)
}

// GetSymbolRules exposes the cached trading filters for the symbol
func (b *TradingBot) GetSymbolRules(ctx context.Context, symbol string) (*core.SymbolRules, error) {
	return b.rules.Get(ctx, symbol)
}

// SetLeverage changes the leverage on the symbol after checking it
// against the exchange's published bracket for that symbol
func (b *TradingBot) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	symbolRules, err := b.rules.Get(ctx, symbol)
	if err != nil {
		return fmt.Errorf("failed to load rules for %s: %w", symbol, err)
	}

	if leverage < 1 || (symbolRules.MaxLeverage > 0 && leverage > symbolRules.MaxLeverage) {
		err := apperrors.NewValidationError(apperrors.ErrLeverageOutOfRange, "leverage")
		b.audit.Publish(audit.Event{
			Operation: "set_leverage",
			Symbol:    symbol,
			Params:    map[string]string{"leverage": fmt.Sprintf("%d", leverage)},
			Outcome:   audit.OutcomeRejected,
			ErrorKind: apperrors.Kind(err),
			ErrorMsg:  err.Error(),
		})
		return err
	}

	err = b.client.SetLeverage(ctx, symbol, leverage)
	event := audit.Event{
		Operation: "set_leverage",
		Symbol:    symbol,
		Params:    map[string]string{"leverage": fmt.Sprintf("%d", leverage)},
		Outcome:   audit.OutcomeOK,
	}
	if err != nil {
		event.Outcome = audit.OutcomeFailed
		event.ErrorKind = apperrors.Kind(err)
		event.ErrorMsg = err.Error()
	}
	b.audit.Publish(event)
	return err
}

// GetAccountOverview fetches the asset balance and open positions
// concurrently and returns them as one snapshot
func (b *TradingBot) GetAccountOverview(ctx context.Context, asset, symbol string) (*core.AccountOverview, error) {
	var overview core.AccountOverview

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		balance, err := b.client.GetBalance(gctx, asset)
		if err != nil {
			return fmt.Errorf("failed to fetch balance: %w", err)
		}
		overview.Balance = balance
		return nil
	})
	g.Go(func() error {
		positions, err := b.client.ListPositions(gctx, symbol)
		if err != nil {
			return fmt.Errorf("failed to fetch positions: %w", err)
		}
		overview.Positions = positions
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}

// Close drains the audit pipeline
func (b *TradingBot) Close() error {
	return b.audit.Close()
}
