// Package binance adapts the Binance USD-M futures REST API to the
// core.ExchangeClient interface. All requests pass through a shared
// rate limiter and a circuit breaker; nothing here retries.
package binance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"trading_bot/internal/core"
	apperrors "trading_bot/pkg/errors"
	"trading_bot/pkg/telemetry"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Config holds the connection settings for one client
type Config struct {
	APIKey    string
	SecretKey string
	Testnet   bool
	// RequestsPerSecond caps the outbound request rate; Binance allows
	// 2400 weight/min, we stay far below it.
	RequestsPerSecond float64
	Burst             int
}

// Client is the futures REST adapter
type Client struct {
	client   *futures.Client
	limiter  *rate.Limiter
	breaker  circuitbreaker.CircuitBreaker[any]
	pipeline failsafe.Executor[any]
	logger   core.ILogger
	metrics  *telemetry.MetricsHolder
}

// NewClient creates a client. With cfg.Testnet set, all traffic goes to
// the Binance futures testnet.
func NewClient(cfg Config, logger core.ILogger) (*Client, error) {
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("binance credentials are not configured")
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}

	futures.UseTestnet = cfg.Testnet

	breaker := circuitbreaker.NewBuilder[any]().
		HandleIf(func(_ any, err error) bool {
			// only connectivity problems open the circuit; business
			// rejections pass through untouched
			return apperrors.Kind(err) == "transport" || apperrors.Kind(err) == "rate_limit_exceeded"
		}).
		WithFailureThresholdRatio(5, 10).
		WithDelay(10 * time.Second).
		Build()

	return &Client{
		client:   futures.NewClient(cfg.APIKey, cfg.SecretKey),
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker:  breaker,
		pipeline: failsafe.With[any](breaker),
		logger:   logger.WithField("component", "binance_client"),
		metrics:  telemetry.GetGlobalMetrics(),
	}, nil
}

// execute runs one API call through the limiter and the breaker,
// mapping SDK errors into the client's error taxonomy
func execute[T any](ctx context.Context, c *Client, endpoint string, call func() (T, error)) (T, error) {
	var zero T
	if err := c.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("%w: rate limiter: %v", apperrors.ErrTransport, err)
	}

	start := time.Now().UTC()
	out, err := c.pipeline.Get(func() (any, error) {
		result, callErr := call()
		if callErr != nil {
			return nil, mapError(callErr)
		}
		return result, nil
	})
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	c.metrics.RecordExchangeLatency(ctx, endpoint, elapsed)
	c.logger.Debug("api call", "endpoint", endpoint, "elapsed_ms", elapsed, "error", apperrors.Kind(err))

	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return zero, fmt.Errorf("%w: circuit open for %s", apperrors.ErrTransport, endpoint)
		}
		return zero, err
	}
	return out.(T), nil
}

func (c *Client) GetName() string { return "binance" }

func (c *Client) Ping(ctx context.Context) error {
	_, err := execute(ctx, c, "ping", func() (struct{}, error) {
		return struct{}{}, c.client.NewPingService().Do(ctx)
	})
	return err
}

// FetchSymbolRules reads the symbol's filters from exchangeInfo and its
// maximum leverage from the first leverage bracket. A bracket lookup
// failure is tolerated; leverage validation is then skipped upstream.
func (c *Client) FetchSymbolRules(ctx context.Context, symbol string) (*core.SymbolRules, error) {
	info, err := execute(ctx, c, "exchange_info", func() (*futures.ExchangeInfo, error) {
		return c.client.NewExchangeInfoService().Do(ctx)
	})
	if err != nil {
		return nil, err
	}

	for i := range info.Symbols {
		s := &info.Symbols[i]
		if s.Symbol != symbol {
			continue
		}
		rules := parseSymbolFilters(s)
		rules.MaxLeverage = c.fetchMaxLeverage(ctx, symbol)
		return rules, nil
	}
	return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownSymbol, symbol)
}

func (c *Client) fetchMaxLeverage(ctx context.Context, symbol string) int {
	brackets, err := execute(ctx, c, "leverage_bracket", func() ([]*futures.LeverageBracket, error) {
		return c.client.NewGetLeverageBracketService().Symbol(symbol).Do(ctx)
	})
	if err != nil {
		c.logger.Warn("leverage bracket lookup failed", "symbol", symbol, "error", err.Error())
		return 0
	}
	for _, b := range brackets {
		if b.Symbol == symbol && len(b.Brackets) > 0 {
			return b.Brackets[0].InitialLeverage
		}
	}
	return 0
}

func (c *Client) SubmitOrder(ctx context.Context, req *core.OrderRequest) (*core.OrderResult, error) {
	svc := c.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(futures.SideType(req.Side)).
		Type(futures.OrderType(req.Type)).
		Quantity(req.Quantity.String())

	if req.TimeInForce != "" {
		svc = svc.TimeInForce(futures.TimeInForceType(req.TimeInForce))
	}
	if !req.Price.IsZero() {
		svc = svc.Price(req.Price.String())
	}
	if !req.StopPrice.IsZero() {
		svc = svc.StopPrice(req.StopPrice.String())
	}
	if req.ReduceOnly {
		svc = svc.ReduceOnly(true)
	}
	if req.ClientOrderID != "" {
		svc = svc.NewClientOrderID(req.ClientOrderID)
	}

	resp, err := execute(ctx, c, "create_order", func() (*futures.CreateOrderResponse, error) {
		return svc.Do(ctx)
	})
	if err != nil {
		return nil, err
	}

	return &core.OrderResult{
		OrderID:       resp.OrderID,
		ClientOrderID: resp.ClientOrderID,
		Symbol:        resp.Symbol,
		Side:          core.OrderSide(resp.Side),
		Type:          core.OrderType(resp.Type),
		Status:        core.OrderStatus(resp.Status),
		Price:         parseDecimal(resp.Price),
		StopPrice:     parseDecimal(resp.StopPrice),
		OrigQuantity:  parseDecimal(resp.OrigQuantity),
		ExecutedQty:   parseDecimal(resp.ExecutedQuantity),
		AvgPrice:      parseDecimal(resp.AvgPrice),
		TimeInForce:   core.TimeInForce(resp.TimeInForce),
		ReduceOnly:    resp.ReduceOnly,
		UpdateTime:    time.UnixMilli(resp.UpdateTime),
	}, nil
}

func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID int64) (*core.OrderResult, error) {
	resp, err := execute(ctx, c, "cancel_order", func() (*futures.CancelOrderResponse, error) {
		return c.client.NewCancelOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
	})
	if err != nil {
		return nil, err
	}

	return &core.OrderResult{
		OrderID:       resp.OrderID,
		ClientOrderID: resp.ClientOrderID,
		Symbol:        resp.Symbol,
		Side:          core.OrderSide(resp.Side),
		Type:          core.OrderType(resp.Type),
		Status:        core.OrderStatus(resp.Status),
		Price:         parseDecimal(resp.Price),
		StopPrice:     parseDecimal(resp.StopPrice),
		OrigQuantity:  parseDecimal(resp.OrigQuantity),
		ExecutedQty:   parseDecimal(resp.ExecutedQuantity),
		TimeInForce:   core.TimeInForce(resp.TimeInForce),
		ReduceOnly:    resp.ReduceOnly,
	}, nil
}

func (c *Client) CancelAllOrders(ctx context.Context, symbol string) error {
	_, err := execute(ctx, c, "cancel_all_orders", func() (struct{}, error) {
		return struct{}{}, c.client.NewCancelAllOpenOrdersService().Symbol(symbol).Do(ctx)
	})
	return err
}

func (c *Client) QueryOrder(ctx context.Context, symbol string, orderID int64) (*core.OrderResult, error) {
	o, err := execute(ctx, c, "get_order", func() (*futures.Order, error) {
		return c.client.NewGetOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
	})
	if err != nil {
		return nil, err
	}
	return convertOrder(o), nil
}

func (c *Client) ListOpenOrders(ctx context.Context, symbol string) ([]*core.OrderResult, error) {
	orders, err := execute(ctx, c, "open_orders", func() ([]*futures.Order, error) {
		return c.client.NewListOpenOrdersService().Symbol(symbol).Do(ctx)
	})
	if err != nil {
		return nil, err
	}

	result := make([]*core.OrderResult, 0, len(orders))
	for _, o := range orders {
		result = append(result, convertOrder(o))
	}
	return result, nil
}

// ListPositions uses the position risk endpoint; unlike the account
// snapshot it carries mark price, liquidation price and real leverage
func (c *Client) ListPositions(ctx context.Context, symbol string) ([]core.Position, error) {
	svc := c.client.NewGetPositionRiskService()
	if symbol != "" {
		svc = svc.Symbol(symbol)
	}
	risks, err := execute(ctx, c, "position_risk", func() ([]*futures.PositionRisk, error) {
		return svc.Do(ctx)
	})
	if err != nil {
		return nil, err
	}

	result := make([]core.Position, 0, len(risks))
	for _, p := range risks {
		size := parseDecimal(p.PositionAmt)
		if size.IsZero() {
			continue
		}
		leverage, _ := strconv.Atoi(p.Leverage)
		result = append(result, core.Position{
			Symbol:           p.Symbol,
			Size:             size,
			EntryPrice:       parseDecimal(p.EntryPrice),
			MarkPrice:        parseDecimal(p.MarkPrice),
			UnrealizedPnL:    parseDecimal(p.UnRealizedProfit),
			LiquidationPrice: parseDecimal(p.LiquidationPrice),
			Leverage:         leverage,
			MarginType:       p.MarginType,
			PositionSide:     p.PositionSide,
		})
	}
	return result, nil
}

func (c *Client) GetBalance(ctx context.Context, asset string) (core.Balance, error) {
	balances, err := execute(ctx, c, "balance", func() ([]*futures.Balance, error) {
		return c.client.NewGetBalanceService().Do(ctx)
	})
	if err != nil {
		return core.Balance{}, err
	}

	for _, b := range balances {
		if b.Asset == asset {
			return core.Balance{
				Asset:            b.Asset,
				Balance:          parseDecimal(b.Balance),
				Available:        parseDecimal(b.AvailableBalance),
				CrossWalletTotal: parseDecimal(b.CrossWalletBalance),
			}, nil
		}
	}
	return core.Balance{Asset: asset}, nil
}

func (c *Client) GetMarkPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	indexes, err := execute(ctx, c, "premium_index", func() ([]*futures.PremiumIndex, error) {
		return c.client.NewPremiumIndexService().Symbol(symbol).Do(ctx)
	})
	if err != nil {
		return decimal.Zero, err
	}
	for _, idx := range indexes {
		if idx.Symbol == symbol {
			return parseDecimal(idx.MarkPrice), nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrUnknownSymbol, symbol)
}

func (c *Client) GetTickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	prices, err := execute(ctx, c, "ticker_price", func() ([]*futures.SymbolPrice, error) {
		return c.client.NewListPricesService().Symbol(symbol).Do(ctx)
	})
	if err != nil {
		return decimal.Zero, err
	}
	for _, p := range prices {
		if p.Symbol == symbol {
			return parseDecimal(p.Price), nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrUnknownSymbol, symbol)
}

func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	_, err := execute(ctx, c, "change_leverage", func() (*futures.SymbolLeverage, error) {
		return c.client.NewChangeLeverageService().Symbol(symbol).Leverage(leverage).Do(ctx)
	})
	return err
}

func convertOrder(o *futures.Order) *core.OrderResult {
	return &core.OrderResult{
		OrderID:       o.OrderID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          core.OrderSide(o.Side),
		Type:          core.OrderType(o.Type),
		Status:        core.OrderStatus(o.Status),
		Price:         parseDecimal(o.Price),
		StopPrice:     parseDecimal(o.StopPrice),
		OrigQuantity:  parseDecimal(o.OrigQuantity),
		ExecutedQty:   parseDecimal(o.ExecutedQuantity),
		AvgPrice:      parseDecimal(o.AvgPrice),
		TimeInForce:   core.TimeInForce(o.TimeInForce),
		ReduceOnly:    o.ReduceOnly,
		UpdateTime:    time.UnixMilli(o.UpdateTime),
	}
}
