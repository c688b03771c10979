// Package mock provides an in-memory exchange for tests and dry runs
package mock

import (
	"context"
	"sync"

	"trading_bot/internal/core"
	apperrors "trading_bot/pkg/errors"

	"github.com/shopspring/decimal"
)

// Exchange is an in-memory core.ExchangeClient. It records every
// submitted request, assigns sequential order IDs, and reports orders
// as immediately accepted. Error injection per method lets tests drive
// failure paths.
type Exchange struct {
	mu          sync.Mutex
	name        string
	rules       map[string]*core.SymbolRules
	orders      map[int64]*core.OrderResult
	submissions []*core.OrderRequest
	nextID      int64
	markPrices  map[string]decimal.Decimal
	balances    map[string]core.Balance
	positions   map[string][]core.Position
	leverage    map[string]int

	// set to force the next matching call to fail
	SubmitErr   error
	CancelErr   error
	QueryErr    error
	LeverageErr error
	FetchErr    error
}

// NewExchange creates an empty mock exchange
func NewExchange(name string) *Exchange {
	return &Exchange{
		name:       name,
		rules:      make(map[string]*core.SymbolRules),
		orders:     make(map[int64]*core.OrderResult),
		markPrices: make(map[string]decimal.Decimal),
		balances:   make(map[string]core.Balance),
		positions:  make(map[string][]core.Position),
		leverage:   make(map[string]int),
		nextID:     1000,
	}
}

// SetRules registers trading filters for a symbol
func (e *Exchange) SetRules(rules *core.SymbolRules) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules[rules.Symbol] = rules
}

// SetMarkPrice sets the mark price returned for a symbol
func (e *Exchange) SetMarkPrice(symbol string, price decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.markPrices[symbol] = price
}

// SetBalance sets the balance returned for an asset
func (e *Exchange) SetBalance(b core.Balance) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.balances[b.Asset] = b
}

// SetPositions sets the open positions returned for a symbol
func (e *Exchange) SetPositions(symbol string, positions []core.Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.positions[symbol] = positions
}

// Submissions returns every order request seen so far
func (e *Exchange) Submissions() []*core.OrderRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*core.OrderRequest, len(e.submissions))
	copy(out, e.submissions)
	return out
}

// Leverage returns the last leverage set for a symbol
func (e *Exchange) Leverage(symbol string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leverage[symbol]
}

func (e *Exchange) GetName() string { return e.name }

func (e *Exchange) Ping(ctx context.Context) error { return nil }

func (e *Exchange) FetchSymbolRules(ctx context.Context, symbol string) (*core.SymbolRules, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FetchErr != nil {
		err := e.FetchErr
		e.FetchErr = nil
		return nil, err
	}
	r, ok := e.rules[symbol]
	if !ok {
		return nil, apperrors.ErrUnknownSymbol
	}
	return r, nil
}

func (e *Exchange) SubmitOrder(ctx context.Context, req *core.OrderRequest) (*core.OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.submissions = append(e.submissions, req)
	if e.SubmitErr != nil {
		err := e.SubmitErr
		e.SubmitErr = nil
		return nil, err
	}

	e.nextID++
	result := &core.OrderResult{
		OrderID:       e.nextID,
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Status:        core.OrderStatusNew,
		Price:         req.Price,
		StopPrice:     req.StopPrice,
		OrigQuantity:  req.Quantity,
		TimeInForce:   req.TimeInForce,
		ReduceOnly:    req.ReduceOnly,
	}
	e.orders[result.OrderID] = result
	return result, nil
}

func (e *Exchange) CancelOrder(ctx context.Context, symbol string, orderID int64) (*core.OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.CancelErr != nil {
		err := e.CancelErr
		e.CancelErr = nil
		return nil, err
	}
	order, ok := e.orders[orderID]
	if !ok || order.Symbol != symbol {
		return nil, apperrors.ErrOrderNotFound
	}
	order.Status = core.OrderStatusCanceled
	return order, nil
}

func (e *Exchange) CancelAllOrders(ctx context.Context, symbol string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.CancelErr != nil {
		err := e.CancelErr
		e.CancelErr = nil
		return err
	}
	for _, order := range e.orders {
		if order.Symbol == symbol && order.Status == core.OrderStatusNew {
			order.Status = core.OrderStatusCanceled
		}
	}
	return nil
}

func (e *Exchange) QueryOrder(ctx context.Context, symbol string, orderID int64) (*core.OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.QueryErr != nil {
		err := e.QueryErr
		e.QueryErr = nil
		return nil, err
	}
	order, ok := e.orders[orderID]
	if !ok || order.Symbol != symbol {
		return nil, apperrors.ErrOrderNotFound
	}
	return order, nil
}

func (e *Exchange) ListOpenOrders(ctx context.Context, symbol string) ([]*core.OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var open []*core.OrderResult
	for _, order := range e.orders {
		if order.Symbol == symbol && order.Status == core.OrderStatusNew {
			open = append(open, order)
		}
	}
	return open, nil
}

func (e *Exchange) ListPositions(ctx context.Context, symbol string) ([]core.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if symbol != "" {
		return e.positions[symbol], nil
	}
	var all []core.Position
	for _, ps := range e.positions {
		all = append(all, ps...)
	}
	return all, nil
}

func (e *Exchange) GetBalance(ctx context.Context, asset string) (core.Balance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.balances[asset]
	if !ok {
		return core.Balance{Asset: asset}, nil
	}
	return b, nil
}

func (e *Exchange) GetMarkPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	price, ok := e.markPrices[symbol]
	if !ok {
		return decimal.Zero, apperrors.ErrUnknownSymbol
	}
	return price, nil
}

func (e *Exchange) GetTickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return e.GetMarkPrice(ctx, symbol)
}

func (e *Exchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.LeverageErr != nil {
		err := e.LeverageErr
		e.LeverageErr = nil
		return err
	}
	e.leverage[symbol] = leverage
	return nil
}
