// Package core defines the shared types and interfaces for the trading bot
package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide is the direction of an order
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderType is the execution style of an order. The values match the
// Binance Futures wire vocabulary; STOP is a stop-limit, STOP_MARKET a
// stop with market execution, and likewise for the take-profit pair.
type OrderType string

const (
	OrderTypeMarket           OrderType = "MARKET"
	OrderTypeLimit            OrderType = "LIMIT"
	OrderTypeStop             OrderType = "STOP"
	OrderTypeStopMarket       OrderType = "STOP_MARKET"
	OrderTypeTakeProfit       OrderType = "TAKE_PROFIT"
	OrderTypeTakeProfitMarket OrderType = "TAKE_PROFIT_MARKET"
)

// TimeInForce controls how long a resting order stays on the book
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceIOC TimeInForce = "IOC"
	TimeInForceFOK TimeInForce = "FOK"
	TimeInForceGTX TimeInForce = "GTX" // post only
)

// OrderStatus as reported by the exchange
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusExpired         OrderStatus = "EXPIRED"
)

// OrderIntent is the caller's high-level request before validation.
// Price and StopPrice are optional; a zero decimal means unset. RefPrice
// is an optional mark/reference price used only for the notional check of
// pure market orders; when unset that check is skipped.
type OrderIntent struct {
	Symbol      string
	Side        OrderSide
	Type        OrderType
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	StopPrice   decimal.Decimal
	TimeInForce TimeInForce
	ReduceOnly  bool
	RefPrice    decimal.Decimal
}

// SymbolRules holds the trading filters published by the exchange for one
// symbol. Immutable once fetched; shared read-only across calls.
type SymbolRules struct {
	Symbol      string
	TickSize    decimal.Decimal
	StepSize    decimal.Decimal
	MinQty      decimal.Decimal
	MaxQty      decimal.Decimal
	MinNotional decimal.Decimal
	MaxLeverage int
}

// OrderRequest is a normalized, exchange-acceptable order payload.
// Quantity and prices are already aligned to the symbol's step and tick
// sizes. Built fresh per call, never shared across operations.
type OrderRequest struct {
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Quantity      decimal.Decimal
	Price         decimal.Decimal // zero when the wire type carries no limit price
	StopPrice     decimal.Decimal
	TimeInForce   TimeInForce // empty for market-style types
	ReduceOnly    bool
	ClientOrderID string
}

// Params renders the request as the key/value payload the exchange
// expects. Unset optional fields are omitted, never sent as zeroes.
func (r *OrderRequest) Params() map[string]string {
	p := map[string]string{
		"symbol":   r.Symbol,
		"side":     string(r.Side),
		"type":     string(r.Type),
		"quantity": r.Quantity.String(),
	}
	if !r.Price.IsZero() {
		p["price"] = r.Price.String()
	}
	if !r.StopPrice.IsZero() {
		p["stopPrice"] = r.StopPrice.String()
	}
	if r.TimeInForce != "" {
		p["timeInForce"] = string(r.TimeInForce)
	}
	if r.ReduceOnly {
		p["reduceOnly"] = "true"
	}
	if r.ClientOrderID != "" {
		p["newClientOrderId"] = r.ClientOrderID
	}
	return p
}

// OrderResult is the typed projection of the exchange's order response
type OrderResult struct {
	OrderID       int64
	ClientOrderID string
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Status        OrderStatus
	Price         decimal.Decimal
	StopPrice     decimal.Decimal
	OrigQuantity  decimal.Decimal
	ExecutedQty   decimal.Decimal
	AvgPrice      decimal.Decimal
	TimeInForce   TimeInForce
	ReduceOnly    bool
	UpdateTime    time.Time
}

// Position is a read-only snapshot of one open position. Always
// re-fetched; staleness is unacceptable for trading decisions.
type Position struct {
	Symbol           string
	Size             decimal.Decimal // signed: positive long, negative short
	EntryPrice       decimal.Decimal
	MarkPrice        decimal.Decimal
	UnrealizedPnL    decimal.Decimal
	LiquidationPrice decimal.Decimal
	Leverage         int
	MarginType       string
	PositionSide     string
}

// Balance is a read-only snapshot of one asset's futures wallet balance
type Balance struct {
	Asset            string
	Balance          decimal.Decimal
	Available        decimal.Decimal
	CrossWalletTotal decimal.Decimal
}

// AccountOverview bundles the balance and open positions fetched together
type AccountOverview struct {
	Balance   Balance
	Positions []Position
}
