package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// ExchangeClient is the authenticated transport to the exchange. All
// methods block on network I/O and honor context cancellation. The core
// treats every method as already signed; it never retries a failure.
type ExchangeClient interface {
	GetName() string
	Ping(ctx context.Context) error

	FetchSymbolRules(ctx context.Context, symbol string) (*SymbolRules, error)
	SubmitOrder(ctx context.Context, req *OrderRequest) (*OrderResult, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) (*OrderResult, error)
	CancelAllOrders(ctx context.Context, symbol string) error
	QueryOrder(ctx context.Context, symbol string, orderID int64) (*OrderResult, error)
	ListOpenOrders(ctx context.Context, symbol string) ([]*OrderResult, error)
	ListPositions(ctx context.Context, symbol string) ([]Position, error)
	GetBalance(ctx context.Context, asset string) (Balance, error)
	GetMarkPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	GetTickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) error
}

// ILogger defines the interface for logging
type ILogger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})
	WithField(key string, value interface{}) ILogger
	WithFields(fields map[string]interface{}) ILogger
}
