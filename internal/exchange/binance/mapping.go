package binance

import (
	"errors"
	"fmt"

	"trading_bot/internal/core"
	apperrors "trading_bot/pkg/errors"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

// Binance API error codes that get a dedicated sentinel. Everything
// else surfaces as a generic order rejection with the code preserved.
const (
	codeTooManyRequests   = -1003
	codeInvalidSymbol     = -1121
	codeNewOrderRejected  = -2010
	codeUnknownOrder      = -2011
	codeNoSuchOrder       = -2013
	codeMarginInsufficent = -2019
)

// mapError translates an SDK error into the client's error taxonomy.
// API errors keep their code and message in the chain; anything that is
// not an API error is a transport failure.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", apperrors.ErrTransport, err)
	}

	var sentinel error
	switch apiErr.Code {
	case codeInvalidSymbol:
		sentinel = apperrors.ErrUnknownSymbol
	case codeUnknownOrder, codeNoSuchOrder:
		sentinel = apperrors.ErrOrderNotFound
	case codeMarginInsufficent:
		sentinel = apperrors.ErrInsufficientFunds
	case codeNewOrderRejected:
		// generic rejection, covers price bounds and reduce-only
		// violations as well as balance
		sentinel = apperrors.ErrOrderRejected
	case codeTooManyRequests:
		sentinel = apperrors.ErrRateLimitExceeded
	default:
		sentinel = apperrors.ErrOrderRejected
	}
	return fmt.Errorf("%w: binance code %d: %s", sentinel, apiErr.Code, apiErr.Message)
}

// parseSymbolFilters extracts the trading filters the order builder
// needs from one exchangeInfo symbol entry
func parseSymbolFilters(s *futures.Symbol) *core.SymbolRules {
	rules := &core.SymbolRules{Symbol: s.Symbol}

	if f := s.LotSizeFilter(); f != nil {
		rules.StepSize = parseDecimal(f.StepSize)
		rules.MinQty = parseDecimal(f.MinQuantity)
		rules.MaxQty = parseDecimal(f.MaxQuantity)
	}
	if f := s.PriceFilter(); f != nil {
		rules.TickSize = parseDecimal(f.TickSize)
	}
	if f := s.MinNotionalFilter(); f != nil {
		rules.MinNotional = parseDecimal(f.Notional)
	}
	return rules
}

// parseDecimal converts an API decimal string, empty or malformed
// values become zero
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
