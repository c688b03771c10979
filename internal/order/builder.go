// Package order builds normalized, exchange-acceptable order requests
// from trading intents and symbol filters. Everything here is offline:
// no network access, no mutation of the shared SymbolRules.
package order

import (
	"trading_bot/internal/core"
	apperrors "trading_bot/pkg/errors"
	"trading_bot/pkg/tradingutils"
)

// Build turns an intent plus the symbol's trading filters into a wire
// payload, or fails with a validation error before any network call.
//
// Quantity is floored to the step size so the adjusted order never
// exceeds what the caller asked for. Prices are rounded to the nearest
// tick, ties away from zero. A take-profit intent without a limit price
// degrades to the market-variant wire type; a stop-limit without one is
// rejected. The notional check is skipped for a pure market order with
// no reference price; callers wanting that check supply RefPrice.
func Build(intent core.OrderIntent, rules *core.SymbolRules) (*core.OrderRequest, error) {
	if intent.Symbol == "" {
		return nil, apperrors.NewValidationError(apperrors.ErrMissingField, "symbol")
	}
	if intent.Side != core.SideBuy && intent.Side != core.SideSell {
		return nil, apperrors.NewValidationError(apperrors.ErrMissingField, "side")
	}
	if intent.Quantity.Sign() <= 0 {
		return nil, apperrors.NewValidationError(apperrors.ErrQuantityTooSmall, "quantity")
	}
	if intent.Price.Sign() < 0 {
		return nil, apperrors.NewValidationError(apperrors.ErrInvalidPrice, "price")
	}
	if intent.StopPrice.Sign() < 0 {
		return nil, apperrors.NewValidationError(apperrors.ErrInvalidPrice, "stopPrice")
	}

	wireType, err := resolveWireType(intent)
	if err != nil {
		return nil, err
	}

	qty := tradingutils.FloorToStep(intent.Quantity, rules.StepSize)
	if qty.IsZero() || qty.LessThan(rules.MinQty) {
		return nil, apperrors.NewValidationError(apperrors.ErrQuantityTooSmall, "quantity")
	}
	if rules.MaxQty.Sign() > 0 && qty.GreaterThan(rules.MaxQty) {
		return nil, apperrors.NewValidationError(apperrors.ErrQuantityTooLarge, "quantity")
	}

	req := &core.OrderRequest{
		Symbol:     intent.Symbol,
		Side:       intent.Side,
		Type:       wireType,
		Quantity:   qty,
		ReduceOnly: intent.ReduceOnly,
	}

	if carriesLimitPrice(wireType) {
		price := tradingutils.RoundToTick(intent.Price, rules.TickSize)
		if price.Sign() <= 0 {
			return nil, apperrors.NewValidationError(apperrors.ErrInvalidPrice, "price")
		}
		req.Price = price

		req.TimeInForce = intent.TimeInForce
		if req.TimeInForce == "" {
			req.TimeInForce = core.TimeInForceGTC
		}
	}

	if carriesStopPrice(wireType) {
		stop := tradingutils.RoundToTick(intent.StopPrice, rules.TickSize)
		if stop.Sign() <= 0 {
			return nil, apperrors.NewValidationError(apperrors.ErrInvalidPrice, "stopPrice")
		}
		req.StopPrice = stop
	}

	ref := req.Price
	if ref.IsZero() {
		ref = intent.RefPrice
	}
	if ref.Sign() > 0 && rules.MinNotional.Sign() > 0 {
		if tradingutils.Notional(qty, ref).LessThan(rules.MinNotional) {
			return nil, apperrors.NewValidationError(apperrors.ErrNotionalTooSmall, "notional")
		}
	}

	return req, nil
}

// resolveWireType checks type-specific field completeness and maps the
// intent's type to the wire vocabulary the exchange expects.
func resolveWireType(intent core.OrderIntent) (core.OrderType, error) {
	hasPrice := intent.Price.Sign() > 0
	hasStop := intent.StopPrice.Sign() > 0

	switch intent.Type {
	case core.OrderTypeMarket:
		return core.OrderTypeMarket, nil

	case core.OrderTypeLimit:
		if !hasPrice {
			return "", apperrors.NewValidationError(apperrors.ErrMissingField, "price")
		}
		return core.OrderTypeLimit, nil

	case core.OrderTypeStop:
		if !hasPrice {
			return "", apperrors.NewValidationError(apperrors.ErrMissingField, "price")
		}
		if !hasStop {
			return "", apperrors.NewValidationError(apperrors.ErrMissingField, "stopPrice")
		}
		return core.OrderTypeStop, nil

	case core.OrderTypeStopMarket:
		if !hasStop {
			return "", apperrors.NewValidationError(apperrors.ErrMissingField, "stopPrice")
		}
		return core.OrderTypeStopMarket, nil

	case core.OrderTypeTakeProfit:
		if !hasStop {
			return "", apperrors.NewValidationError(apperrors.ErrMissingField, "stopPrice")
		}
		if !hasPrice {
			// limit leg omitted: trigger executes at market
			return core.OrderTypeTakeProfitMarket, nil
		}
		return core.OrderTypeTakeProfit, nil

	case core.OrderTypeTakeProfitMarket:
		if !hasStop {
			return "", apperrors.NewValidationError(apperrors.ErrMissingField, "stopPrice")
		}
		return core.OrderTypeTakeProfitMarket, nil
	}

	return "", apperrors.NewValidationError(apperrors.ErrMissingField, "type")
}

func carriesLimitPrice(t core.OrderType) bool {
	switch t {
	case core.OrderTypeLimit, core.OrderTypeStop, core.OrderTypeTakeProfit:
		return true
	}
	return false
}

func carriesStopPrice(t core.OrderType) bool {
	switch t {
	case core.OrderTypeStop, core.OrderTypeStopMarket,
		core.OrderTypeTakeProfit, core.OrderTypeTakeProfitMarket:
		return true
	}
	return false
}
