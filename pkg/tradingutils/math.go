package tradingutils

import (
	"github.com/shopspring/decimal"
)

// FloorToStep rounds qty down to the nearest multiple of step. Flooring,
// never rounding up, guarantees the adjusted order is not larger than the
// caller asked for. A non-positive step returns qty unchanged.
func FloorToStep(qty, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return qty
	}
	return qty.Div(step).Floor().Mul(step)
}

// RoundToTick rounds price to the nearest multiple of tick, ties away
// from zero. A non-positive tick returns price unchanged.
func RoundToTick(price, tick decimal.Decimal) decimal.Decimal {
	if tick.Sign() <= 0 {
		return price
	}
	return price.Div(tick).Round(0).Mul(tick)
}

// Notional computes quantity * price, the order's nominal value
func Notional(qty, price decimal.Decimal) decimal.Decimal {
	return qty.Mul(price)
}

// IsAligned reports whether v is an exact multiple of unit
func IsAligned(v, unit decimal.Decimal) bool {
	if unit.Sign() <= 0 {
		return true
	}
	return v.Mod(unit).IsZero()
}
