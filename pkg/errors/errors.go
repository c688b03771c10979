package apperrors

import (
	"errors"
	"fmt"
)

// Validation errors. Raised locally, before any network call, and always
// recoverable by correcting the input.
var (
	ErrMissingField       = errors.New("missing required field")
	ErrQuantityTooSmall   = errors.New("quantity too small")
	ErrQuantityTooLarge   = errors.New("quantity too large")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrInvalidOrderID     = errors.New("invalid order id")
	ErrNotionalTooSmall   = errors.New("notional too small")
	ErrLeverageOutOfRange = errors.New("leverage out of range")
)

// Exchange errors. Surfaced from the exchange with detail preserved.
var (
	ErrUnknownSymbol     = errors.New("unknown symbol")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrOrderRejected     = errors.New("order rejected")
)

// ErrTransport covers network and connectivity failures, plus responses
// whose shape the client cannot interpret. Never retried automatically.
var ErrTransport = errors.New("transport error")

// ValidationError attaches the offending field to a validation sentinel.
// Matchable with errors.Is against the sentinel it wraps.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Field)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps a validation sentinel with a field name.
func NewValidationError(sentinel error, field string) error {
	return &ValidationError{Field: field, Err: sentinel}
}

// Kind returns a stable snake_case label for err, for audit records and
// metrics. Unrecognized errors report as "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrQuantityTooSmall):
		return "quantity_too_small"
	case errors.Is(err, ErrQuantityTooLarge):
		return "quantity_too_large"
	case errors.Is(err, ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, ErrInvalidOrderID):
		return "invalid_order_id"
	case errors.Is(err, ErrNotionalTooSmall):
		return "notional_too_small"
	case errors.Is(err, ErrLeverageOutOfRange):
		return "leverage_out_of_range"
	case errors.Is(err, ErrUnknownSymbol):
		return "unknown_symbol"
	case errors.Is(err, ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrRateLimitExceeded):
		return "rate_limit_exceeded"
	case errors.Is(err, ErrOrderRejected):
		return "order_rejected"
	case errors.Is(err, ErrTransport):
		return "transport"
	}
	return "internal"
}

// IsValidation reports whether err belongs to the validation taxonomy.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrQuantityTooSmall) ||
		errors.Is(err, ErrQuantityTooLarge) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidOrderID) ||
		errors.Is(err, ErrNotionalTooSmall) ||
		errors.Is(err, ErrLeverageOutOfRange)
}
