// Package audit records every order-mutating attempt the bot makes,
// successful or not, to sinks that can never block or fail trading.
package audit

import "time"

// Outcome classifies how an attempt ended
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeRejected Outcome = "rejected" // failed local validation
	OutcomeFailed   Outcome = "failed"   // exchange or transport error
)

// Event is one audited attempt. Params carries the outbound payload
// exactly as it would be sent, keyed by wire field name.
type Event struct {
	Time      time.Time         `json:"time"`
	Operation string            `json:"operation"`
	Symbol    string            `json:"symbol,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
	Outcome   Outcome           `json:"outcome"`
	ErrorKind string            `json:"error_kind,omitempty"`
	ErrorMsg  string            `json:"error_msg,omitempty"`
	OrderID   int64             `json:"order_id,omitempty"`
}

// Sink receives audit events. Implementations must be safe for
// concurrent use; they may fail, and the dispatcher absorbs that.
type Sink interface {
	Record(event Event) error
	Close() error
}
