package audit

import (
	"trading_bot/internal/core"
)

// LogSink writes audit events to the structured log. Failures log at
// warn or error so a grep for the symbol reconstructs the attempt.
type LogSink struct {
	logger core.ILogger
}

// NewLogSink creates a sink over the given logger
func NewLogSink(logger core.ILogger) *LogSink {
	return &LogSink{logger: logger.WithField("component", "audit")}
}

// Record logs one event, level chosen by outcome
func (s *LogSink) Record(event Event) error {
	fields := []interface{}{
		"operation", event.Operation,
		"outcome", string(event.Outcome),
	}
	if event.Symbol != "" {
		fields = append(fields, "symbol", event.Symbol)
	}
	if event.OrderID != 0 {
		fields = append(fields, "order_id", event.OrderID)
	}
	for k, v := range event.Params {
		fields = append(fields, "param_"+k, v)
	}

	switch event.Outcome {
	case OutcomeOK:
		s.logger.Info("order audit", fields...)
	case OutcomeRejected:
		fields = append(fields, "error_kind", event.ErrorKind, "error", event.ErrorMsg)
		s.logger.Warn("order audit", fields...)
	default:
		fields = append(fields, "error_kind", event.ErrorKind, "error", event.ErrorMsg)
		s.logger.Error("order audit", fields...)
	}
	return nil
}

// Close is a no-op; the logger's lifecycle belongs to the caller
func (s *LogSink) Close() error { return nil }
