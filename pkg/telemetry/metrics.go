// Package telemetry exposes the bot's operational metrics through
// OpenTelemetry with a Prometheus exporter.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names
const (
	MetricOrdersPlacedTotal   = "trading_bot_orders_placed_total"
	MetricOrdersRejectedTotal = "trading_bot_orders_rejected_total"
	MetricOrdersFailedTotal   = "trading_bot_orders_failed_total"
	MetricCancelsTotal        = "trading_bot_cancels_total"
	MetricAuditDroppedTotal   = "trading_bot_audit_dropped_total"
	MetricLatencyExchange     = "trading_bot_latency_exchange_ms"
)

// MetricsHolder holds initialized instruments
type MetricsHolder struct {
	OrdersPlacedTotal   metric.Int64Counter
	OrdersRejectedTotal metric.Int64Counter
	OrdersFailedTotal   metric.Int64Counter
	CancelsTotal        metric.Int64Counter
	AuditDroppedTotal   metric.Int64Counter
	LatencyExchange     metric.Float64Histogram
}

var (
	globalMetrics *MetricsHolder
	initOnce      sync.Once
)

// GetGlobalMetrics returns the singleton metrics holder. Before
// InitMetrics runs, its instruments are nil and the Record helpers
// are no-ops.
func GetGlobalMetrics() *MetricsHolder {
	initOnce.Do(func() {
		globalMetrics = &MetricsHolder{}
	})
	return globalMetrics
}

// InitMetrics creates the instruments on the given meter
func (h *MetricsHolder) InitMetrics(meter metric.Meter) error {
	var err error

	if h.OrdersPlacedTotal, err = meter.Int64Counter(MetricOrdersPlacedTotal,
		metric.WithDescription("Orders accepted by the exchange")); err != nil {
		return err
	}
	if h.OrdersRejectedTotal, err = meter.Int64Counter(MetricOrdersRejectedTotal,
		metric.WithDescription("Orders rejected by local validation")); err != nil {
		return err
	}
	if h.OrdersFailedTotal, err = meter.Int64Counter(MetricOrdersFailedTotal,
		metric.WithDescription("Orders that failed at the exchange")); err != nil {
		return err
	}
	if h.CancelsTotal, err = meter.Int64Counter(MetricCancelsTotal,
		metric.WithDescription("Cancel requests issued")); err != nil {
		return err
	}
	if h.AuditDroppedTotal, err = meter.Int64Counter(MetricAuditDroppedTotal,
		metric.WithDescription("Audit events lost to full queues or sink failures")); err != nil {
		return err
	}
	if h.LatencyExchange, err = meter.Float64Histogram(MetricLatencyExchange,
		metric.WithDescription("Round-trip latency of exchange calls in milliseconds")); err != nil {
		return err
	}
	return nil
}

// RecordOrderPlaced counts one accepted order
func (h *MetricsHolder) RecordOrderPlaced(ctx context.Context, symbol string) {
	if h.OrdersPlacedTotal == nil {
		return
	}
	h.OrdersPlacedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("symbol", symbol)))
}

// RecordOrderRejected counts one locally rejected order
func (h *MetricsHolder) RecordOrderRejected(ctx context.Context, symbol, kind string) {
	if h.OrdersRejectedTotal == nil {
		return
	}
	h.OrdersRejectedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("symbol", symbol),
		attribute.String("kind", kind),
	))
}

// RecordOrderFailed counts one order the exchange refused
func (h *MetricsHolder) RecordOrderFailed(ctx context.Context, symbol, kind string) {
	if h.OrdersFailedTotal == nil {
		return
	}
	h.OrdersFailedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("symbol", symbol),
		attribute.String("kind", kind),
	))
}

// RecordCancel counts one cancel request
func (h *MetricsHolder) RecordCancel(ctx context.Context, symbol string) {
	if h.CancelsTotal == nil {
		return
	}
	h.CancelsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("symbol", symbol)))
}

// RecordAuditDropped counts one lost audit event
func (h *MetricsHolder) RecordAuditDropped(ctx context.Context) {
	if h.AuditDroppedTotal == nil {
		return
	}
	h.AuditDroppedTotal.Add(ctx, 1)
}

// RecordExchangeLatency records one round trip in milliseconds
func (h *MetricsHolder) RecordExchangeLatency(ctx context.Context, endpoint string, ms float64) {
	if h.LatencyExchange == nil {
		return
	}
	h.LatencyExchange.Record(ctx, ms, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}
