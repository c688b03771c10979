package audit

import (
	"context"
	"sync/atomic"
	"time"

	"trading_bot/internal/core"
	"trading_bot/pkg/concurrency"
	"trading_bot/pkg/telemetry"
)

// Dispatcher fans events out to sinks off the trading path. Publish
// never blocks and never returns an error: a full queue drops the event
// and a failing or panicking sink is contained by the worker pool.
type Dispatcher struct {
	sinks   []Sink
	pool    *concurrency.WorkerPool
	logger  core.ILogger
	metrics *telemetry.MetricsHolder
	dropped int64
}

// NewDispatcher creates a dispatcher over the given sinks
func NewDispatcher(sinks []Sink, logger core.ILogger) *Dispatcher {
	// single worker keeps events in publish order
	pool := concurrency.NewWorkerPool(concurrency.PoolConfig{
		Name:        "audit",
		MaxWorkers:  1,
		MaxCapacity: 512,
		IdleTimeout: 30 * time.Second,
		NonBlocking: true,
	}, logger)

	return &Dispatcher{
		sinks:   sinks,
		pool:    pool,
		logger:  logger.WithField("component", "audit_dispatcher"),
		metrics: telemetry.GetGlobalMetrics(),
	}
}

// Publish enqueues the event for every sink and returns immediately
func (d *Dispatcher) Publish(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	err := d.pool.Submit(func() {
		for _, sink := range d.sinks {
			d.recordOne(sink, event)
		}
	})
	if err != nil {
		d.drop()
		d.logger.Warn("audit event dropped, queue full",
			"operation", event.Operation, "symbol", event.Symbol)
	}
}

func (d *Dispatcher) drop() {
	atomic.AddInt64(&d.dropped, 1)
	d.metrics.RecordAuditDropped(context.Background())
}

// recordOne shields the dispatch loop from a panicking sink
func (d *Dispatcher) recordOne(sink Sink, event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.drop()
			d.logger.Error("audit sink panicked", "panic", r)
		}
	}()
	if err := sink.Record(event); err != nil {
		d.drop()
		d.logger.Warn("audit sink failed", "error", err.Error())
	}
}

// Dropped reports how many events were lost to full queues or sink failures
func (d *Dispatcher) Dropped() int64 {
	return atomic.LoadInt64(&d.dropped)
}

// Close drains pending events and closes every sink
func (d *Dispatcher) Close() error {
	d.pool.Stop()
	var firstErr error
	for _, sink := range d.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
