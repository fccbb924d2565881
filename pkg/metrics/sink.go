package metrics

import (
	"github.com/vnykmshr/ledgerguard/pkg/events"
)

// EventSink translates limiter notifications into metric updates. Attach it
// to a limiter's Sink (optionally behind an events.Dispatcher) to keep the
// buffer gauges and counters current without wrapping the limiter itself.
//
// Amounts are converted to float64 for Prometheus; values beyond 2^53 lose
// precision in the metrics only, never in the accounting state.
type EventSink struct {
	registry *Registry
}

// NewEventSink creates an EventSink updating the given registry.
// If registry is nil, DefaultRegistry is used.
func NewEventSink(registry *Registry) *EventSink {
	if registry == nil {
		registry = DefaultRegistry
	}
	return &EventSink{registry: registry}
}

// Emit implements events.Sink.
func (s *EventSink) Emit(e events.Event) {
	switch ev := e.(type) {
	case events.BufferUsed:
		s.registry.BufferUsed.WithLabelValues(ev.Limiter).Add(float64(ev.Amount))
		s.registry.BufferStored.WithLabelValues(ev.Limiter).Set(float64(ev.Stored))
	case events.BufferReplenished:
		s.registry.BufferReplenished.WithLabelValues(ev.Limiter).Add(float64(ev.Amount))
		s.registry.BufferStored.WithLabelValues(ev.Limiter).Set(float64(ev.Stored))
	case events.RateUpdated:
		s.registry.RateUpdates.WithLabelValues(ev.Limiter).Inc()
		s.registry.RegenRate.WithLabelValues(ev.Limiter).Set(float64(ev.Current))
	case events.CapacityUpdated:
		s.registry.CapacityUpdates.WithLabelValues(ev.Limiter).Inc()
		s.registry.BufferCapacity.WithLabelValues(ev.Limiter).Set(float64(ev.Current))
	}
}
