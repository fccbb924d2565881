package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/ledgerguard/pkg/events"
)

func TestEventSinkTranslatesEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	registry := NewRegistry(reg)
	sink := NewEventSink(registry)

	sink.Emit(events.BufferUsed{Limiter: "vault", Amount: 100, Stored: 900, Time: 10})
	sink.Emit(events.BufferUsed{Limiter: "vault", Amount: 50, Stored: 850, Time: 11})
	sink.Emit(events.BufferReplenished{Limiter: "vault", Amount: 25, Stored: 875, Time: 12})
	sink.Emit(events.RateUpdated{Limiter: "vault", Previous: 10, Current: 20, Time: 13})
	sink.Emit(events.CapacityUpdated{Limiter: "vault", Previous: 1000, Current: 2000, Time: 14})

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"used total", promtestutil.ToFloat64(registry.BufferUsed.WithLabelValues("vault")), 150},
		{"replenished total", promtestutil.ToFloat64(registry.BufferReplenished.WithLabelValues("vault")), 25},
		{"stored gauge", promtestutil.ToFloat64(registry.BufferStored.WithLabelValues("vault")), 875},
		{"rate updates", promtestutil.ToFloat64(registry.RateUpdates.WithLabelValues("vault")), 1},
		{"rate gauge", promtestutil.ToFloat64(registry.RegenRate.WithLabelValues("vault")), 20},
		{"capacity updates", promtestutil.ToFloat64(registry.CapacityUpdates.WithLabelValues("vault")), 1},
		{"capacity gauge", promtestutil.ToFloat64(registry.BufferCapacity.WithLabelValues("vault")), 2000},
	}

	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestEventSinkSeparatesLimiters(t *testing.T) {
	reg := prometheus.NewRegistry()
	registry := NewRegistry(reg)
	sink := NewEventSink(registry)

	sink.Emit(events.BufferUsed{Limiter: "a", Amount: 10, Stored: 90})
	sink.Emit(events.BufferUsed{Limiter: "b", Amount: 3, Stored: 97})

	if got := promtestutil.ToFloat64(registry.BufferUsed.WithLabelValues("a")); got != 10 {
		t.Errorf("limiter a used = %v, want 10", got)
	}
	if got := promtestutil.ToFloat64(registry.BufferUsed.WithLabelValues("b")); got != 3 {
		t.Errorf("limiter b used = %v, want 3", got)
	}
}

func TestNewEventSinkDefaultsRegistry(t *testing.T) {
	sink := NewEventSink(nil)
	if sink.registry != DefaultRegistry {
		t.Error("nil registry should fall back to DefaultRegistry")
	}
}
