package bucket

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/ledgerguard/pkg/common/clock"
	lgerrors "github.com/vnykmshr/ledgerguard/pkg/common/errors"
	"github.com/vnykmshr/ledgerguard/pkg/metrics"
)

// MetricsLimiter wraps a Limiter with Prometheus metrics collection.
type MetricsLimiter struct {
	limiter  Limiter
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a token bucket limiter with metrics enabled.
func NewWithMetrics(ratePerSecond, capacity uint64, name string) (Limiter, error) {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}

	return NewWithConfigAndMetrics(Config{
		RatePerSecond: ratePerSecond,
		Capacity:      capacity,
		Name:          name,
	}, config)
}

// NewWithConfigAndMetrics creates a token bucket limiter with custom config and metrics.
func NewWithConfigAndMetrics(config Config, metricsConfig metrics.Config) (Limiter, error) {
	baseLimiter, err := NewWithConfigSafe(config)
	if err != nil {
		return nil, err
	}

	if !metricsConfig.Enabled {
		return baseLimiter, nil
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	ml := &MetricsLimiter{
		limiter:  baseLimiter,
		name:     baseLimiter.Name(),
		registry: registry,
		enabled:  true,
	}
	ml.publishGauges()
	return ml, nil
}

// denyReason maps a rejected operation to its metric label.
func denyReason(err error) string {
	switch {
	case errors.Is(err, lgerrors.ErrInsufficientBuffer):
		return "insufficient_buffer"
	case errors.Is(err, lgerrors.ErrRateLimitExceeded):
		return "rate_limit_exceeded"
	case errors.Is(err, lgerrors.ErrClockRegression):
		return "clock_regression"
	case errors.Is(err, lgerrors.ErrRateTooHigh):
		return "rate_too_high"
	default:
		return "other"
	}
}

// Available returns the amount that could be depleted right now.
func (ml *MetricsLimiter) Available() (uint64, error) {
	return ml.limiter.Available()
}

// Deplete removes amount from the buffer.
func (ml *MetricsLimiter) Deplete(amount uint64) (uint64, error) {
	if ml.enabled {
		ml.registry.DepleteRequests.WithLabelValues(ml.name).Inc()
	}

	stored, err := ml.limiter.Deplete(amount)

	if ml.enabled {
		if err != nil {
			ml.registry.DepleteDenied.WithLabelValues(ml.name, denyReason(err)).Inc()
		} else {
			ml.registry.BufferUsed.WithLabelValues(ml.name).Add(float64(amount))
			ml.registry.BufferStored.WithLabelValues(ml.name).Set(float64(stored))
		}
	}

	return stored, err
}

// Replenish returns amount to the buffer.
func (ml *MetricsLimiter) Replenish(amount uint64) (uint64, bool, error) {
	if ml.enabled {
		ml.registry.ReplenishRequests.WithLabelValues(ml.name).Inc()
	}

	stored, changed, err := ml.limiter.Replenish(amount)

	if ml.enabled && err == nil && changed {
		ml.registry.BufferReplenished.WithLabelValues(ml.name).Add(float64(amount))
		ml.registry.BufferStored.WithLabelValues(ml.name).Set(float64(stored))
	}

	return stored, changed, err
}

// Sync settles accrued regeneration into the stored value.
func (ml *MetricsLimiter) Sync() (uint64, error) {
	stored, err := ml.limiter.Sync()

	if ml.enabled && err == nil {
		ml.registry.BufferStored.WithLabelValues(ml.name).Set(float64(stored))
	}

	return stored, err
}

// SetRatePerSecond changes the regeneration rate.
func (ml *MetricsLimiter) SetRatePerSecond(ratePerSecond uint64) (uint64, error) {
	previous, err := ml.limiter.SetRatePerSecond(ratePerSecond)

	if ml.enabled && err == nil {
		ml.registry.RateUpdates.WithLabelValues(ml.name).Inc()
		ml.registry.RegenRate.WithLabelValues(ml.name).Set(float64(ratePerSecond))
	}

	return previous, err
}

// SetCapacity changes the capacity.
func (ml *MetricsLimiter) SetCapacity(capacity uint64) (uint64, error) {
	previous, err := ml.limiter.SetCapacity(capacity)

	if ml.enabled && err == nil {
		ml.registry.CapacityUpdates.WithLabelValues(ml.name).Inc()
		ml.registry.BufferCapacity.WithLabelValues(ml.name).Set(float64(capacity))
	}

	return previous, err
}

// RatePerSecond returns the current regeneration rate.
func (ml *MetricsLimiter) RatePerSecond() uint64 {
	return ml.limiter.RatePerSecond()
}

// Capacity returns the current capacity.
func (ml *MetricsLimiter) Capacity() uint64 {
	return ml.limiter.Capacity()
}

// Stored returns the stored value as of the last mutation.
func (ml *MetricsLimiter) Stored() uint64 {
	return ml.limiter.Stored()
}

// LastUpdate returns the time of the last mutation.
func (ml *MetricsLimiter) LastUpdate() clock.Timestamp {
	return ml.limiter.LastUpdate()
}

// Name returns the limiter's identifier.
func (ml *MetricsLimiter) Name() string {
	return ml.limiter.Name()
}

// State returns a copy of the underlying accounting state.
func (ml *MetricsLimiter) State() State {
	return ml.limiter.State()
}

// EnableMetrics enables metrics collection.
func (ml *MetricsLimiter) EnableMetrics(config metrics.Config) error {
	ml.enabled = config.Enabled

	if config.Registry != nil {
		ml.registry = metrics.NewRegistry(config.Registry)
	}
	if ml.enabled {
		ml.publishGauges()
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (ml *MetricsLimiter) DisableMetrics() {
	ml.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (ml *MetricsLimiter) MetricsEnabled() bool {
	return ml.enabled
}

// publishGauges seeds the parameter gauges from the current state.
func (ml *MetricsLimiter) publishGauges() {
	state := ml.limiter.State()
	ml.registry.BufferStored.WithLabelValues(ml.name).Set(float64(state.Stored))
	ml.registry.BufferCapacity.WithLabelValues(ml.name).Set(float64(state.Capacity))
	ml.registry.RegenRate.WithLabelValues(ml.name).Set(float64(state.RatePerSecond))
}
