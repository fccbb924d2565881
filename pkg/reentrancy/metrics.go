package reentrancy

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/ledgerguard/pkg/common/clock"
	"github.com/vnykmshr/ledgerguard/pkg/metrics"
)

// InstrumentedGuard wraps a Guard with Prometheus metrics collection.
type InstrumentedGuard struct {
	guard    *Guard
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a guard with metrics enabled.
func NewWithMetrics(name string) *InstrumentedGuard {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}

	return NewWithConfigAndMetrics(name, config)
}

// NewWithConfigAndMetrics creates a guard with custom metrics configuration.
// When metrics are disabled the wrapper still works; it just skips collection.
func NewWithConfigAndMetrics(name string, metricsConfig metrics.Config) *InstrumentedGuard {
	ig := &InstrumentedGuard{
		guard: New(name),
		name:  name,
	}

	if !metricsConfig.Enabled {
		return ig
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	ig.registry = registry
	ig.enabled = true
	ig.registry.LockLevel.WithLabelValues(ig.name).Set(float64(LevelFree))
	return ig
}

// violationReason maps a rejected lock operation to its metric label.
func violationReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidLockLevel):
		return "invalid_lock_level"
	case errors.Is(err, ErrInvalidUnlockLevel):
		return "invalid_unlock_level"
	case errors.Is(err, ErrNotEntered):
		return "not_entered"
	case errors.Is(err, ErrNotEnteredThisStep):
		return "not_entered_this_step"
	case errors.Is(err, ErrReentrantCaller):
		return "reentrant_caller"
	case errors.Is(err, ErrNotOriginalLocker):
		return "not_original_locker"
	default:
		return "other"
	}
}

// levelLabel renders a lock level as a metric label value.
func levelLabel(level Level) string {
	return strconv.FormatUint(uint64(level), 10)
}

// Lock acquires the next level up.
func (ig *InstrumentedGuard) Lock(step clock.Timestamp, caller CallerID, target Level) error {
	err := ig.guard.Lock(step, caller, target)

	if ig.enabled {
		if err != nil {
			ig.registry.LockViolations.WithLabelValues(ig.name, violationReason(err)).Inc()
		} else {
			ig.registry.LockAcquired.WithLabelValues(ig.name, levelLabel(target)).Inc()
			ig.registry.LockLevel.WithLabelValues(ig.name).Set(float64(target))
		}
	}

	return err
}

// Unlock releases the next level down.
func (ig *InstrumentedGuard) Unlock(step clock.Timestamp, caller CallerID, target Level) error {
	err := ig.guard.Unlock(step, caller, target)

	if ig.enabled {
		if err != nil {
			ig.registry.LockViolations.WithLabelValues(ig.name, violationReason(err)).Inc()
		} else {
			ig.registry.LockReleased.WithLabelValues(ig.name, levelLabel(target)).Inc()
			ig.registry.LockLevel.WithLabelValues(ig.name).Set(float64(target))
		}
	}

	return err
}

// Level returns the current lock level.
func (ig *InstrumentedGuard) Level() Level {
	return ig.guard.Level()
}

// LastCaller returns the identity that acquired level 1.
func (ig *InstrumentedGuard) LastCaller() CallerID {
	return ig.guard.LastCaller()
}

// LastEntryTime returns the step the current lock sequence began in.
func (ig *InstrumentedGuard) LastEntryTime() clock.Timestamp {
	return ig.guard.LastEntryTime()
}

// Name returns the guard's identifier.
func (ig *InstrumentedGuard) Name() string {
	return ig.guard.Name()
}

// EnableMetrics enables metrics collection.
func (ig *InstrumentedGuard) EnableMetrics(config metrics.Config) error {
	ig.enabled = config.Enabled

	if config.Registry != nil {
		ig.registry = metrics.NewRegistry(config.Registry)
	}
	if ig.enabled {
		ig.registry.LockLevel.WithLabelValues(ig.name).Set(float64(ig.guard.Level()))
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (ig *InstrumentedGuard) DisableMetrics() {
	ig.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (ig *InstrumentedGuard) MetricsEnabled() bool {
	return ig.enabled
}
