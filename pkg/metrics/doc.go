// Package metrics provides Prometheus instrumentation for ledgerguard components.
//
// This package enables monitoring and observability for ledgerguard's buffer
// limiters, reentrancy guard, and checkpointing through Prometheus metrics.
//
// # Overview
//
// The metrics package provides automatic instrumentation for:
//   - Buffer operations (depletions, denials, replenishments, stored amounts)
//   - Buffer parameters (capacity, regeneration rate, update counts)
//   - Reentrancy guard state (lock level, acquisitions, releases, violations)
//   - Checkpoint runs (outcomes, per-source saves, run duration)
//
// # Quick Start
//
// Enable metrics by using the metrics-enabled constructors:
//
//	// Buffer limiter with metrics
//	limiter, err := bucket.NewWithMetrics(10, 20_000, "withdrawals")
//
//	// Reentrancy guard with metrics
//	guard := reentrancy.NewInstrumentedGuard("vault", metrics.DefaultConfig())
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	config := metrics.Config{
//		Enabled:  true,
//		Registry: registry,
//	}
//
//	limiter, err := bucket.NewWithConfigAndMetrics(
//		bucket.Config{RatePerSecond: 5, Capacity: 10_000, Name: "withdrawals"},
//		config,
//	)
//
// # Event-Driven Updates
//
// Instead of wrapping a limiter, an EventSink can be attached to its
// notification stream, optionally behind an asynchronous dispatcher:
//
//	sink := metrics.NewEventSink(nil) // DefaultRegistry
//	limiter, err := bucket.NewWithConfigSafe(bucket.Config{
//		RatePerSecond: 5,
//		Capacity:      10_000,
//		Name:          "withdrawals",
//		Sink:          sink,
//	})
//
// # Available Metrics
//
// ## Buffer Metrics
//
//   - ledgerguard_buffer_deplete_requests_total: Total number of depletion attempts
//   - ledgerguard_buffer_deplete_denied_total: Total number of denied depletion attempts
//   - ledgerguard_buffer_replenish_requests_total: Total number of replenishment attempts
//   - ledgerguard_buffer_used_total: Total amount depleted from the buffer
//   - ledgerguard_buffer_replenished_total: Total amount returned to the buffer
//   - ledgerguard_buffer_stored: Stored amount as of the last mutation
//   - ledgerguard_buffer_capacity: Current buffer capacity
//   - ledgerguard_buffer_rate_per_second: Current regeneration rate
//   - ledgerguard_buffer_rate_updates_total: Total number of rate changes
//   - ledgerguard_buffer_capacity_updates_total: Total number of capacity changes
//
// ## Reentrancy Guard Metrics
//
//   - ledgerguard_guard_lock_level: Current lock level of the guard
//   - ledgerguard_guard_lock_acquired_total: Total number of successful acquisitions
//   - ledgerguard_guard_lock_released_total: Total number of successful releases
//   - ledgerguard_guard_lock_violations_total: Total number of rejected attempts
//
// ## Checkpoint Metrics
//
//   - ledgerguard_checkpoint_runs_total: Total number of checkpoint runs
//   - ledgerguard_checkpoint_sources_total: Total number of per-source snapshot saves
//   - ledgerguard_checkpoint_run_duration_seconds: Time spent persisting one run
//
// # Labels
//
// Metrics include relevant labels for filtering and aggregation:
//
//   - limiter: User-provided name for the limiter instance
//   - guard: User-provided name for the guard instance
//   - reason: Denial or violation category (e.g. "insufficient_buffer", "reentrant_caller")
//   - level: Lock level involved in an acquisition or release
//   - source: Checkpointed limiter name
//   - status: Outcome of a checkpoint run or save ("ok", "error", "partial")
//
// # Runtime Control
//
// Components implementing the Instrumentable interface support runtime control:
//
//	limiter, _ := bucket.NewWithMetrics(10, 20_000, "api")
//	if ml, ok := limiter.(metrics.Instrumentable); ok {
//		ml.DisableMetrics()
//	}
//
// # Performance
//
// Metrics collection is designed for minimal overhead:
//   - Metrics are updated only when operations occur
//   - No background goroutines or timers
//   - Conditional metrics updates based on enabled state
package metrics
