// Package metrics provides Prometheus instrumentation for ledgerguard components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for ledgerguard components.
type Registry struct {
	// Buffer Metrics
	DepleteRequests   *prometheus.CounterVec
	DepleteDenied     *prometheus.CounterVec
	ReplenishRequests *prometheus.CounterVec
	BufferUsed        *prometheus.CounterVec
	BufferReplenished *prometheus.CounterVec
	BufferStored      *prometheus.GaugeVec
	BufferCapacity    *prometheus.GaugeVec
	RegenRate         *prometheus.GaugeVec
	RateUpdates       *prometheus.CounterVec
	CapacityUpdates   *prometheus.CounterVec

	// Reentrancy Guard Metrics
	LockLevel      *prometheus.GaugeVec
	LockAcquired   *prometheus.CounterVec
	LockReleased   *prometheus.CounterVec
	LockViolations *prometheus.CounterVec

	// Checkpoint Metrics
	CheckpointRuns     *prometheus.CounterVec
	CheckpointSources  *prometheus.CounterVec
	CheckpointDuration *prometheus.HistogramVec
}

// DefaultRegistry is the default metrics registry used by ledgerguard components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Buffer Metrics
		DepleteRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgerguard",
				Subsystem: "buffer",
				Name:      "deplete_requests_total",
				Help:      "Total number of depletion attempts",
			},
			[]string{"limiter"},
		),

		DepleteDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgerguard",
				Subsystem: "buffer",
				Name:      "deplete_denied_total",
				Help:      "Total number of denied depletion attempts",
			},
			[]string{"limiter", "reason"},
		),

		ReplenishRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgerguard",
				Subsystem: "buffer",
				Name:      "replenish_requests_total",
				Help:      "Total number of replenishment attempts",
			},
			[]string{"limiter"},
		),

		BufferUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgerguard",
				Subsystem: "buffer",
				Name:      "used_total",
				Help:      "Total amount depleted from the buffer",
			},
			[]string{"limiter"},
		),

		BufferReplenished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgerguard",
				Subsystem: "buffer",
				Name:      "replenished_total",
				Help:      "Total amount returned to the buffer",
			},
			[]string{"limiter"},
		),

		BufferStored: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ledgerguard",
				Subsystem: "buffer",
				Name:      "stored",
				Help:      "Stored amount as of the last mutation",
			},
			[]string{"limiter"},
		),

		BufferCapacity: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ledgerguard",
				Subsystem: "buffer",
				Name:      "capacity",
				Help:      "Current buffer capacity",
			},
			[]string{"limiter"},
		),

		RegenRate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ledgerguard",
				Subsystem: "buffer",
				Name:      "rate_per_second",
				Help:      "Current regeneration rate",
			},
			[]string{"limiter"},
		),

		RateUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgerguard",
				Subsystem: "buffer",
				Name:      "rate_updates_total",
				Help:      "Total number of regeneration rate changes",
			},
			[]string{"limiter"},
		),

		CapacityUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgerguard",
				Subsystem: "buffer",
				Name:      "capacity_updates_total",
				Help:      "Total number of capacity changes",
			},
			[]string{"limiter"},
		),

		// Reentrancy Guard Metrics
		LockLevel: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ledgerguard",
				Subsystem: "guard",
				Name:      "lock_level",
				Help:      "Current lock level of the guard",
			},
			[]string{"guard"},
		),

		LockAcquired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgerguard",
				Subsystem: "guard",
				Name:      "lock_acquired_total",
				Help:      "Total number of successful lock acquisitions",
			},
			[]string{"guard", "level"},
		),

		LockReleased: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgerguard",
				Subsystem: "guard",
				Name:      "lock_released_total",
				Help:      "Total number of successful lock releases",
			},
			[]string{"guard", "level"},
		),

		LockViolations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgerguard",
				Subsystem: "guard",
				Name:      "lock_violations_total",
				Help:      "Total number of rejected lock and unlock attempts",
			},
			[]string{"guard", "reason"},
		),

		// Checkpoint Metrics
		CheckpointRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgerguard",
				Subsystem: "checkpoint",
				Name:      "runs_total",
				Help:      "Total number of checkpoint runs",
			},
			[]string{"status"},
		),

		CheckpointSources: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ledgerguard",
				Subsystem: "checkpoint",
				Name:      "sources_total",
				Help:      "Total number of per-source snapshot saves",
			},
			[]string{"source", "status"},
		),

		CheckpointDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ledgerguard",
				Subsystem: "checkpoint",
				Name:      "run_duration_seconds",
				Help:      "Time spent persisting one checkpoint run",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
	}
}
