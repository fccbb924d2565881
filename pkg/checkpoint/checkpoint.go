package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	lgcontext "github.com/vnykmshr/ledgerguard/pkg/common/context"
	lgerrors "github.com/vnykmshr/ledgerguard/pkg/common/errors"
	"github.com/vnykmshr/ledgerguard/pkg/metrics"
	"github.com/vnykmshr/ledgerguard/pkg/ratelimit/bucket"
	"github.com/vnykmshr/ledgerguard/pkg/store"
)

// Source yields snapshots for checkpointing. Both limiter flavors satisfy
// it, so limiters register directly.
type Source interface {
	// Name identifies the source; it becomes the store key.
	Name() string

	// State returns the snapshot to persist.
	State() bucket.State
}

// Config holds checkpointer configuration.
type Config struct {
	// Store receives the snapshots. Required.
	Store store.Store

	// Schedule is a cron expression with a seconds field, evaluated in
	// local time. Defaults to every 30 seconds.
	Schedule string

	// Logger receives run and failure records. Nil discards them.
	Logger *zap.Logger

	// Timeout bounds one checkpoint run across all sources.
	// Defaults to 5 seconds.
	Timeout time.Duration

	// Metrics enables Prometheus instrumentation for runs and per-source
	// saves.
	Metrics metrics.Config
}

// DefaultSchedule is the cron expression used when Config.Schedule is empty.
const DefaultSchedule = "*/30 * * * * *"

const defaultTimeout = 5 * time.Second

// Checkpointer periodically persists the state of registered sources.
type Checkpointer struct {
	config   Config
	log      *zap.Logger
	schedule cron.Schedule
	registry *metrics.Registry

	mu      sync.Mutex
	sources map[string]Source
	running bool
	done    chan struct{}
	stopped chan struct{}
}

// New creates a checkpointer. It does not start the schedule; call Start,
// or drive runs manually with SnapshotNow.
func New(config Config) (*Checkpointer, error) {
	if config.Store == nil {
		return nil, lgerrors.NewValidationError("checkpoint", "Store", nil, "required").
			WithHint("provide a store.Store implementation")
	}

	expr := config.Schedule
	if expr == "" {
		expr = DefaultSchedule
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, lgerrors.NewValidationError("checkpoint", "Schedule", expr, "invalid cron expression").
			WithHint(err.Error())
	}
	config.Schedule = expr

	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Checkpointer{
		config:   config,
		log:      logger.Named("checkpoint"),
		schedule: schedule,
		sources:  make(map[string]Source),
	}

	if config.Metrics.Enabled {
		c.registry = metrics.DefaultRegistry
		if config.Metrics.Registry != nil {
			c.registry = metrics.NewRegistry(config.Metrics.Registry)
		}
	}

	return c, nil
}

// Register adds a source to the checkpoint set.
func (c *Checkpointer) Register(src Source) error {
	if src == nil {
		return lgerrors.NewValidationError("checkpoint", "source", nil, "required")
	}
	name := src.Name()
	if name == "" {
		return lgerrors.NewValidationError("checkpoint", "source", src, "name is empty").
			WithHint("give the limiter a Name in its Config")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.sources[name]; exists {
		return fmt.Errorf("source %q already registered, unregister it first", name)
	}
	c.sources[name] = src
	return nil
}

// Unregister removes a source. It reports whether the source was present.
// The stored snapshots are left in place.
func (c *Checkpointer) Unregister(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.sources[name]; exists {
		delete(c.sources, name)
		return true
	}
	return false
}

// Sources returns the names of all registered sources in sorted order.
func (c *Checkpointer) Sources() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start launches the schedule loop.
func (c *Checkpointer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("checkpointer already running, call Stop() first")
	}

	c.running = true
	c.done = make(chan struct{})
	c.stopped = make(chan struct{})

	c.log.Info("checkpoint schedule started", zap.String("schedule", c.config.Schedule))
	go c.run(c.done, c.stopped)
	return nil
}

// Stop halts the schedule loop. The returned channel closes once the loop
// has wound down; a run in flight finishes first. Registered sources and
// stored snapshots are untouched, and the checkpointer can be started again.
func (c *Checkpointer) Stop() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		closed := make(chan struct{})
		close(closed)
		return closed
	}

	c.running = false
	close(c.done)
	c.log.Info("checkpoint schedule stopping")
	return c.stopped
}

func (c *Checkpointer) run(done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	timer := time.NewTimer(time.Until(c.schedule.Next(time.Now())))
	defer timer.Stop()

	for {
		select {
		case <-done:
			return
		case <-timer.C:
			ctx, cancel := lgcontext.EnsureTimeout(context.Background(), c.config.Timeout)
			if err := c.SnapshotNow(ctx); err != nil {
				c.log.Warn("scheduled checkpoint incomplete", zap.Error(err))
			}
			cancel()
			timer.Reset(time.Until(c.schedule.Next(time.Now())))
		}
	}
}

// SnapshotNow persists every registered source once. Stale rejections from
// the store count as skips, not failures: another instance already holds a
// newer snapshot. The returned error joins all per-source failures.
func (c *Checkpointer) SnapshotNow(ctx context.Context) error {
	runID := uuid.NewString()
	start := time.Now()

	c.mu.Lock()
	sources := make([]Source, 0, len(c.sources))
	for _, src := range c.sources {
		sources = append(sources, src)
	}
	c.mu.Unlock()
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name() < sources[j].Name() })

	var failures []error
	saved, stale := 0, 0
	for _, src := range sources {
		err := c.config.Store.Save(ctx, src.Name(), src.State())
		switch {
		case err == nil:
			saved++
			c.countSource(src.Name(), "saved")
		case errors.Is(err, store.ErrStaleState):
			stale++
			c.countSource(src.Name(), "stale")
		default:
			failures = append(failures, fmt.Errorf("save %q: %w", src.Name(), err))
			c.countSource(src.Name(), "failed")
			c.log.Warn("snapshot save failed",
				zap.String("run_id", runID),
				zap.String("limiter", src.Name()),
				zap.Error(err))
		}
	}

	status := "success"
	if len(failures) > 0 {
		status = "failure"
	}
	duration := time.Since(start)
	if c.registry != nil {
		c.registry.CheckpointRuns.WithLabelValues(status).Inc()
		c.registry.CheckpointDuration.WithLabelValues(status).Observe(duration.Seconds())
	}

	c.log.Debug("checkpoint run complete",
		zap.String("run_id", runID),
		zap.String("status", status),
		zap.Int("saved", saved),
		zap.Int("stale", stale),
		zap.Int("failed", len(failures)),
		zap.Duration("duration", duration))

	return errors.Join(failures...)
}

func (c *Checkpointer) countSource(name, status string) {
	if c.registry != nil {
		c.registry.CheckpointSources.WithLabelValues(name, status).Inc()
	}
}

// Restore loads the stored snapshot for name. Callers feed it into a new
// limiter via Config.Initial to resume accounting after a restart.
func (c *Checkpointer) Restore(ctx context.Context, name string) (bucket.State, error) {
	return c.config.Store.Load(ctx, name)
}
