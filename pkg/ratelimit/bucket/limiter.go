package bucket

import (
	"fmt"
	"sync"

	"github.com/vnykmshr/ledgerguard/pkg/common/clock"
	"github.com/vnykmshr/ledgerguard/pkg/common/errors"
	"github.com/vnykmshr/ledgerguard/pkg/common/validation"
	"github.com/vnykmshr/ledgerguard/pkg/events"
)

// Limiter is a thread-safe token bucket. It owns a State, supplies the
// current time from its Clock, and emits notifications to its Sink. All
// amounts are unsigned integers in the caller's unit; arithmetic that cannot
// be represented fails loudly instead of wrapping.
type Limiter interface {
	// Available returns the amount that could be depleted right now
	// without mutating the buffer.
	Available() (uint64, error)

	// Deplete removes amount from the buffer and returns the new stored
	// value. Fails with ErrInsufficientBuffer when the buffer is empty and
	// ErrRateLimitExceeded when amount exceeds what is available.
	Deplete(amount uint64) (uint64, error)

	// Replenish returns amount to the buffer, clamped at capacity. The
	// bool reports whether the state changed; a replenish against a full
	// buffer is a silent no-op.
	Replenish(amount uint64) (uint64, bool, error)

	// Sync settles accrued regeneration into the stored value and returns it.
	Sync() (uint64, error)

	// SetRatePerSecond changes the regeneration rate after syncing,
	// returning the previous rate. Fails with ErrRateTooHigh when the
	// limiter was configured with a rate ceiling and the new rate exceeds it.
	SetRatePerSecond(ratePerSecond uint64) (uint64, error)

	// SetCapacity changes the capacity after syncing, returning the
	// previous capacity. An already stored amount above the new capacity
	// is preserved, not clamped.
	SetCapacity(capacity uint64) (uint64, error)

	// RatePerSecond returns the current regeneration rate.
	RatePerSecond() uint64

	// Capacity returns the current capacity.
	Capacity() uint64

	// Stored returns the stored value as of the last mutation, without
	// materializing accrual.
	Stored() uint64

	// LastUpdate returns the time of the last mutation.
	LastUpdate() clock.Timestamp

	// Name returns the identifier used in events and metrics.
	Name() string

	// State returns a copy of the underlying accounting state, suitable
	// for persisting.
	State() State
}

// Config holds configuration options for creating a new Limiter.
type Config struct {
	// RatePerSecond is the amount regenerated each second. Zero disables
	// regeneration.
	RatePerSecond uint64

	// Capacity is the maximum amount the buffer can hold. Must be positive.
	Capacity uint64

	// MaxRatePerSecond caps RatePerSecond at construction and on later
	// SetRatePerSecond calls. Zero means no ceiling.
	MaxRatePerSecond uint64

	// Clock provides the current time. If nil, the system clock is used.
	Clock clock.Clock

	// Sink receives notifications for successful mutations. If nil, events
	// are discarded.
	Sink events.Sink

	// Name identifies the limiter in events, metrics, and persistence.
	Name string

	// Initial resumes the limiter from a previously saved state instead of
	// starting with a full buffer. Rate and capacity come from the saved
	// state, not from the fields above.
	Initial *State
}

// tokenBucket implements the Limiter interface.
type tokenBucket struct {
	mu      sync.Mutex
	state   State
	maxRate uint64
	clock   clock.Clock
	sink    events.Sink
	name    string
}

// New creates a limiter with the given rate and capacity, starting full.
// It panics on invalid configuration; use NewSafe in production code.
func New(ratePerSecond, capacity uint64) Limiter {
	return NewWithConfig(Config{
		RatePerSecond: ratePerSecond,
		Capacity:      capacity,
	})
}

// NewWithConfig creates a limiter from config. It panics on invalid
// configuration; use NewWithConfigSafe in production code.
func NewWithConfig(config Config) Limiter {
	lim, err := NewWithConfigSafe(config)
	if err != nil {
		panic(err)
	}
	return lim
}

// NewSafe creates a limiter with the given rate and capacity, starting
// full, returning an error instead of panicking on invalid configuration.
func NewSafe(ratePerSecond, capacity uint64) (Limiter, error) {
	return NewWithConfigSafe(Config{
		RatePerSecond: ratePerSecond,
		Capacity:      capacity,
	})
}

// NewWithConfigSafe creates a limiter from config, returning an error
// instead of panicking on invalid configuration. This is the recommended
// constructor for production use.
func NewWithConfigSafe(config Config) (Limiter, error) {
	if config.Initial == nil {
		if err := validation.ValidatePositiveUint("bucket", "capacity", config.Capacity); err != nil {
			return nil, err
		}
	}
	if config.Clock == nil {
		config.Clock = clock.SystemClock{}
	}
	if config.Sink == nil {
		config.Sink = events.Nop()
	}

	var state State
	if config.Initial != nil {
		state = *config.Initial
	} else {
		state = NewState(config.RatePerSecond, config.Capacity, config.Clock.Now())
	}

	if config.MaxRatePerSecond > 0 && state.RatePerSecond > config.MaxRatePerSecond {
		return nil, errors.NewOperationError("bucket", "New", errors.ErrRateTooHigh).
			WithContext(fmt.Sprintf("ratePerSecond=%d max=%d", state.RatePerSecond, config.MaxRatePerSecond))
	}

	return &tokenBucket{
		state:   state,
		maxRate: config.MaxRatePerSecond,
		clock:   config.Clock,
		sink:    config.Sink,
		name:    config.Name,
	}, nil
}
