package dynamic

import (
	"fmt"
	"sync"

	"github.com/vnykmshr/ledgerguard/pkg/common/clock"
	"github.com/vnykmshr/ledgerguard/pkg/common/errors"
	"github.com/vnykmshr/ledgerguard/pkg/common/validation"
	"github.com/vnykmshr/ledgerguard/pkg/events"
	"github.com/vnykmshr/ledgerguard/pkg/ratelimit/bucket"
)

// Limiter is a thread-safe token bucket whose rate and capacity rescale in
// proportion to a tracked value the caller supplies per call. Accrual,
// snapshots, and the runtime setters all match bucket.Limiter.
type Limiter interface {
	// Available returns the amount that could be depleted right now
	// without mutating the buffer.
	Available() (uint64, error)

	// Deplete removes amount from the buffer and shrinks rate and capacity
	// by the ratio (previousValue-amount)/previousValue, floored. Bucket
	// failures (ErrInsufficientBuffer, ErrRateLimitExceeded) take
	// precedence; the rescale adds ErrDivisionByZero for a zero
	// previousValue and ErrArithmeticUnderflow for amount > previousValue.
	Deplete(amount, previousValue uint64) (uint64, error)

	// Replenish returns amount to the buffer and grows rate and capacity
	// by the ratio (previousValue+amount)/previousValue, floored. A
	// replenish against a full buffer is a silent no-op that skips the
	// rescale too. A scaled-up parameter that no longer fits 64 bits
	// fails with ErrArithmeticOverflow and nothing changes.
	Replenish(amount, previousValue uint64) (uint64, bool, error)

	// Sync settles accrued regeneration into the stored value and returns it.
	Sync() (uint64, error)

	// SetRatePerSecond changes the regeneration rate after syncing,
	// returning the previous rate.
	SetRatePerSecond(ratePerSecond uint64) (uint64, error)

	// SetCapacity changes the capacity after syncing, returning the
	// previous capacity.
	SetCapacity(capacity uint64) (uint64, error)

	// RatePerSecond returns the current regeneration rate.
	RatePerSecond() uint64

	// Capacity returns the current capacity.
	Capacity() uint64

	// Stored returns the stored value as of the last mutation.
	Stored() uint64

	// LastUpdate returns the time of the last mutation.
	LastUpdate() clock.Timestamp

	// Name returns the identifier used in events and metrics.
	Name() string

	// State returns a copy of the underlying accounting state, suitable
	// for persisting.
	State() bucket.State
}

// Config holds configuration options for creating a new Limiter.
type Config struct {
	// RatePerSecond is the amount regenerated each second. Zero disables
	// regeneration.
	RatePerSecond uint64

	// Capacity is the maximum amount the buffer can hold. Must be positive.
	Capacity uint64

	// MaxRatePerSecond caps RatePerSecond at construction and on later
	// SetRatePerSecond calls. It does not constrain rescaling. Zero means
	// no ceiling.
	MaxRatePerSecond uint64

	// Clock provides the current time. If nil, the system clock is used.
	Clock clock.Clock

	// Sink receives notifications for successful mutations. If nil, events
	// are discarded.
	Sink events.Sink

	// Name identifies the limiter in events, metrics, and persistence.
	Name string

	// Initial resumes the limiter from a previously saved state instead of
	// starting with a full buffer.
	Initial *bucket.State
}

// dynamicBucket implements the Limiter interface.
type dynamicBucket struct {
	mu      sync.Mutex
	state   bucket.State
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
		if err := validation.ValidatePositiveUint("dynamic", "capacity", config.Capacity); err != nil {
			return nil, err
		}
	}
	if config.Clock == nil {
		config.Clock = clock.SystemClock{}
	}
	if config.Sink == nil {
		config.Sink = events.Nop()
	}

	var state bucket.State
	if config.Initial != nil {
		state = *config.Initial
	} else {
		state = bucket.NewState(config.RatePerSecond, config.Capacity, config.Clock.Now())
	}

	if config.MaxRatePerSecond > 0 && state.RatePerSecond > config.MaxRatePerSecond {
		return nil, errors.NewOperationError("dynamic", "New", errors.ErrRateTooHigh).
			WithContext(fmt.Sprintf("ratePerSecond=%d max=%d", state.RatePerSecond, config.MaxRatePerSecond))
	}

	return &dynamicBucket{
		state:   state,
		maxRate: config.MaxRatePerSecond,
		clock:   config.Clock,
		sink:    config.Sink,
		name:    config.Name,
	}, nil
}
