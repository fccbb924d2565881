package bucket

import (
	"fmt"

	"github.com/vnykmshr/ledgerguard/pkg/common/clock"
	"github.com/vnykmshr/ledgerguard/pkg/common/errors"
	"github.com/vnykmshr/ledgerguard/pkg/events"
)

// Available returns the amount that could be depleted right now.
func (tb *tokenBucket) Available() (uint64, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.state.Available(tb.clock.Now())
}

// Deplete removes amount from the buffer.
func (tb *tokenBucket) Deplete(amount uint64) (uint64, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.clock.Now()
	stored, err := tb.state.Deplete(now, amount)
	if err != nil {
		return 0, err
	}

	tb.sink.Emit(events.BufferUsed{
		Limiter: tb.name,
		Amount:  amount,
		Stored:  stored,
		Time:    now,
	})
	return stored, nil
}

// Replenish returns amount to the buffer, clamped at capacity.
func (tb *tokenBucket) Replenish(amount uint64) (uint64, bool, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.clock.Now()
	stored, changed, err := tb.state.Replenish(now, amount)
	if err != nil {
		return 0, false, err
	}
	if !changed {
		// Buffer was already full; nothing happened, nothing to report.
		return stored, false, nil
	}

	tb.sink.Emit(events.BufferReplenished{
		Limiter: tb.name,
		Amount:  amount,
		Stored:  stored,
		Time:    now,
	})
	return stored, true, nil
}

// Sync settles accrued regeneration into the stored value.
func (tb *tokenBucket) Sync() (uint64, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.state.Sync(tb.clock.Now())
}

// SetRatePerSecond changes the regeneration rate after syncing.
func (tb *tokenBucket) SetRatePerSecond(ratePerSecond uint64) (uint64, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.maxRate > 0 && ratePerSecond > tb.maxRate {
		return 0, errors.NewOperationError("bucket", "SetRatePerSecond", errors.ErrRateTooHigh).
			WithContext(fmt.Sprintf("ratePerSecond=%d max=%d", ratePerSecond, tb.maxRate))
	}

	now := tb.clock.Now()
	previous, err := tb.state.SetRatePerSecond(now, ratePerSecond)
	if err != nil {
		return 0, err
	}

	tb.sink.Emit(events.RateUpdated{
		Limiter:  tb.name,
		Previous: previous,
		Current:  ratePerSecond,
		Time:     now,
	})
	return previous, nil
}

// SetCapacity changes the capacity after syncing.
func (tb *tokenBucket) SetCapacity(capacity uint64) (uint64, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.clock.Now()
	previous, err := tb.state.SetCapacity(now, capacity)
	if err != nil {
		return 0, err
	}

	tb.sink.Emit(events.CapacityUpdated{
		Limiter:  tb.name,
		Previous: previous,
		Current:  capacity,
		Time:     now,
	})
	return previous, nil
}

// RatePerSecond returns the current regeneration rate.
func (tb *tokenBucket) RatePerSecond() uint64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.state.RatePerSecond
}

// Capacity returns the current capacity.
func (tb *tokenBucket) Capacity() uint64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.state.Capacity
}

// Stored returns the stored value as of the last mutation.
func (tb *tokenBucket) Stored() uint64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.state.Stored
}

// LastUpdate returns the time of the last mutation.
func (tb *tokenBucket) LastUpdate() clock.Timestamp {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.state.LastUpdate
}

// Name returns the limiter's identifier.
func (tb *tokenBucket) Name() string {
	return tb.name
}

// State returns a copy of the underlying accounting state.
func (tb *tokenBucket) State() State {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.state
}
