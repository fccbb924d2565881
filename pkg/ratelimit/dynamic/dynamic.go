package dynamic

import (
	"fmt"

	"github.com/vnykmshr/ledgerguard/pkg/common/clock"
	"github.com/vnykmshr/ledgerguard/pkg/common/errors"
	"github.com/vnykmshr/ledgerguard/pkg/events"
	"github.com/vnykmshr/ledgerguard/pkg/ratelimit/bucket"
)

// Available returns the amount that could be depleted right now.
func (db *dynamicBucket) Available() (uint64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.Available(db.clock.Now())
}

// Deplete removes amount from the buffer and rescales against the shrunken
// tracked value.
func (db *dynamicBucket) Deplete(amount, previousValue uint64) (uint64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.clock.Now()
	prevRate, prevCapacity := db.state.RatePerSecond, db.state.Capacity
	stored, err := Deplete(&db.state, now, amount, previousValue)
	if err != nil {
		return 0, err
	}

	db.sink.Emit(events.BufferUsed{
		Limiter: db.name,
		Amount:  amount,
		Stored:  stored,
		Time:    now,
	})
	db.emitRescale(prevRate, prevCapacity, now)
	return stored, nil
}

// Replenish returns amount to the buffer and rescales against the grown
// tracked value.
func (db *dynamicBucket) Replenish(amount, previousValue uint64) (uint64, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.clock.Now()
	prevRate, prevCapacity := db.state.RatePerSecond, db.state.Capacity
	stored, changed, err := Replenish(&db.state, now, amount, previousValue)
	if err != nil {
		return 0, false, err
	}
	if !changed {
		return stored, false, nil
	}

	db.sink.Emit(events.BufferReplenished{
		Limiter: db.name,
		Amount:  amount,
		Stored:  stored,
		Time:    now,
	})
	db.emitRescale(prevRate, prevCapacity, now)
	return stored, true, nil
}

// emitRescale reports parameter changes caused by a rescale. Flooring can
// keep a parameter unchanged for small ratios; those stay silent.
func (db *dynamicBucket) emitRescale(prevRate, prevCapacity uint64, now clock.Timestamp) {
	if db.state.RatePerSecond != prevRate {
		db.sink.Emit(events.RateUpdated{
			Limiter:  db.name,
			Previous: prevRate,
			Current:  db.state.RatePerSecond,
			Time:     now,
		})
	}
	if db.state.Capacity != prevCapacity {
		db.sink.Emit(events.CapacityUpdated{
			Limiter:  db.name,
			Previous: prevCapacity,
			Current:  db.state.Capacity,
			Time:     now,
		})
	}
}

// Sync settles accrued regeneration into the stored value.
func (db *dynamicBucket) Sync() (uint64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.Sync(db.clock.Now())
}

// SetRatePerSecond changes the regeneration rate after syncing.
func (db *dynamicBucket) SetRatePerSecond(ratePerSecond uint64) (uint64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.maxRate > 0 && ratePerSecond > db.maxRate {
		return 0, errors.NewOperationError("dynamic", "SetRatePerSecond", errors.ErrRateTooHigh).
			WithContext(fmt.Sprintf("ratePerSecond=%d max=%d", ratePerSecond, db.maxRate))
	}

	now := db.clock.Now()
	previous, err := db.state.SetRatePerSecond(now, ratePerSecond)
	if err != nil {
		return 0, err
	}

	db.sink.Emit(events.RateUpdated{
		Limiter:  db.name,
		Previous: previous,
		Current:  ratePerSecond,
		Time:     now,
	})
	return previous, nil
}

// SetCapacity changes the capacity after syncing.
func (db *dynamicBucket) SetCapacity(capacity uint64) (uint64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.clock.Now()
	previous, err := db.state.SetCapacity(now, capacity)
	if err != nil {
		return 0, err
	}

	db.sink.Emit(events.CapacityUpdated{
		Limiter:  db.name,
		Previous: previous,
		Current:  capacity,
		Time:     now,
	})
	return previous, nil
}

// RatePerSecond returns the current regeneration rate.
func (db *dynamicBucket) RatePerSecond() uint64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.RatePerSecond
}

// Capacity returns the current capacity.
func (db *dynamicBucket) Capacity() uint64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.Capacity
}

// Stored returns the stored value as of the last mutation.
func (db *dynamicBucket) Stored() uint64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.Stored
}

// LastUpdate returns the time of the last mutation.
func (db *dynamicBucket) LastUpdate() clock.Timestamp {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state.LastUpdate
}

// Name returns the limiter's identifier.
func (db *dynamicBucket) Name() string {
	return db.name
}

// State returns a copy of the underlying accounting state.
func (db *dynamicBucket) State() bucket.State {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.state
}
