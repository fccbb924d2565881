package bucket

import (
	"github.com/vnykmshr/ledgerguard/pkg/common/clock"
	lgerrors "github.com/vnykmshr/ledgerguard/pkg/common/errors"
	"github.com/vnykmshr/ledgerguard/pkg/common/numeric"
)

// State is the persistable accounting state of one throttled action. It is a
// pure state machine: every operation takes the current time explicitly, and
// nothing here reads the wall clock or takes locks. The embedding caller owns
// the value exclusively and is responsible for persisting it; the managed
// Limiter in this package adds locking, a Clock, and notifications on top.
//
// The invariant 0 <= Stored <= Capacity holds after every successful
// operation, with one documented exception: SetCapacity does not clamp a
// previously stored amount when the capacity shrinks. Available masks the
// excess until the next mutation.
type State struct {
	// RatePerSecond is the amount regenerated each second, in the same unit
	// as Capacity.
	RatePerSecond uint64 `json:"rate_per_second"`

	// Capacity is the upper bound of the buffer.
	Capacity uint64 `json:"capacity"`

	// LastUpdate is the time of the last operation that wrote Stored.
	LastUpdate clock.Timestamp `json:"last_update"`

	// Stored is the amount available as of LastUpdate. Regeneration since
	// then is computed lazily by Available.
	Stored uint64 `json:"stored"`
}

// NewState creates a full buffer: Stored starts at Capacity with LastUpdate
// set to now.
func NewState(ratePerSecond, capacity uint64, now clock.Timestamp) State {
	return State{
		RatePerSecond: ratePerSecond,
		Capacity:      capacity,
		LastUpdate:    now,
		Stored:        capacity,
	}
}

// Available returns the amount that can be depleted at now:
// min(Stored + RatePerSecond*(now-LastUpdate), Capacity). It does not
// mutate the state. A now earlier than LastUpdate fails with
// ErrClockRegression.
//
// The accrual product and sum are carried in 128 bits, so the clamp to
// Capacity is an exact min even for extreme rates and idle spans.
func (s *State) Available(now clock.Timestamp) (uint64, error) {
	if now < s.LastUpdate {
		return 0, lgerrors.ErrClockRegression
	}
	elapsed := uint64(now - s.LastUpdate)
	avail := numeric.SaturatingMulAdd(s.RatePerSecond, elapsed, s.Stored)
	if avail > s.Capacity {
		avail = s.Capacity
	}
	return avail, nil
}

// Deplete removes amount from the buffer and returns the new stored value.
// It fails with ErrInsufficientBuffer when nothing is available at all and
// with ErrRateLimitExceeded when amount exceeds what is available; the
// emptiness check runs first, so depleting an empty buffer reports
// ErrInsufficientBuffer regardless of amount. On any failure the state is
// unchanged.
func (s *State) Deplete(now clock.Timestamp, amount uint64) (uint64, error) {
	avail, err := s.Available(now)
	if err != nil {
		return 0, err
	}
	if avail == 0 {
		return 0, lgerrors.ErrInsufficientBuffer
	}
	if amount > avail {
		return 0, lgerrors.ErrRateLimitExceeded
	}
	s.Stored, s.LastUpdate = avail-amount, now
	return s.Stored, nil
}

// Replenish adds amount to the buffer, clamped at Capacity, and returns the
// new stored value plus whether the state changed. A replenish that finds
// the buffer already full is a complete no-op: nothing is written, and in
// particular LastUpdate keeps its old value rather than advancing to now.
func (s *State) Replenish(now clock.Timestamp, amount uint64) (uint64, bool, error) {
	avail, err := s.Available(now)
	if err != nil {
		return 0, false, err
	}
	if avail == s.Capacity {
		return avail, false, nil
	}
	next := numeric.SaturatingAdd(avail, amount)
	if next > s.Capacity {
		next = s.Capacity
	}
	s.Stored, s.LastUpdate = next, now
	return next, true, nil
}

// Sync materializes the regeneration accrued since LastUpdate into Stored
// and advances LastUpdate to now, returning the synced value. Rate and
// capacity changes must be preceded by a sync so that past accrual is
// settled under the old parameters.
func (s *State) Sync(now clock.Timestamp) (uint64, error) {
	avail, err := s.Available(now)
	if err != nil {
		return 0, err
	}
	s.Stored, s.LastUpdate = avail, now
	return avail, nil
}

// SetRatePerSecond syncs the buffer and then replaces the regeneration rate,
// returning the previous rate. On failure the state is unchanged.
func (s *State) SetRatePerSecond(now clock.Timestamp, ratePerSecond uint64) (uint64, error) {
	if _, err := s.Sync(now); err != nil {
		return 0, err
	}
	previous := s.RatePerSecond
	s.RatePerSecond = ratePerSecond
	return previous, nil
}

// SetCapacity syncs the buffer and then replaces the capacity, returning
// the previous capacity. A stored amount above the new capacity is kept as
// is; Available masks it until the next mutation settles it.
func (s *State) SetCapacity(now clock.Timestamp, capacity uint64) (uint64, error) {
	if _, err := s.Sync(now); err != nil {
		return 0, err
	}
	previous := s.Capacity
	s.Capacity = capacity
	return previous, nil
}
