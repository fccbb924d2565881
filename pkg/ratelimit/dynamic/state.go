package dynamic

import (
	"github.com/vnykmshr/ledgerguard/pkg/common/clock"
	lgerrors "github.com/vnykmshr/ledgerguard/pkg/common/errors"
	"github.com/vnykmshr/ledgerguard/pkg/common/numeric"
	"github.com/vnykmshr/ledgerguard/pkg/ratelimit/bucket"
)

// Deplete draws amount from the state and rescales rate and capacity in
// proportion to the tracked value, as one transition: on any failure the
// state is untouched, including when the bucket draw itself would have
// succeeded. Bucket failures take precedence over rescale failures.
//
// The rescale can leave Stored above the shrunken Capacity; as with
// SetCapacity, reads mask the excess until the next mutation settles it.
func Deplete(s *bucket.State, now clock.Timestamp, amount, previousValue uint64) (uint64, error) {
	next := *s
	stored, err := next.Deplete(now, amount)
	if err != nil {
		return 0, err
	}

	if previousValue == 0 {
		return 0, lgerrors.ErrDivisionByZero
	}
	newValue, err := numeric.Sub(previousValue, amount)
	if err != nil {
		return 0, err
	}
	rate, err := numeric.MulDiv(next.RatePerSecond, newValue, previousValue)
	if err != nil {
		return 0, err
	}
	capacity, err := numeric.MulDiv(next.Capacity, newValue, previousValue)
	if err != nil {
		return 0, err
	}

	next.RatePerSecond, next.Capacity = rate, capacity
	*s = next
	return stored, nil
}

// Replenish returns amount to the state and rescales rate and capacity in
// proportion to the grown tracked value, as one transition. A replenish
// that finds the buffer full skips the rescale entirely and reports no
// change; even a zero previousValue is not an error then. On any failure
// the state is untouched.
func Replenish(s *bucket.State, now clock.Timestamp, amount, previousValue uint64) (uint64, bool, error) {
	next := *s
	stored, changed, err := next.Replenish(now, amount)
	if err != nil {
		return 0, false, err
	}
	if !changed {
		return stored, false, nil
	}

	if previousValue == 0 {
		return 0, false, lgerrors.ErrDivisionByZero
	}
	newValue, err := numeric.Add(previousValue, amount)
	if err != nil {
		return 0, false, err
	}
	rate, err := numeric.MulDiv(next.RatePerSecond, newValue, previousValue)
	if err != nil {
		return 0, false, err
	}
	capacity, err := numeric.MulDiv(next.Capacity, newValue, previousValue)
	if err != nil {
		return 0, false, err
	}

	next.RatePerSecond, next.Capacity = rate, capacity
	*s = next
	return stored, true, nil
}
