// Package clock defines the discrete time model used across the ledgerguard
// library.
//
// All accounting state keeps time as whole seconds in a 32-bit unsigned
// Timestamp. Operations never read the wall clock themselves; the embedding
// caller (or a managed wrapper holding a Clock) supplies the current
// Timestamp on every call, which keeps the core state machines deterministic
// and replayable.
package clock

import (
	"math"
	"time"

	lgerrors "github.com/vnykmshr/ledgerguard/pkg/common/errors"
)

// Timestamp is a point in time measured in whole seconds since the Unix
// epoch. The 32-bit range is bounded; conversions from wider types are
// checked rather than truncated.
type Timestamp uint32

// MaxTimestamp is the largest representable Timestamp.
const MaxTimestamp = Timestamp(math.MaxUint32)

// Time converts the timestamp to a time.Time in UTC.
func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t), 0).UTC()
}

// Add returns the timestamp advanced by the given number of seconds,
// failing with ErrArithmeticOverflow when the result leaves the 32-bit range.
func (t Timestamp) Add(seconds uint32) (Timestamp, error) {
	sum := uint64(t) + uint64(seconds)
	if sum > math.MaxUint32 {
		return 0, lgerrors.ErrArithmeticOverflow
	}
	return Timestamp(sum), nil
}

// FromUnix converts Unix seconds to a Timestamp, failing loudly when the
// value does not fit the 32-bit range.
func FromUnix(sec int64) (Timestamp, error) {
	if sec < 0 {
		return 0, lgerrors.ErrArithmeticUnderflow
	}
	if sec > math.MaxUint32 {
		return 0, lgerrors.ErrArithmeticOverflow
	}
	return Timestamp(sec), nil
}

// FromTime converts a time.Time to a Timestamp, failing loudly when the
// value does not fit the 32-bit range.
func FromTime(t time.Time) (Timestamp, error) {
	return FromUnix(t.Unix())
}

// Clock provides the current Timestamp. Managed wrappers use it so tests can
// substitute a controllable time source.
type Clock interface {
	Now() Timestamp
}

// SystemClock implements Clock using the system wall clock.
type SystemClock struct{}

// Now returns the current time. The 32-bit second range outlives the
// deployment horizon of this library, so the narrowing here is unchecked.
func (SystemClock) Now() Timestamp {
	return Timestamp(time.Now().Unix())
}
