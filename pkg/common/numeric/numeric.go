// Package numeric provides checked unsigned arithmetic for accounting values.
//
// Accounting quantities in this library are uint64 and must never wrap
// silently. Every operation here either returns the exact result or fails
// with one of the arithmetic sentinels from pkg/common/errors. Wide
// intermediates (via math/bits) keep multiply-then-divide sequences exact
// where a naive 64-bit computation would overflow.
package numeric

import (
	"math"
	"math/bits"

	lgerrors "github.com/vnykmshr/ledgerguard/pkg/common/errors"
)

// Add returns a+b, failing with ErrArithmeticOverflow when the sum does not
// fit in a uint64.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, lgerrors.ErrArithmeticOverflow
	}
	return sum, nil
}

// Sub returns a-b, failing with ErrArithmeticUnderflow when b exceeds a.
func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, lgerrors.ErrArithmeticUnderflow
	}
	return diff, nil
}

// SaturatingAdd returns a+b, saturating at the maximum uint64 value instead
// of failing. Intended for sums that are clamped to a smaller ceiling right
// after, where saturation keeps the clamp exact.
func SaturatingAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

// MulDiv returns floor(x*num/den). The product is computed in 128 bits, so
// the result is exact whenever it fits in a uint64. Fails with
// ErrDivisionByZero when den is zero and ErrArithmeticOverflow when the
// quotient exceeds the uint64 range.
func MulDiv(x, num, den uint64) (uint64, error) {
	if den == 0 {
		return 0, lgerrors.ErrDivisionByZero
	}
	hi, lo := bits.Mul64(x, num)
	// bits.Div64 panics when the quotient does not fit; reject that case first.
	if hi >= den {
		return 0, lgerrors.ErrArithmeticOverflow
	}
	quo, _ := bits.Div64(hi, lo, den)
	return quo, nil
}

// SaturatingMulAdd returns x*y+add, saturating at the maximum uint64 value.
// The product and sum are carried in 128 bits, so saturation reflects the
// true mathematical value rather than a wrapped one. Callers that clamp the
// result to a smaller ceiling afterwards get an exact min.
func SaturatingMulAdd(x, y, add uint64) uint64 {
	hi, lo := bits.Mul64(x, y)
	sum, carry := bits.Add64(lo, add, 0)
	if hi != 0 || carry != 0 {
		return math.MaxUint64
	}
	return sum
}
