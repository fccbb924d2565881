/*
Package dynamic provides a token bucket whose rate and capacity track an
external reference value.

The caller owns some aggregate quantity (total value locked in a vault, the
size of a replicated fleet, a subscription tier sum) and wants the bucket's
throughput to stay proportional to it. Instead of calling SetRatePerSecond
and SetCapacity after every change, the caller passes the quantity's previous
value with each Deplete and Replenish, and the limiter rescales itself in the
same step:

	ratePerSecond' = floor(ratePerSecond × newValue / previousValue)
	capacity'      = floor(capacity × newValue / previousValue)

where newValue is previousValue minus the depleted amount, or plus the
replenished amount. As the protected resource shrinks the bucket winds down
with it, and as it grows the bucket winds up, without explicit resize calls.

Basic usage:

	limiter := dynamic.New(1000, 50_000)

	// Withdraw 4096 units from a resource currently holding one million.
	if _, err := limiter.Deplete(4096, 1_000_000); err != nil {
		// Denied, or the rescale could not be represented
	}

The limiter holds no memory of the tracked value; the caller supplies
previousValue on every call and is responsible for keeping it accurate.

Failure modes beyond the fixed bucket's:

  - DivisionByZero: previousValue was zero while a rescale was required
  - ArithmeticUnderflow: depleting more than previousValue held
  - ArithmeticOverflow: a scaled-up rate or capacity exceeds 64 bits

Every operation is all-or-nothing. When the rescale fails, the bucket draw
that preceded it is rolled back too; no caller observes a depleted buffer
with unscaled parameters. One deliberate asymmetry carries over from the
fixed bucket: a replenish that finds the buffer already full is a complete
no-op, and the rescale is skipped as well even though the tracked value
nominally grew.

Sync, SetRatePerSecond, SetCapacity, state snapshots, and notification sinks
behave exactly as in the bucket package; both limiters share the same
persistable state type.
*/
package dynamic
