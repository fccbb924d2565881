/*
Package ratelimit provides budget-accounting rate limiters.

This package offers two limiter flavors:

  - bucket: Token bucket over unsigned integer amounts with lazy regeneration
  - dynamic: Token bucket whose parameters track an external reference value

The token bucket accounts whole units (bytes, messages, credits) against a
regenerating buffer. Requests either succeed in full or fail with a typed
error; there is no partial grant and no blocking:

	limiter := bucket.New(1000, 50_000) // 1000 units/sec, 50k capacity
	if _, err := limiter.Deplete(4096); err != nil {
		// Denied: buffer empty or request larger than what is available
	}

The dynamic limiter keeps its rate and capacity proportional to a value the
caller tracks, such as a fleet size or a subscription tier multiplier:

	limiter := dynamic.New(1000, 50_000) // scales as the tracked value moves
	if _, err := limiter.Deplete(4096, previousValue); err != nil {
		// Denied, or the rescale could not be represented
	}

Both limiters support:
  - Deplete/Replenish with all-or-nothing semantics
  - Runtime rate and capacity changes with prior accrual settled first
  - State snapshots for persistence and resumption
  - Notification sinks for successful mutations

All limiters are safe for concurrent use. Time is measured in whole seconds
through a pluggable clock, so accounting is reproducible in tests.
*/
package ratelimit
