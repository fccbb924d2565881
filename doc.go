/*
Package ledgerguard provides budget-accounting primitives for systems that
meter transfers against a regenerating allowance.

Rate Limiting (pkg/ratelimit):
  - bucket: Fixed token bucket over unsigned integer amounts
  - dynamic: Bucket whose rate and capacity rescale with a tracked value

Call Protection (pkg/reentrancy):
  - Two-level reentrancy guard keyed on caller identity and time step

Operations (pkg):
  - events: Notification types, sinks, and an asynchronous dispatcher
  - metrics: Prometheus registry and an event-counting sink
  - audit: Structured zap audit trail for limiter events
  - store: Snapshot persistence, in-memory and Redis-backed
  - checkpoint: Cron-scheduled snapshotting of registered limiters

Example usage:

	import (
		"github.com/vnykmshr/ledgerguard/pkg/ratelimit/bucket"
		"github.com/vnykmshr/ledgerguard/pkg/reentrancy"
	)

	limiter, _ := bucket.NewSafe(10, 1000) // regain 10 units/s, hold 1000
	guard := reentrancy.New("vault")

	if err := guard.Lock(step, caller, reentrancy.LevelEntered); err != nil {
		return err
	}
	defer guard.Unlock(step, caller, reentrancy.LevelFree)

	if _, err := limiter.Deplete(amount); err != nil {
		return err // insufficient buffer or rate limit exceeded
	}
*/
package ledgerguard
