/*
Package reentrancy provides a two-level reentrancy guard for call graphs
that are stamped with an external, coarse-grained time step.

The guard tracks three pieces of state: the current lock level, the caller
that acquired level 1, and the time step that acquisition happened in. A
lock sequence looks like this:

	guard := reentrancy.New("vault")

	// Caller A opens the sequence at step 42.
	guard.Lock(42, "caller-a", reentrancy.LevelEntered)

	// Caller B nests once, within the same step.
	guard.Lock(42, "caller-b", reentrancy.LevelNested)
	guard.Unlock(42, "caller-b", reentrancy.LevelEntered)

	// Only A may release the final level.
	guard.Unlock(42, "caller-a", reentrancy.LevelFree)

Levels move strictly one at a time, in both directions. The nested level
exists for the one legitimate re-entry pattern: a different component
calling back into the protected section during the same step. The same
caller re-entering is the bug the guard exists to catch, so both the
nested acquisition and the final release check identity, in opposite
directions: the nested entry must come from a different caller than the
level-1 holder, and the final release must come from the level-1 holder
itself.

# Time steps and stuck locks

The step argument is not wall-clock time. It is whatever coarse counter
the surrounding system advances between units of work; all calls of one
lock sequence must carry the same value. If a sequence is abandoned while
held and the step advances, the guard is stuck: every subsequent call
fails with ErrNotEnteredThisStep, including the unlock that would free it.
That is deliberate. A lock leaking across a step boundary means the
protected invariants are in an unknown state, and the guard refuses to
paper over it. Recovery requires outside intervention, such as restoring
state from a checkpoint and constructing a fresh guard.

Violations never change the guard. Every error leaves the level, caller,
and entry step exactly as they were, so callers can log the rejection and
decide what to do without worrying about half-applied transitions.

Use NewWithMetrics or NewWithConfigAndMetrics to wrap a guard with
Prometheus instrumentation: a gauge for the current level and counters for
acquisitions, releases, and violations by reason.
*/
package reentrancy
