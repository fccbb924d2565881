package reentrancy

import (
	"errors"
	"sync"

	"github.com/vnykmshr/ledgerguard/pkg/common/clock"
)

// Level is the reentrancy depth of the guard.
type Level uint8

const (
	// LevelFree means no call holds the guard.
	LevelFree Level = 0

	// LevelEntered means one call holds the guard.
	LevelEntered Level = 1

	// LevelNested means a second, different caller entered within the
	// same time step. No deeper nesting exists.
	LevelNested Level = 2
)

// CallerID identifies the call site holding or requesting the guard.
type CallerID string

// Protocol violations reported by Lock and Unlock. All of them leave the
// guard exactly as it was; there is no partial transition.
var (
	// ErrInvalidLockLevel is returned when the requested level is not the
	// next one up, or lies beyond LevelNested.
	ErrInvalidLockLevel = errors.New("invalid lock level")

	// ErrInvalidUnlockLevel is returned when the requested level is not
	// the next one down.
	ErrInvalidUnlockLevel = errors.New("invalid unlock level")

	// ErrNotEntered is returned when unlocking a free guard.
	ErrNotEntered = errors.New("not entered")

	// ErrNotEnteredThisStep is returned when a call arrives in a later
	// time step than the one the current lock sequence began in. The
	// guard is stuck and stays that way; see the package documentation.
	ErrNotEnteredThisStep = errors.New("not entered this time step")

	// ErrReentrantCaller is returned when the level-1 holder itself tries
	// to enter or release the nested level.
	ErrReentrantCaller = errors.New("reentrant caller")

	// ErrNotOriginalLocker is returned when the final release comes from
	// a caller other than the one that acquired level 1.
	ErrNotOriginalLocker = errors.New("not original locker")
)

// Guard is a two-level reentrancy lock. It records who acquired level 1 and
// in which time step, and admits exactly one nested entry by a different
// caller within that same step. Both the caller identity and the time step
// are supplied explicitly on every call; the guard has no clock of its own.
//
// Guard methods are safe for concurrent use, but the protocol they enforce
// is about nested call graphs, not parallel goroutines: a sequence that
// interleaves concurrently will simply be rejected as a violation.
type Guard struct {
	mu         sync.Mutex
	name       string
	level      Level
	lastCaller CallerID
	lastEntry  clock.Timestamp
}

// New creates a free guard. The name identifies it in metrics and logs.
func New(name string) *Guard {
	return &Guard{name: name}
}

// Lock acquires the next level up. Levels are acquired strictly one at a
// time: target must equal the current level plus one, and nothing beyond
// LevelNested is ever valid. The first acquisition records the caller and
// step; the nested acquisition must happen within that same step and must
// come from a different caller.
func (g *Guard) Lock(step clock.Timestamp, caller CallerID, target Level) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if target > LevelNested || target != g.level+1 {
		return ErrInvalidLockLevel
	}

	if g.level == LevelFree {
		g.lastCaller = caller
		g.lastEntry = step
		g.level = LevelEntered
		return nil
	}

	// Nested acquisition: the original holder's identity and entry step
	// stay recorded so the final release can verify them.
	if step != g.lastEntry {
		return ErrNotEnteredThisStep
	}
	if caller == g.lastCaller {
		return ErrReentrantCaller
	}
	g.level = LevelNested
	return nil
}

// Unlock releases the next level down. The step check runs before anything
// else: once a lock sequence is stranded in an earlier step, every unlock
// reports ErrNotEnteredThisStep no matter its other arguments. The final
// release must come from the original level-1 caller; the nested release
// must not.
func (g *Guard) Unlock(step clock.Timestamp, caller CallerID, target Level) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if step != g.lastEntry {
		return ErrNotEnteredThisStep
	}
	if g.level == LevelFree {
		return ErrNotEntered
	}
	if target != g.level-1 {
		return ErrInvalidUnlockLevel
	}

	if target == LevelFree {
		if caller != g.lastCaller {
			return ErrNotOriginalLocker
		}
		g.level = LevelFree
		return nil
	}

	// Releasing the nested level: only the nested (different) caller may.
	if caller == g.lastCaller {
		return ErrReentrantCaller
	}
	g.level = LevelEntered
	return nil
}

// Level returns the current lock level.
func (g *Guard) Level() Level {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.level
}

// LastCaller returns the identity that acquired level 1. It is meaningful
// only while the guard is held.
func (g *Guard) LastCaller() CallerID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastCaller
}

// LastEntryTime returns the step the current lock sequence began in. It is
// meaningful only while the guard is held.
func (g *Guard) LastEntryTime() clock.Timestamp {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastEntry
}

// Name returns the guard's identifier.
func (g *Guard) Name() string {
	return g.name
}
