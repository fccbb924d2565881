// Package store persists limiter state snapshots.
//
// A Store holds one bucket.State per limiter name. Saves are guarded by a
// staleness check: a snapshot whose LastUpdate is older than the one already
// stored is rejected with ErrStaleState, so replayed or out-of-order
// checkpoints never roll accounting backwards. Snapshots with equal
// timestamps overwrite, since a limiter can change several times within one
// clock second.
//
// Two implementations ship with the package: MemoryStore for tests and
// single-process embeddings, and RedisStore for state that must survive the
// process or be shared across instances.
package store

import (
	"context"
	"errors"

	"github.com/vnykmshr/ledgerguard/pkg/ratelimit/bucket"
)

var (
	// ErrNotFound is returned when no snapshot exists under the given name.
	ErrNotFound = errors.New("state not found")

	// ErrStaleState is returned when a save carries an older LastUpdate
	// than the snapshot already stored under the same name.
	ErrStaleState = errors.New("stale state")
)

// Store persists limiter snapshots keyed by limiter name. Implementations
// must be safe for concurrent use.
type Store interface {
	// Save stores the snapshot under name. Stale snapshots are rejected
	// with ErrStaleState.
	Save(ctx context.Context, name string, state bucket.State) error

	// Load returns the snapshot stored under name, or ErrNotFound.
	Load(ctx context.Context, name string) (bucket.State, error)

	// Delete removes the snapshot stored under name, or returns
	// ErrNotFound if there is none.
	Delete(ctx context.Context, name string) error

	// List returns the names of all stored snapshots in sorted order.
	List(ctx context.Context) ([]string, error)

	// Close releases resources held by the store. Operations after Close
	// fail with errors.ErrClosed.
	Close() error
}
