package store

import (
	"context"
	"testing"

	"github.com/vnykmshr/ledgerguard/internal/testutil"
	lgerrors "github.com/vnykmshr/ledgerguard/pkg/common/errors"
	"github.com/vnykmshr/ledgerguard/pkg/ratelimit/bucket"
)

// runStoreTests exercises the Store contract. Both implementations run it;
// backend-specific behavior lives in their own test files.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("save and load round trip", func(t *testing.T) {
		s := newStore(t)
		saved := bucket.State{RatePerSecond: 7, Capacity: 100, LastUpdate: 1234, Stored: 40}

		testutil.AssertNoError(t, s.Save(ctx, "xfer", saved))

		loaded, err := s.Load(ctx, "xfer")
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, loaded, saved)
	})

	t.Run("load missing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Load(ctx, "nope")
		testutil.AssertErrorIs(t, err, ErrNotFound)
	})

	t.Run("newer snapshot overwrites", func(t *testing.T) {
		s := newStore(t)
		testutil.AssertNoError(t, s.Save(ctx, "xfer", bucket.State{Capacity: 100, LastUpdate: 1000, Stored: 80}))
		testutil.AssertNoError(t, s.Save(ctx, "xfer", bucket.State{Capacity: 100, LastUpdate: 2000, Stored: 30}))

		loaded, err := s.Load(ctx, "xfer")
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, loaded.Stored, uint64(30))
	})

	t.Run("equal timestamp overwrites", func(t *testing.T) {
		// Several mutations can land within one clock second; the last
		// checkpoint of that second must win.
		s := newStore(t)
		testutil.AssertNoError(t, s.Save(ctx, "xfer", bucket.State{Capacity: 100, LastUpdate: 1000, Stored: 80}))
		testutil.AssertNoError(t, s.Save(ctx, "xfer", bucket.State{Capacity: 100, LastUpdate: 1000, Stored: 75}))

		loaded, err := s.Load(ctx, "xfer")
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, loaded.Stored, uint64(75))
	})

	t.Run("stale snapshot rejected", func(t *testing.T) {
		s := newStore(t)
		current := bucket.State{Capacity: 100, LastUpdate: 2000, Stored: 30}
		testutil.AssertNoError(t, s.Save(ctx, "xfer", current))

		err := s.Save(ctx, "xfer", bucket.State{Capacity: 100, LastUpdate: 1500, Stored: 99})
		testutil.AssertErrorIs(t, err, ErrStaleState)

		loaded, err := s.Load(ctx, "xfer")
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, loaded, current)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		testutil.AssertNoError(t, s.Save(ctx, "xfer", bucket.State{Capacity: 1, LastUpdate: 1}))

		testutil.AssertNoError(t, s.Delete(ctx, "xfer"))
		_, err := s.Load(ctx, "xfer")
		testutil.AssertErrorIs(t, err, ErrNotFound)

		testutil.AssertErrorIs(t, s.Delete(ctx, "xfer"), ErrNotFound)
	})

	t.Run("list is sorted", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"zeta", "alpha", "mid"} {
			testutil.AssertNoError(t, s.Save(ctx, name, bucket.State{Capacity: 1, LastUpdate: 1}))
		}

		names, err := s.List(ctx)
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, len(names), 3)
		testutil.AssertEqual(t, names[0], "alpha")
		testutil.AssertEqual(t, names[1], "mid")
		testutil.AssertEqual(t, names[2], "zeta")
	})

	t.Run("list empty", func(t *testing.T) {
		s := newStore(t)

		names, err := s.List(ctx)
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, len(names), 0)
	})

	t.Run("operations after close", func(t *testing.T) {
		s := newStore(t)
		testutil.AssertNoError(t, s.Close())

		testutil.AssertErrorIs(t, s.Save(ctx, "xfer", bucket.State{Capacity: 1, LastUpdate: 1}), lgerrors.ErrClosed)
		_, err := s.Load(ctx, "xfer")
		testutil.AssertErrorIs(t, err, lgerrors.ErrClosed)
		_, err = s.List(ctx)
		testutil.AssertErrorIs(t, err, lgerrors.ErrClosed)

		// Close is idempotent.
		testutil.AssertNoError(t, s.Close())
	})
}
