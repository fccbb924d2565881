// Package checkpoint persists limiter state on a cron schedule.
//
// A Checkpointer holds a set of registered sources (anything with a Name and a
// State snapshot, which both limiter flavors provide) and a store.Store. On
// each tick of its cron schedule it writes every source's current state to the
// store under the source's name:
//
//	cp, err := checkpoint.New(checkpoint.Config{
//		Store:    store.NewMemoryStore(),
//		Schedule: "*/10 * * * * *",
//	})
//	if err != nil {
//		return err
//	}
//	cp.Register(limiter)
//	cp.Start()
//	defer func() { <-cp.Stop() }()
//
// Schedules use cron expressions with a seconds field ("*/30 * * * * *" runs
// every 30 seconds) plus the @every descriptors. Runs can also be driven by
// hand with SnapshotNow, which is what the schedule loop itself calls.
//
// Saves rejected by the store as stale are treated as skips rather than
// failures: with several instances checkpointing the same limiter, losing the
// race means someone else persisted a newer snapshot, which is the outcome
// checkpointing wants. Real failures are logged, counted in the run metrics,
// and joined into the error SnapshotNow returns; one source failing never
// stops the others from being saved.
//
// After a restart, load the snapshot (Restore or store.Load) and hand it to
// the limiter constructor as Config.Initial to resume accounting where the
// previous process stopped.
package checkpoint
