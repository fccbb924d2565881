// Package integration contains integration tests that verify cross-package
// functionality. These tests wire limiters, guards, events, and persistence
// together the way an embedding ledger would.
package integration

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vnykmshr/ledgerguard/internal/testutil"
	"github.com/vnykmshr/ledgerguard/pkg/audit"
	"github.com/vnykmshr/ledgerguard/pkg/checkpoint"
	lgerrors "github.com/vnykmshr/ledgerguard/pkg/common/errors"
	"github.com/vnykmshr/ledgerguard/pkg/events"
	"github.com/vnykmshr/ledgerguard/pkg/metrics"
	"github.com/vnykmshr/ledgerguard/pkg/ratelimit/bucket"
	"github.com/vnykmshr/ledgerguard/pkg/reentrancy"
	"github.com/vnykmshr/ledgerguard/pkg/store"
)

// TestSettlementFlow runs one vault through a guarded settlement sequence
// with the full observability and persistence stack attached, then restores
// it from the checkpoint as a restarted process would.
func TestSettlementFlow(t *testing.T) {
	clk := testutil.NewMockClock(1000)

	core, observed := observer.New(zapcore.InfoLevel)
	dispatcher := events.NewDispatcher(audit.NewSink(zap.New(core)), 1, 64)

	limiter, err := bucket.NewWithConfigSafe(bucket.Config{
		RatePerSecond: 100,
		Capacity:      1000,
		Clock:         clk,
		Sink:          dispatcher,
		Name:          "vault-main",
	})
	testutil.AssertNoError(t, err)

	guard := reentrancy.New("vault-main")

	// One settlement step: take the guard, move funds, release.
	settle := func(caller reentrancy.CallerID, amount uint64) error {
		step := clk.Now()
		if err := guard.Lock(step, caller, reentrancy.LevelEntered); err != nil {
			return err
		}
		_, depleteErr := limiter.Deplete(amount)
		if err := guard.Unlock(step, caller, reentrancy.LevelFree); err != nil {
			return err
		}
		return depleteErr
	}

	testutil.AssertNoError(t, settle("alpha", 300))
	testutil.AssertEqual(t, limiter.Stored(), uint64(700))

	clk.Advance(2) // regenerates 200

	testutil.AssertNoError(t, settle("beta", 900))
	testutil.AssertEqual(t, limiter.Stored(), uint64(0))

	// An empty vault refuses even the smallest settlement.
	testutil.AssertErrorIs(t, settle("alpha", 1), lgerrors.ErrInsufficientBuffer)

	// The failed settlement must have released the guard.
	testutil.AssertEqual(t, guard.Level(), reentrancy.LevelFree)

	_, changed, err := limiter.Replenish(50)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, changed, true)

	// Only the successful mutations reach the audit trail.
	<-dispatcher.Shutdown()
	entries := observed.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 audit entries, got %d", len(entries))
	}
	testutil.AssertEqual(t, entries[0].Message, string(events.KindBufferUsed))
	testutil.AssertEqual(t, entries[1].Message, string(events.KindBufferUsed))
	testutil.AssertEqual(t, entries[2].Message, string(events.KindBufferReplenished))
	for _, entry := range entries {
		testutil.AssertEqual(t, entry.ContextMap()["limiter"].(string), "vault-main")
	}

	// Checkpoint, then resume a fresh limiter from the snapshot.
	st := store.NewMemoryStore()
	defer func() { _ = st.Close() }()

	cp, err := checkpoint.New(checkpoint.Config{Store: st})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, cp.Register(limiter))
	testutil.AssertNoError(t, cp.SnapshotNow(context.Background()))

	saved, err := cp.Restore(context.Background(), "vault-main")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, saved, limiter.State())

	clk.Advance(1)
	resumed, err := bucket.NewWithConfigSafe(bucket.Config{
		Clock:   clk,
		Name:    "vault-main",
		Initial: &saved,
	})
	testutil.AssertNoError(t, err)

	available, err := resumed.Available()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, available, uint64(150)) // 50 stored + 100 accrued
}

// TestConcurrentSettlements drains a fixed allowance from many workers that
// serialize through the guard. Every unit must be accounted for exactly once.
func TestConcurrentSettlements(t *testing.T) {
	clk := testutil.NewMockClock(5000)

	limiter, err := bucket.NewWithConfigSafe(bucket.Config{
		RatePerSecond: 0, // no regeneration: the total is fixed
		Capacity:      10_000,
		Clock:         clk,
		Name:          "vault-race",
	})
	testutil.AssertNoError(t, err)

	guard := reentrancy.New("vault-race")

	const workers = 8
	const amount = 5

	var wg sync.WaitGroup
	settled := make([]uint64, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			caller := reentrancy.CallerID(string(rune('a' + id)))

			for {
				step := clk.Now()
				if err := guard.Lock(step, caller, reentrancy.LevelEntered); err != nil {
					// Someone else holds the guard; try again.
					runtime.Gosched()
					continue
				}
				_, depleteErr := limiter.Deplete(amount)
				if err := guard.Unlock(step, caller, reentrancy.LevelFree); err != nil {
					t.Errorf("worker %d failed to release: %v", id, err)
					return
				}
				if depleteErr != nil {
					if !errors.Is(depleteErr, lgerrors.ErrInsufficientBuffer) {
						t.Errorf("worker %d: unexpected deplete error: %v", id, depleteErr)
					}
					return
				}
				settled[id] += amount
			}
		}(i)
	}

	wg.Wait()

	var total uint64
	for _, s := range settled {
		total += s
	}
	testutil.AssertEqual(t, total, uint64(10_000))
	testutil.AssertEqual(t, limiter.Stored(), uint64(0))
	testutil.AssertEqual(t, guard.Level(), reentrancy.LevelFree)
}

// TestMetricsAcrossComponents checks that limiter, guard, and checkpointer
// publish to their own registries from one flow. Each component gets its own
// Prometheus registry; sharing one would collide on family registration.
func TestMetricsAcrossComponents(t *testing.T) {
	clk := testutil.NewMockClock(2000)

	limiterReg := prometheus.NewRegistry()
	limiter, err := bucket.NewWithConfigAndMetrics(bucket.Config{
		RatePerSecond: 10,
		Capacity:      200,
		Clock:         clk,
		Name:          "vault-obs",
	}, metrics.Config{Enabled: true, Registry: limiterReg})
	testutil.AssertNoError(t, err)

	guardReg := prometheus.NewRegistry()
	guard := reentrancy.NewWithConfigAndMetrics("vault-obs", metrics.Config{
		Enabled:  true,
		Registry: guardReg,
	})

	checkpointReg := prometheus.NewRegistry()
	st := store.NewMemoryStore()
	defer func() { _ = st.Close() }()

	cp, err := checkpoint.New(checkpoint.Config{
		Store:   st,
		Metrics: metrics.Config{Enabled: true, Registry: checkpointReg},
	})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, cp.Register(limiter))

	// One guarded settlement, one oversized denial, one reentrancy refusal.
	step := clk.Now()
	testutil.AssertNoError(t, guard.Lock(step, "settler", reentrancy.LevelEntered))
	_, err = limiter.Deplete(150)
	testutil.AssertNoError(t, err)
	_, err = limiter.Deplete(500)
	testutil.AssertErrorIs(t, err, lgerrors.ErrRateLimitExceeded)
	testutil.AssertErrorIs(t,
		guard.Lock(step, "settler", reentrancy.LevelNested),
		reentrancy.ErrReentrantCaller)
	testutil.AssertNoError(t, guard.Unlock(step, "settler", reentrancy.LevelFree))

	testutil.AssertNoError(t, cp.SnapshotNow(context.Background()))
	testutil.AssertEqual(t, limiter.Stored(), uint64(50))

	limiterExpected := `
# HELP ledgerguard_buffer_deplete_denied_total Total number of denied depletion attempts
# TYPE ledgerguard_buffer_deplete_denied_total counter
ledgerguard_buffer_deplete_denied_total{limiter="vault-obs",reason="rate_limit_exceeded"} 1
# HELP ledgerguard_buffer_deplete_requests_total Total number of depletion attempts
# TYPE ledgerguard_buffer_deplete_requests_total counter
ledgerguard_buffer_deplete_requests_total{limiter="vault-obs"} 2
`
	testutil.AssertNoError(t, promtestutil.GatherAndCompare(limiterReg,
		strings.NewReader(limiterExpected),
		"ledgerguard_buffer_deplete_requests_total",
		"ledgerguard_buffer_deplete_denied_total"))

	guardExpected := `
# HELP ledgerguard_guard_lock_acquired_total Total number of successful lock acquisitions
# TYPE ledgerguard_guard_lock_acquired_total counter
ledgerguard_guard_lock_acquired_total{guard="vault-obs",level="1"} 1
# HELP ledgerguard_guard_lock_released_total Total number of successful lock releases
# TYPE ledgerguard_guard_lock_released_total counter
ledgerguard_guard_lock_released_total{guard="vault-obs",level="0"} 1
# HELP ledgerguard_guard_lock_violations_total Total number of rejected lock and unlock attempts
# TYPE ledgerguard_guard_lock_violations_total counter
ledgerguard_guard_lock_violations_total{guard="vault-obs",reason="reentrant_caller"} 1
`
	testutil.AssertNoError(t, promtestutil.GatherAndCompare(guardReg,
		strings.NewReader(guardExpected),
		"ledgerguard_guard_lock_acquired_total",
		"ledgerguard_guard_lock_released_total",
		"ledgerguard_guard_lock_violations_total"))

	checkpointExpected := `
# HELP ledgerguard_checkpoint_runs_total Total number of checkpoint runs
# TYPE ledgerguard_checkpoint_runs_total counter
ledgerguard_checkpoint_runs_total{status="success"} 1
# HELP ledgerguard_checkpoint_sources_total Total number of per-source snapshot saves
# TYPE ledgerguard_checkpoint_sources_total counter
ledgerguard_checkpoint_sources_total{source="vault-obs",status="saved"} 1
`
	testutil.AssertNoError(t, promtestutil.GatherAndCompare(checkpointReg,
		strings.NewReader(checkpointExpected),
		"ledgerguard_checkpoint_runs_total",
		"ledgerguard_checkpoint_sources_total"))
}
