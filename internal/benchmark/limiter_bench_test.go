package benchmark

import (
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/ledgerguard/internal/testutil"
	"github.com/vnykmshr/ledgerguard/pkg/events"
	"github.com/vnykmshr/ledgerguard/pkg/metrics"
	"github.com/vnykmshr/ledgerguard/pkg/ratelimit/bucket"
	"github.com/vnykmshr/ledgerguard/pkg/ratelimit/dynamic"
)

// deepCapacity keeps benchmark buckets from draining within any plausible b.N.
const deepCapacity = uint64(1) << 62

// newBenchBucket returns a limiter that never exhausts under Deplete(1).
func newBenchBucket(b *testing.B, sink events.Sink) bucket.Limiter {
	b.Helper()
	limiter, err := bucket.NewWithConfigSafe(bucket.Config{
		RatePerSecond: 1000,
		Capacity:      deepCapacity,
		Clock:         testutil.NewMockClock(1000),
		Sink:          sink,
		Name:          "bench",
	})
	if err != nil {
		b.Fatalf("failed to create limiter: %v", err)
	}
	return limiter
}

// BenchmarkBucketDeplete measures the uncontended depletion hot path.
func BenchmarkBucketDeplete(b *testing.B) {
	limiter := newBenchBucket(b, nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = limiter.Deplete(1)
	}
}

// BenchmarkBucketDepleteReplenish measures a deplete immediately undone by a
// refund, the shape of a failed settlement.
func BenchmarkBucketDepleteReplenish(b *testing.B) {
	limiter := newBenchBucket(b, nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = limiter.Deplete(5)
		_, _, _ = limiter.Replenish(5)
	}
}

// BenchmarkBucketAvailable measures the read-only availability check.
func BenchmarkBucketAvailable(b *testing.B) {
	limiter := newBenchBucket(b, nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = limiter.Available()
	}
}

// BenchmarkDynamicDeplete measures depletion with the proportional rescale
// attached. The tracked value is large enough that the parameters barely
// move over a run.
func BenchmarkDynamicDeplete(b *testing.B) {
	limiter, err := dynamic.NewWithConfigSafe(dynamic.Config{
		RatePerSecond: 1000,
		Capacity:      deepCapacity,
		Clock:         testutil.NewMockClock(1000),
		Name:          "bench",
	})
	if err != nil {
		b.Fatalf("failed to create limiter: %v", err)
	}
	tracked := uint64(1) << 40

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = limiter.Deplete(1, tracked)
	}
}

// BenchmarkBucketWithMetricsDeplete measures the Prometheus counter overhead
// on the depletion path.
func BenchmarkBucketWithMetricsDeplete(b *testing.B) {
	limiter, err := bucket.NewWithConfigAndMetrics(bucket.Config{
		RatePerSecond: 1000,
		Capacity:      deepCapacity,
		Clock:         testutil.NewMockClock(1000),
		Name:          "bench",
	}, metrics.Config{Enabled: true, Registry: prometheus.NewRegistry()})
	if err != nil {
		b.Fatalf("failed to create limiter: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = limiter.Deplete(1)
	}
}

// BenchmarkBucketDepleteWithSink compares notification delivery strategies
// on the depletion path.
func BenchmarkBucketDepleteWithSink(b *testing.B) {
	var counted uint64

	sinks := []struct {
		name string
		sink events.Sink
	}{
		{"none", nil},
		{"inline", events.SinkFunc(func(events.Event) { atomic.AddUint64(&counted, 1) })},
		{"dispatcher", nil}, // built per run below
	}

	for _, tc := range sinks {
		b.Run(tc.name, func(b *testing.B) {
			sink := tc.sink
			if tc.name == "dispatcher" {
				dispatcher := events.NewDispatcher(events.Nop(), 2, 4096)
				defer func() { <-dispatcher.Shutdown() }()
				sink = dispatcher
			}
			limiter := newBenchBucket(b, sink)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = limiter.Deplete(1)
			}
		})
	}
}

// BenchmarkBucketContention measures the shared-mutex cost with all
// processors hitting one limiter.
func BenchmarkBucketContention(b *testing.B) {
	limiter := newBenchBucket(b, nil)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = limiter.Deplete(1)
		}
	})
}
