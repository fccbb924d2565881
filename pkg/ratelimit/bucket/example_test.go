package bucket_test

import (
	"fmt"

	"github.com/vnykmshr/ledgerguard/pkg/common/clock"
	"github.com/vnykmshr/ledgerguard/pkg/events"
	"github.com/vnykmshr/ledgerguard/pkg/ratelimit/bucket"
)

// manualClock only moves when the example says so, keeping output stable.
type manualClock struct {
	now clock.Timestamp
}

func (c *manualClock) Now() clock.Timestamp { return c.now }

// Example demonstrates basic usage of the token bucket limiter.
func Example() {
	// A buffer of 5 units with no regeneration.
	limiter, err := bucket.NewSafe(0, 5)
	if err != nil {
		panic(fmt.Sprintf("failed to create limiter: %v", err))
	}

	stored, err := limiter.Deplete(2)
	if err != nil {
		panic(err)
	}
	fmt.Printf("sent 2 units, %d left\n", stored)

	// Asking for more than remains is denied outright.
	if _, err := limiter.Deplete(4); err != nil {
		fmt.Printf("denied: %v\n", err)
	}

	// Output:
	// sent 2 units, 3 left
	// denied: rate limit exceeded
}

// Example_regeneration demonstrates lazy accrual over elapsed seconds.
func Example_regeneration() {
	clk := &manualClock{now: 1_700_000_000}
	limiter, err := bucket.NewWithConfigSafe(bucket.Config{
		RatePerSecond: 10,
		Capacity:      100,
		Clock:         clk,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to create limiter: %v", err))
	}

	if _, err := limiter.Deplete(60); err != nil {
		panic(err)
	}

	// Three seconds later, 30 units have regenerated.
	clk.now += 3
	avail, err := limiter.Available()
	if err != nil {
		panic(err)
	}
	fmt.Printf("available after 3s: %d\n", avail)

	// Output:
	// available after 3s: 70
}

// Example_replenish demonstrates returning unused units to the buffer.
func Example_replenish() {
	limiter, err := bucket.NewSafe(0, 100)
	if err != nil {
		panic(fmt.Sprintf("failed to create limiter: %v", err))
	}

	if _, err := limiter.Deplete(60); err != nil {
		panic(err)
	}

	stored, changed, err := limiter.Replenish(25)
	if err != nil {
		panic(err)
	}
	fmt.Printf("refunded 25, stored now %d (changed=%v)\n", stored, changed)

	// A refund never grows the buffer past its capacity.
	stored, _, err = limiter.Replenish(1000)
	if err != nil {
		panic(err)
	}
	fmt.Printf("oversized refund clamps to %d\n", stored)

	// And refunding a full buffer changes nothing.
	_, changed, err = limiter.Replenish(1)
	if err != nil {
		panic(err)
	}
	fmt.Printf("full buffer refund changed=%v\n", changed)

	// Output:
	// refunded 25, stored now 65 (changed=true)
	// oversized refund clamps to 100
	// full buffer refund changed=false
}

// Example_resume demonstrates persisting a limiter and resuming it later.
func Example_resume() {
	clk := &manualClock{now: 1000}
	limiter, err := bucket.NewWithConfigSafe(bucket.Config{
		RatePerSecond: 2,
		Capacity:      50,
		Clock:         clk,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to create limiter: %v", err))
	}
	if _, err := limiter.Deplete(30); err != nil {
		panic(err)
	}

	// Snapshot the accounting state, e.g. before a restart.
	snapshot := limiter.State()

	// Ten seconds later a new limiter resumes from the snapshot; the
	// downtime regenerates like any other idle time.
	clk.now = 1010
	restored, err := bucket.NewWithConfigSafe(bucket.Config{
		Clock:   clk,
		Initial: &snapshot,
	})
	if err != nil {
		panic(err)
	}
	avail, err := restored.Available()
	if err != nil {
		panic(err)
	}
	fmt.Printf("resumed with %d available\n", avail)

	// Output:
	// resumed with 40 available
}

// Example_rateCeiling demonstrates capping runtime rate changes.
func Example_rateCeiling() {
	limiter, err := bucket.NewWithConfigSafe(bucket.Config{
		RatePerSecond:    10,
		Capacity:         1000,
		MaxRatePerSecond: 100,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to create limiter: %v", err))
	}

	if _, err := limiter.SetRatePerSecond(500); err != nil {
		fmt.Println(err)
	}

	// Output:
	// bucket.SetRatePerSecond failed: rate above maximum (ratePerSecond=500 max=100)
}

// Example_notifications demonstrates observing mutations through a sink.
func Example_notifications() {
	sink := events.SinkFunc(func(e events.Event) {
		fmt.Printf("%s on %s\n", e.Kind(), e.LimiterName())
	})

	limiter, err := bucket.NewWithConfigSafe(bucket.Config{
		RatePerSecond: 0,
		Capacity:      10,
		Sink:          sink,
		Name:          "uploads",
	})
	if err != nil {
		panic(fmt.Sprintf("failed to create limiter: %v", err))
	}

	if _, err := limiter.Deplete(4); err != nil {
		panic(err)
	}
	if _, _, err := limiter.Replenish(2); err != nil {
		panic(err)
	}
	if _, err := limiter.SetRatePerSecond(5); err != nil {
		panic(err)
	}

	// Output:
	// buffer_used on uploads
	// buffer_replenished on uploads
	// rate_updated on uploads
}
