package events

import (
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// DispatcherConfig holds configuration options for creating a Dispatcher.
type DispatcherConfig struct {
	// Sink receives the dispatched events. Required.
	Sink Sink

	// Workers is the number of delivery goroutines. Must be greater than 0.
	Workers int

	// QueueSize is the capacity of the event queue. Must be greater than 0;
	// events emitted while the queue is full are dropped and counted.
	QueueSize int

	// PanicHandler is called when a sink panics during delivery. If nil,
	// panics are recovered and the event is counted as dropped.
	PanicHandler func(event Event, recovered interface{}, stack []byte)
}

// Dispatcher decouples event producers from slow sinks. It implements Sink:
// Emit enqueues without blocking so limiter operations never stall on
// observability, at the cost of dropping events under sustained overload.
// Each worker delivers in FIFO order; ordering across workers is not
// guaranteed.
type Dispatcher struct {
	config DispatcherConfig

	queue chan Event
	done  chan struct{}

	mu           sync.RWMutex
	closed       bool
	shutdownOnce sync.Once
	workerWg     sync.WaitGroup

	dropped uint64
}

// NewDispatcher creates a Dispatcher delivering to sink with the given
// worker count and queue capacity.
func NewDispatcher(sink Sink, workers, queueSize int) *Dispatcher {
	return NewDispatcherWithConfig(DispatcherConfig{
		Sink:      sink,
		Workers:   workers,
		QueueSize: queueSize,
	})
}

// NewDispatcherWithConfig creates a Dispatcher with the specified configuration.
func NewDispatcherWithConfig(config DispatcherConfig) *Dispatcher {
	if config.Sink == nil {
		panic("sink cannot be nil")
	}
	if config.Workers <= 0 {
		panic("worker count must be positive")
	}
	if config.QueueSize <= 0 {
		panic("queue size must be positive")
	}

	d := &Dispatcher{
		config: config,
		queue:  make(chan Event, config.QueueSize),
		done:   make(chan struct{}),
	}

	d.workerWg.Add(config.Workers)
	for i := 0; i < config.Workers; i++ {
		go d.run()
	}

	return d
}

// Emit implements Sink. It never blocks: when the queue is full or the
// dispatcher has been shut down the event is dropped and counted.
func (d *Dispatcher) Emit(e Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		atomic.AddUint64(&d.dropped, 1)
		return
	}

	select {
	case d.queue <- e:
	default:
		atomic.AddUint64(&d.dropped, 1)
	}
}

// Shutdown stops accepting events, delivers everything still queued, and
// closes the returned channel when the workers have drained.
func (d *Dispatcher) Shutdown() <-chan struct{} {
	d.shutdownOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()

		go func() {
			d.workerWg.Wait()
			close(d.done)
		}()
	})

	return d.done
}

// Dropped returns the number of events discarded because the queue was full,
// the dispatcher was shut down, or a sink panicked.
func (d *Dispatcher) Dropped() uint64 {
	return atomic.LoadUint64(&d.dropped)
}

// Pending returns the number of events queued and not yet delivered.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// run is the main loop for a delivery worker.
func (d *Dispatcher) run() {
	defer d.workerWg.Done()

	for e := range d.queue {
		d.deliver(e)
	}
}

// deliver sends one event to the sink, recovering from sink panics so a
// misbehaving sink cannot take down a worker.
func (d *Dispatcher) deliver(e Event) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddUint64(&d.dropped, 1)
			if d.config.PanicHandler != nil {
				d.config.PanicHandler(e, r, debug.Stack())
			}
		}
	}()

	d.config.Sink.Emit(e)
}
