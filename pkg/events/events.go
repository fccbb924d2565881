// Package events defines the notifications emitted by managed limiters and
// the sinks that receive them.
//
// Events carry the operation's amounts and the resulting stored value rather
// than full state snapshots, so sinks can aggregate without holding limiter
// references. Delivery is synchronous unless a Dispatcher is placed between
// the limiter and its sinks.
package events

import (
	"github.com/vnykmshr/ledgerguard/pkg/common/clock"
)

// Kind identifies the event type without type assertions.
type Kind string

const (
	KindBufferUsed        Kind = "buffer_used"
	KindBufferReplenished Kind = "buffer_replenished"
	KindRateUpdated       Kind = "rate_updated"
	KindCapacityUpdated   Kind = "capacity_updated"
)

// Event is implemented by all notification payloads.
type Event interface {
	// Kind identifies the concrete event type.
	Kind() Kind

	// LimiterName returns the name of the limiter that emitted the event.
	LimiterName() string
}

// BufferUsed reports a successful depletion.
type BufferUsed struct {
	Limiter string
	Amount  uint64
	Stored  uint64
	Time    clock.Timestamp
}

func (BufferUsed) Kind() Kind { return KindBufferUsed }

func (e BufferUsed) LimiterName() string { return e.Limiter }

// BufferReplenished reports a successful replenishment. It is not emitted
// when a replenish found the buffer already full.
type BufferReplenished struct {
	Limiter string
	Amount  uint64
	Stored  uint64
	Time    clock.Timestamp
}

func (BufferReplenished) Kind() Kind { return KindBufferReplenished }

func (e BufferReplenished) LimiterName() string { return e.Limiter }

// RateUpdated reports a change of the regeneration rate, including the
// proportional rescaling done by value-tracking limiters.
type RateUpdated struct {
	Limiter  string
	Previous uint64
	Current  uint64
	Time     clock.Timestamp
}

func (RateUpdated) Kind() Kind { return KindRateUpdated }

func (e RateUpdated) LimiterName() string { return e.Limiter }

// CapacityUpdated reports a change of the buffer capacity, including the
// proportional rescaling done by value-tracking limiters.
type CapacityUpdated struct {
	Limiter  string
	Previous uint64
	Current  uint64
	Time     clock.Timestamp
}

func (CapacityUpdated) Kind() Kind { return KindCapacityUpdated }

func (e CapacityUpdated) LimiterName() string { return e.Limiter }

// Sink receives events from managed limiters. Implementations must be safe
// for concurrent use; Emit is called while the limiter's own lock is held,
// so implementations should return quickly and never call back into the
// limiter.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit implements Sink.
func (f SinkFunc) Emit(e Event) { f(e) }

type nopSink struct{}

func (nopSink) Emit(Event) {}

// Nop returns a Sink that discards all events.
func Nop() Sink { return nopSink{} }

type multiSink struct {
	sinks []Sink
}

func (m multiSink) Emit(e Event) {
	for _, s := range m.sinks {
		s.Emit(e)
	}
}

// Multi returns a Sink that delivers each event to all given sinks in order.
func Multi(sinks ...Sink) Sink {
	out := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s == nil {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 1 {
		return out[0]
	}
	return multiSink{sinks: out}
}
