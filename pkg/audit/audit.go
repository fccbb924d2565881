// Package audit turns limiter notifications into a structured audit trail.
//
// The Sink implements events.Sink and writes one zap record per event,
// tagged with a fresh record ID so downstream log pipelines can deduplicate
// and cross-reference. It is intentionally dumb: no buffering, no filtering.
// Wrap it in an events.Dispatcher when log latency must stay off the
// limiter's lock, and use zap sampling or level configuration to thin the
// stream.
package audit

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vnykmshr/ledgerguard/pkg/events"
)

// Sink writes every received event as a structured log record.
type Sink struct {
	log *zap.Logger
}

// NewSink creates an audit sink writing through the given logger. A nil
// logger discards all records.
func NewSink(logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{log: logger.Named("audit")}
}

// Emit implements events.Sink. The record's message is the event kind; the
// payload becomes typed fields.
func (s *Sink) Emit(e events.Event) {
	fields := make([]zap.Field, 0, 6)
	fields = append(fields,
		zap.String("event_id", uuid.NewString()),
		zap.String("limiter", e.LimiterName()),
	)

	switch ev := e.(type) {
	case events.BufferUsed:
		fields = append(fields,
			zap.Uint64("amount", ev.Amount),
			zap.Uint64("stored", ev.Stored),
			zap.Uint32("time", uint32(ev.Time)),
		)
	case events.BufferReplenished:
		fields = append(fields,
			zap.Uint64("amount", ev.Amount),
			zap.Uint64("stored", ev.Stored),
			zap.Uint32("time", uint32(ev.Time)),
		)
	case events.RateUpdated:
		fields = append(fields,
			zap.Uint64("previous", ev.Previous),
			zap.Uint64("current", ev.Current),
			zap.Uint32("time", uint32(ev.Time)),
		)
	case events.CapacityUpdated:
		fields = append(fields,
			zap.Uint64("previous", ev.Previous),
			zap.Uint64("current", ev.Current),
			zap.Uint32("time", uint32(ev.Time)),
		)
	}

	s.log.Info(string(e.Kind()), fields...)
}
