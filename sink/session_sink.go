package sink

import (
	"context"

	"mio-messenger/domain/event"
	"mio-messenger/observability"
)

// SessionSink buffers events for one connected session. The transport
// handler owns the channel and drains it into the wire.
type SessionSink struct {
	Events   chan event.DomainEvent
	counters *observability.Counters
}

func NewSessionSink(bufferSize int, counters *observability.Counters) *SessionSink {
	return &SessionSink{
		Events:   make(chan event.DomainEvent, bufferSize),
		counters: counters,
	}
}

// Consume is called by the router's publish path. A full buffer means the
// session is too slow: the event is dropped here and the session recovers
// through catch-up after its next reconnect.
func (s *SessionSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.counters.Dropped.Add(1)
		return nil
	}
}
