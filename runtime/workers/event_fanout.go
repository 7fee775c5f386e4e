package workers

import (
	"context"
	"log/slog"

	"mio-messenger/contract"
	"mio-messenger/domain/event"
	"mio-messenger/observability"
)

// EventFanout broadcasts durable events to the live channel router and to
// the permanent in-process sinks.
//
// It is the single consumer of the appended-events channel. That makes the
// live path order-preserving per chat: publications reach the router in
// exactly the order the log acknowledged them.
//
// EventFanout is not a message broker: delivery is best-effort live, with
// no retries. Disconnected sessions recover via catch-up.
type EventFanout struct {
	Log      *slog.Logger
	Events   chan event.DomainEvent
	router   contract.IRouter
	sinks    []contract.EventSink
	counters *observability.Counters
}

func NewEventFanout(log *slog.Logger, events chan event.DomainEvent,
	router contract.IRouter, counters *observability.Counters) *EventFanout {
	return &EventFanout{Log: log, Events: events, router: router, counters: counters}
}

func (w *EventFanout) Add(sinks ...contract.EventSink) *EventFanout {
	w.sinks = append(w.sinks, sinks...)
	return w
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.Events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.Log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

func (w *EventFanout) Fanout(ctx context.Context, e event.DomainEvent) {
	w.router.Publish(ctx, e)
	w.counters.Published.Add(1)

	for _, sink := range w.sinks {
		if err := sink.Consume(ctx, e); err != nil {
			w.Log.Debug("Permanent sink rejected event", "error", err)
		}
	}
}
