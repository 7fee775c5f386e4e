package workers

import (
	"context"
	"log/slog"

	"mio-messenger/contract"
	"mio-messenger/domain"
	"mio-messenger/domain/event"
	"mio-messenger/observability"
)

// PreviewUpdater refreshes the chat-list preview after an append.
type PreviewUpdater interface {
	UpdatePreview(id domain.ChatID, preview string) error
}

// AppendWorker is the only writer of the message log. It turns sanitized
// messages into durable, id-stamped appends; the id-carrying event is
// emitted only after the write is acknowledged, so everything downstream
// (fanout, live sessions) sees exactly what catch-up will later read.
type AppendWorker struct {
	messageLog contract.IMessageLog
	previews   PreviewUpdater
	sanitized  chan event.DomainEvent
	appended   chan event.DomainEvent
	counters   *observability.Counters
	log        *slog.Logger
}

func NewAppendWorker(messageLog contract.IMessageLog, previews PreviewUpdater,
	sanitized, appended chan event.DomainEvent,
	counters *observability.Counters, log *slog.Logger) *AppendWorker {
	return &AppendWorker{
		messageLog: messageLog,
		previews:   previews,
		sanitized:  sanitized,
		appended:   appended,
		counters:   counters,
		log:        log,
	}
}

func (w *AppendWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case e, ok := <-w.sanitized:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			sanitized, ok := e.(event.SanitizedMessage)
			if !ok {
				continue
			}

			message, err := w.messageLog.Append(sanitized.ChatID, sanitized.SenderID, sanitized.Text)
			if err != nil {
				w.counters.AppendFailures.Add(1)
				w.log.Error("Append failed",
					"chat_id", sanitized.ChatID, "error", err)
				continue
			}
			w.counters.Appended.Add(1)

			if err := w.previews.UpdatePreview(message.ChatID, message.Text); err != nil {
				w.log.Debug("Preview update failed", "chat_id", message.ChatID, "error", err)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case w.appended <- event.MessageAppended{Message: message}:
			}
		}
	}
}
