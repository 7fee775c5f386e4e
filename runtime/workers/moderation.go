package workers

import (
	"context"
	"log/slog"

	"github.com/abadojack/whatlanggo"

	"mio-messenger/domain/event"
	"mio-messenger/moderation"
)

type ModerationWorker struct {
	moderator      moderation.Moderator
	moderationChan chan event.DomainEvent
	events         chan event.DomainEvent
	log            *slog.Logger
}

func NewModerationWorker(moderator moderation.Moderator,
	moderationChan, events chan event.DomainEvent, log *slog.Logger) *ModerationWorker {
	return &ModerationWorker{
		moderator:      moderator,
		moderationChan: moderationChan,
		events:         events,
		log:            log,
	}
}

func (w *ModerationWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case e, ok := <-w.moderationChan:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			posted, ok := e.(event.MessagePosted)
			if !ok {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case w.events <- w.toSanitizedEvent(posted):
			}
		}
	}
}

func (w *ModerationWorker) toSanitizedEvent(evt event.MessagePosted) event.SanitizedMessage {
	info := whatlanggo.Detect(evt.Text)
	langCode := info.Lang.Iso6391()

	sanitized, foundWords := w.moderator.Censor(evt.Text)
	if len(foundWords) > 0 {
		w.log.Warn("Censored message",
			"chat_id", evt.ChatID,
			"sender_id", evt.SenderID,
			"lang", langCode,
			"words", len(foundWords))
	}

	return event.SanitizedMessage{
		ChatID:   evt.ChatID,
		SenderID: evt.SenderID,
		Text:     sanitized,
		Lang:     langCode,
		At:       evt.At,
	}
}
