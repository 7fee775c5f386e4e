package workers

import (
	"context"
	"fmt"
	"log/slog"

	"mio-messenger/contract"
	"mio-messenger/domain"
	"mio-messenger/domain/event"
)

// Ensure *PoolUnitWorker implements the contract.Worker interface at compile time.
var _ contract.Worker = (*PoolUnitWorker)(nil)

// PoolUnitWorker is one unit of the command-processing pool. It validates
// an incoming intent (chat exists, sender is a participant) and forwards it
// to the moderation stage. Invalid commands are logged and dropped, never
// propagated.
type PoolUnitWorker struct {
	directory contract.IChatDirectory
	commands  chan domain.Command
	events    chan event.DomainEvent
	log       *slog.Logger
}

func NewPoolUnitWorker(
	directory contract.IChatDirectory,
	commands chan domain.Command,
	events chan event.DomainEvent,
	log *slog.Logger) *PoolUnitWorker {
	return &PoolUnitWorker{
		directory: directory,
		commands:  commands,
		events:    events,
		log:       log,
	}
}

func (w *PoolUnitWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case cmd, ok := <-w.commands:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			postCmd, ok := cmd.(domain.PostMessageCommand)
			if !ok {
				continue
			}

			chat, err := w.directory.GetChat(postCmd.ChatID)
			if err != nil {
				w.log.Warn(fmt.Sprintf("Dropping message for unknown chat %s", postCmd.ChatID))
				continue
			}
			if !chat.HasParticipant(postCmd.SenderID) {
				w.log.Warn("Dropping message from non-participant",
					"chat_id", chat.ID, "sender_id", postCmd.SenderID)
				continue
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case w.events <- toEvent(postCmd):
			}
		}
	}
}

func toEvent(c domain.PostMessageCommand) event.MessagePosted {
	return event.MessagePosted{
		ChatID:   c.ChatID,
		SenderID: c.SenderID,
		Text:     c.Text,
		At:       c.CreatedAt,
	}
}
