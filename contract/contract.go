//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"mio-messenger/domain"
	"mio-messenger/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives events for one connected session (or one permanent
// consumer such as the disk sink).
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRouter fans newly appended events out to subscribed live sessions.
// Any subscription registered before Publish begins must receive the
// publication; disconnected sessions rely on catch-up instead.
type IRouter interface {
	Subscribe(channel, userID string, sink EventSink) (Subscription, error)
	Unsubscribe(sub Subscription)
	Publish(ctx context.Context, e event.DomainEvent)
}

// Subscription identifies one (channel, session) registration.
type Subscription struct {
	Channel   string
	SessionID string
}

// IMessageLog is the durable, ordered, append-only record of messages per
// chat. It exclusively owns id assignment.
type IMessageLog interface {
	Append(chatID domain.ChatID, senderID, text string) (domain.Message, error)
	ReadRange(chatID domain.ChatID, limit int, beforeID *int64) ([]domain.Message, error)
}

// IChatDirectory resolves which chats a user belongs to.
type IChatDirectory interface {
	CreateChat(chat domain.Chat) error
	GetChat(id domain.ChatID) (domain.Chat, error)
	ListChatsForUser(userID string) ([]domain.Chat, error)
	AddMember(id domain.ChatID, userID string) (domain.Chat, error)
}
