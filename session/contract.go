package session

import (
	"context"

	"mio-messenger/domain"
)

// Conn is one established, authenticated connection to the live broker.
type Conn interface {
	// Events is the session's single ordered event queue. It is closed
	// when the connection dies without a Disconnected event.
	Events() <-chan Event
	// Subscribe registers interest in a channel. Subscriptions die with
	// the connection.
	Subscribe(ctx context.Context, channel string) error
	// Publish posts a message on a chat channel. The server assigns the
	// id; delivery comes back as a publication like any other.
	Publish(ctx context.Context, channel, text string) error
	Close() error
}

// Transport dials the broker. Dial blocks until the connection is
// confirmed or ctx expires.
type Transport interface {
	Dial(ctx context.Context, credential string) (Conn, error)
}

// Directory resolves the chat list of the session's user.
type Directory interface {
	ListChats(ctx context.Context, userID string) ([]domain.Chat, error)
}

// Backlog reads historical messages from the message log.
type Backlog interface {
	ReadRange(ctx context.Context, chatID domain.ChatID, limit int, beforeID *int64) ([]domain.Message, error)
}
