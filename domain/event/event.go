package event

import (
	"time"

	"mio-messenger/domain"
)

// DomainEvent is anything flowing through the runtime pipeline towards
// the live channels.
type DomainEvent interface {
	Channel() string
}

// MessagePosted is the raw intent, before moderation and before the log
// has assigned an id.
type MessagePosted struct {
	ChatID   domain.ChatID
	SenderID string
	Text     string
	At       time.Time
}

func (m MessagePosted) Channel() string {
	return domain.ChatChannel(m.ChatID)
}

// SanitizedMessage left the moderation stage; text may have been censored.
type SanitizedMessage struct {
	ChatID   domain.ChatID
	SenderID string
	Text     string
	Lang     string
	At       time.Time
}

func (m SanitizedMessage) Channel() string {
	return domain.ChatChannel(m.ChatID)
}

// MessageAppended is durable: the log assigned the id and acknowledged the
// write. Only this event reaches subscribed sessions.
type MessageAppended struct {
	Message domain.Message
}

func (m MessageAppended) Channel() string {
	return domain.ChatChannel(m.Message.ChatID)
}

// ChatCreated is delivered on each participant's directory channel.
type ChatCreated struct {
	Chat        domain.Chat
	Participant string
}

func (c ChatCreated) Channel() string {
	return domain.DirectoryChannel(c.Participant)
}
