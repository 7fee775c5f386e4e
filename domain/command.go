package domain

import (
	"time"
)

type Command interface {
	Chat() ChatID
}

type PostMessageCommand struct {
	ChatID    ChatID
	SenderID  string
	Text      string
	CreatedAt time.Time
}

func (p PostMessageCommand) Chat() ChatID {
	return p.ChatID
}
