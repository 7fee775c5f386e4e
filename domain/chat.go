package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type ChatID string

// Chat is a named group of participants sharing one message stream.
// Participants only ever grow; the creator is always a member.
type Chat struct {
	ID                 ChatID    `json:"id"`
	Name               string    `json:"name"`
	ParticipantIDs     []string  `json:"participant_ids"`
	LastMessagePreview string    `json:"last_message_preview"`
	CreatedAt          time.Time `json:"created_at"`
}

func NewChat(name, creatorID string, participantIDs []string) Chat {
	chat := Chat{
		ID:        ChatID(uuid.NewString()),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	chat.ParticipantIDs = lo.Uniq(participantIDs)
	if !chat.HasParticipant(creatorID) {
		chat.ParticipantIDs = append(chat.ParticipantIDs, creatorID)
	}
	return chat
}

func (c Chat) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Channel is the live channel name carrying this chat's publications.
func (c Chat) Channel() string {
	return ChatChannel(c.ID)
}

func ChatChannel(id ChatID) string {
	return "chat:" + string(id)
}

// DirectoryChannel carries chat-list updates for a single user, so that
// connected sessions learn about new chats without reconnecting.
func DirectoryChannel(userID string) string {
	return "directory:" + userID
}
