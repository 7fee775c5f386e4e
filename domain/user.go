// Package domain contains core concepts of the messenger.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"
)

// User is identified by its phone number alone. The id is derived from it
// so that verifying the same phone twice always lands on the same account.
type User struct {
	ID             string    `json:"id"`
	Phone          string    `json:"phone"`
	TelegramChatID string    `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserID derives the deterministic account id for a phone number.
func UserID(phone string) string {
	return "user-" + phone
}

func NewUser(phone, telegramChatID string) User {
	return User{
		ID:             UserID(phone),
		Phone:          phone,
		TelegramChatID: telegramChatID,
		CreatedAt:      time.Now().UTC(),
	}
}
