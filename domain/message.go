// Package domain contains core concepts of the messenger.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"
)

// Message represents an immutable chat event. ID is assigned by the message
// log only: chat-scoped, strictly increasing, never reused. It is both the
// dedup key and the sort key; wall-clock ties are broken by id order.
type Message struct {
	ID        int64     `json:"id"`
	ChatID    ChatID    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Less orders messages within one chat.
func (m Message) Less(other Message) bool {
	return m.ID < other.ID
}
