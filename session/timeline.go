// Package session implements the client-side synchronization core: one
// reconciler per connected client, merging backlog and live delivery into
// ordered per-chat timelines.
package session

import (
	"sort"

	"mio-messenger/domain"
)

// Timeline holds the reconciled message sequence of a single chat.
// Merging is idempotent on the message id: a message delivered through
// both catch-up and the live channel lands exactly once. Not safe for
// concurrent use; the owning reconciler serializes access.
type Timeline struct {
	messages []domain.Message
	seen     map[int64]struct{}
}

func NewTimeline() *Timeline {
	return &Timeline{seen: make(map[int64]struct{})}
}

// Merge inserts the message in id order, reporting whether it was new.
func (t *Timeline) Merge(message domain.Message) bool {
	if _, ok := t.seen[message.ID]; ok {
		return false
	}
	t.seen[message.ID] = struct{}{}

	at := sort.Search(len(t.messages), func(i int) bool {
		return message.ID < t.messages[i].ID
	})
	t.messages = append(t.messages, domain.Message{})
	copy(t.messages[at+1:], t.messages[at:])
	t.messages[at] = message
	return true
}

// MergeAll merges a backlog slice, returning how many were new.
func (t *Timeline) MergeAll(messages []domain.Message) int {
	added := 0
	for _, message := range messages {
		if t.Merge(message) {
			added++
		}
	}
	return added
}

// Snapshot returns a copy of the ordered sequence.
func (t *Timeline) Snapshot() []domain.Message {
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Timeline) Len() int {
	return len(t.messages)
}
