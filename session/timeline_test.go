package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mio-messenger/domain"
)

func message(chatID domain.ChatID, id int64, text string) domain.Message {
	return domain.Message{
		ID:        id,
		ChatID:    chatID,
		SenderID:  "user-0600000001",
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

func Test_Timeline_Should_Keep_Messages_In_Id_Order(t *testing.T) {
	// Given a timeline receiving messages out of order
	timeline := NewTimeline()

	// When merging ids 3, 1, 2
	timeline.Merge(message("chat-a", 3, "third"))
	timeline.Merge(message("chat-a", 1, "first"))
	timeline.Merge(message("chat-a", 2, "second"))

	// Then the snapshot is in ascending id order
	snapshot := timeline.Snapshot()
	require.Len(t, snapshot, 3)
	require.Equal(t, int64(1), snapshot[0].ID)
	require.Equal(t, int64(2), snapshot[1].ID)
	require.Equal(t, int64(3), snapshot[2].ID)
}

func Test_Timeline_Should_Ignore_Duplicate_Ids(t *testing.T) {
	// Given a timeline that already holds message 1
	timeline := NewTimeline()
	require.True(t, timeline.Merge(message("chat-a", 1, "hello")))

	// When the same id arrives again through another path
	added := timeline.Merge(message("chat-a", 1, "hello"))

	// Then the duplicate is dropped
	require.False(t, added)
	require.Equal(t, 1, timeline.Len())
}

func Test_Timeline_MergeAll_Should_Count_Only_New_Messages(t *testing.T) {
	// Given a timeline holding ids 1 and 2
	timeline := NewTimeline()
	timeline.Merge(message("chat-a", 1, "one"))
	timeline.Merge(message("chat-a", 2, "two"))

	// When merging a backlog overlapping the live deliveries
	added := timeline.MergeAll([]domain.Message{
		message("chat-a", 1, "one"),
		message("chat-a", 2, "two"),
		message("chat-a", 3, "three"),
	})

	// Then only the unseen message counts and the order holds
	require.Equal(t, 1, added)
	require.Equal(t, 3, timeline.Len())
	snapshot := timeline.Snapshot()
	for i, m := range snapshot {
		require.Equal(t, int64(i+1), m.ID)
	}
}

func Test_Timeline_Snapshot_Should_Be_A_Copy(t *testing.T) {
	// Given a timeline with one message
	timeline := NewTimeline()
	timeline.Merge(message("chat-a", 1, "one"))

	// When mutating the snapshot
	snapshot := timeline.Snapshot()
	snapshot[0].Text = "tampered"

	// Then the timeline is unaffected
	require.Equal(t, "one", timeline.Snapshot()[0].Text)
}
