package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mio-messenger/domain"
	apperrors "mio-messenger/errors"
)

const testUserID = "user-0600000001"

type fakeConn struct {
	mu        sync.Mutex
	events    chan Event
	subs      []string
	published []string
	closed    bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan Event, 64)}
}

func (c *fakeConn) Events() <-chan Event { return c.events }

func (c *fakeConn) Subscribe(_ context.Context, channel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, channel)
	return nil
}

func (c *fakeConn) Publish(_ context.Context, channel, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, channel+":"+text)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) subscriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.subs...)
}

func (c *fakeConn) publish(channel string, payload any) {
	c.events <- Publication{Channel: channel, Payload: payload}
}

type fakeTransport struct {
	mu      sync.Mutex
	conns   []*fakeConn
	dials   int
	dialErr error
}

func (t *fakeTransport) Dial(_ context.Context, _ string) (Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dials++
	if t.dialErr != nil {
		return nil, t.dialErr
	}
	conn := newFakeConn()
	t.conns = append(t.conns, conn)
	return conn, nil
}

func (t *fakeTransport) dialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dials
}

func (t *fakeTransport) conn(i int) *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i >= len(t.conns) {
		return nil
	}
	return t.conns[i]
}

type fakeDirectory struct {
	mu    sync.Mutex
	chats []domain.Chat
	err   error
}

func (d *fakeDirectory) ListChats(_ context.Context, _ string) ([]domain.Chat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return append([]domain.Chat(nil), d.chats...), nil
}

type fakeBacklog struct {
	mu       sync.Mutex
	messages map[domain.ChatID][]domain.Message
	errs     map[domain.ChatID]error
	// onRead runs before returning, letting tests inject live publications
	// while the backlog fetch is in flight.
	onRead func(domain.ChatID)
}

func (b *fakeBacklog) ReadRange(_ context.Context, chatID domain.ChatID, limit int, _ *int64) ([]domain.Message, error) {
	b.mu.Lock()
	hook := b.onRead
	err := b.errs[chatID]
	messages := append([]domain.Message(nil), b.messages[chatID]...)
	b.mu.Unlock()

	if hook != nil {
		hook(chatID)
	}
	if err != nil {
		return nil, err
	}
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

func testChat(id domain.ChatID, name string) domain.Chat {
	return domain.Chat{
		ID:             id,
		Name:           name,
		ParticipantIDs: []string{testUserID, "user-0600000002"},
		CreatedAt:      time.Now().UTC(),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func startReconciler(t *testing.T, transport Transport, directory Directory,
	backlog Backlog, opts Options, hooks Hooks) *Reconciler {
	t.Helper()
	opts.UserID = testUserID
	opts.Credential = "token"
	reconciler := NewReconciler(testLogger(), transport, directory, backlog, opts, hooks)
	reconciler.Connect(context.Background())
	t.Cleanup(reconciler.Disconnect)
	return reconciler
}

func waitForState(t *testing.T, reconciler *Reconciler, want State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return reconciler.State() == want
	}, 3*time.Second, 5*time.Millisecond)
}

func Test_Reconciler_Should_Reach_Live_With_Backlog_Loaded(t *testing.T) {
	// Given one chat with three historical messages
	chat := testChat("chat-a", "General")
	transport := &fakeTransport{}
	directory := &fakeDirectory{chats: []domain.Chat{chat}}
	backlog := &fakeBacklog{messages: map[domain.ChatID][]domain.Message{
		chat.ID: {
			message(chat.ID, 1, "one"),
			message(chat.ID, 2, "two"),
			message(chat.ID, 3, "three"),
		},
	}}

	// When connecting
	reconciler := startReconciler(t, transport, directory, backlog, Options{}, Hooks{})

	// Then the session goes Live with the full backlog in id order
	waitForState(t, reconciler, StateLive)
	messages := reconciler.Messages(chat.ID)
	require.Len(t, messages, 3)
	for i, m := range messages {
		require.Equal(t, int64(i+1), m.ID)
	}
}

func Test_Reconciler_Should_Subscribe_Before_Fetching_Backlog(t *testing.T) {
	// Given a backlog that records whether the subscription was already
	// in place when the fetch started
	chat := testChat("chat-a", "General")
	transport := &fakeTransport{}
	directory := &fakeDirectory{chats: []domain.Chat{chat}}

	subscribedFirst := make(chan bool, 1)
	backlog := &fakeBacklog{messages: map[domain.ChatID][]domain.Message{}}
	backlog.onRead = func(chatID domain.ChatID) {
		conn := transport.conn(0)
		found := false
		for _, channel := range conn.subscriptions() {
			if channel == domain.ChatChannel(chatID) {
				found = true
			}
		}
		select {
		case subscribedFirst <- found:
		default:
		}
	}

	// When connecting
	reconciler := startReconciler(t, transport, directory, backlog, Options{}, Hooks{})
	waitForState(t, reconciler, StateLive)

	// Then the chat channel was subscribed before its backlog read
	require.True(t, <-subscribedFirst)
}

func Test_Reconciler_Should_Not_Lose_Message_Published_During_CatchUp(t *testing.T) {
	// Given message 4 is published live while the backlog fetch holding
	// messages 1..3 is still in flight
	chat := testChat("chat-a", "General")
	transport := &fakeTransport{}
	directory := &fakeDirectory{chats: []domain.Chat{chat}}
	backlog := &fakeBacklog{messages: map[domain.ChatID][]domain.Message{
		chat.ID: {
			message(chat.ID, 1, "one"),
			message(chat.ID, 2, "two"),
			message(chat.ID, 3, "three"),
		},
	}}
	backlog.onRead = func(chatID domain.ChatID) {
		transport.conn(0).publish(domain.ChatChannel(chatID), message(chatID, 4, "four"))
		time.Sleep(50 * time.Millisecond)
	}

	// When connecting
	reconciler := startReconciler(t, transport, directory, backlog, Options{}, Hooks{})
	waitForState(t, reconciler, StateLive)

	// Then the timeline ends up gapless, 1..4, with no duplicate
	require.Eventually(t, func() bool {
		return len(reconciler.Messages(chat.ID)) == 4
	}, 3*time.Second, 5*time.Millisecond)
	messages := reconciler.Messages(chat.ID)
	for i, m := range messages {
		require.Equal(t, int64(i+1), m.ID)
	}
}

func Test_Reconciler_Should_Deduplicate_Backlog_And_Live_Overlap(t *testing.T) {
	// Given message 3 arrives both in the backlog and as a live delivery
	chat := testChat("chat-a", "General")
	transport := &fakeTransport{}
	directory := &fakeDirectory{chats: []domain.Chat{chat}}
	backlog := &fakeBacklog{messages: map[domain.ChatID][]domain.Message{
		chat.ID: {
			message(chat.ID, 1, "one"),
			message(chat.ID, 2, "two"),
			message(chat.ID, 3, "three"),
		},
	}}
	backlog.onRead = func(chatID domain.ChatID) {
		transport.conn(0).publish(domain.ChatChannel(chatID), message(chatID, 3, "three"))
	}

	// When connecting
	reconciler := startReconciler(t, transport, directory, backlog, Options{}, Hooks{})
	waitForState(t, reconciler, StateLive)

	// Then message 3 appears exactly once
	time.Sleep(50 * time.Millisecond)
	require.Len(t, reconciler.Messages(chat.ID), 3)
}

func Test_Reconciler_Should_Isolate_Single_Chat_CatchUp_Failure(t *testing.T) {
	// Given two chats where chat-b's backlog read fails
	chatA := testChat("chat-a", "General")
	chatB := testChat("chat-b", "Random")
	transport := &fakeTransport{}
	directory := &fakeDirectory{chats: []domain.Chat{chatA, chatB}}
	backlog := &fakeBacklog{
		messages: map[domain.ChatID][]domain.Message{
			chatA.ID: {message(chatA.ID, 1, "one")},
		},
		errs: map[domain.ChatID]error{
			chatB.ID: fmt.Errorf("store offline"),
		},
	}

	// When connecting
	reconciler := startReconciler(t, transport, directory, backlog, Options{}, Hooks{})

	// Then the session still reaches Live and chat-a is synced
	waitForState(t, reconciler, StateLive)
	require.Len(t, reconciler.Messages(chatA.ID), 1)
	require.Empty(t, reconciler.Messages(chatB.ID))
}

func Test_Reconciler_Should_Notify_On_New_Live_Message(t *testing.T) {
	// Given a live session with a hook recording new messages
	chat := testChat("chat-a", "General")
	transport := &fakeTransport{}
	directory := &fakeDirectory{chats: []domain.Chat{chat}}
	backlog := &fakeBacklog{messages: map[domain.ChatID][]domain.Message{}}

	received := make(chan domain.Message, 1)
	hooks := Hooks{OnNewMessage: func(m domain.Message) { received <- m }}
	reconciler := startReconciler(t, transport, directory, backlog, Options{}, hooks)
	waitForState(t, reconciler, StateLive)

	// When a message is published on the chat channel
	transport.conn(0).publish(chat.Channel(), message(chat.ID, 1, "hello"))

	// Then the hook fires and the timeline holds it
	select {
	case m := <-received:
		require.Equal(t, int64(1), m.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("no message notification")
	}
	require.Len(t, reconciler.Messages(chat.ID), 1)
}

func Test_Reconciler_Should_Sync_Chat_Created_While_Live(t *testing.T) {
	// Given a live session with no chats yet
	transport := &fakeTransport{}
	directory := &fakeDirectory{}
	newChat := testChat("chat-new", "Fresh")
	backlog := &fakeBacklog{messages: map[domain.ChatID][]domain.Message{
		newChat.ID: {message(newChat.ID, 1, "welcome")},
	}}

	chatLists := make(chan []domain.Chat, 4)
	hooks := Hooks{OnChatListChanged: func(chats []domain.Chat) { chatLists <- chats }}
	reconciler := startReconciler(t, transport, directory, backlog, Options{}, hooks)
	waitForState(t, reconciler, StateLive)

	// When a chat creation lands on the user's directory channel
	transport.conn(0).publish(domain.DirectoryChannel(testUserID), newChat)

	// Then the chat list updates and its backlog is pulled in
	require.Eventually(t, func() bool {
		return len(reconciler.Messages(newChat.ID)) == 1
	}, 3*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		for {
			select {
			case chats := <-chatLists:
				if len(chats) == 1 && chats[0].ID == newChat.ID {
					return true
				}
			default:
				return false
			}
		}
	}, 3*time.Second, 5*time.Millisecond)
	subs := transport.conn(0).subscriptions()
	require.Contains(t, subs, newChat.Channel())
}

func Test_Reconciler_Should_Keep_Draining_Events_While_New_Chat_Syncs(t *testing.T) {
	// Given a live session on one chat, and a new chat whose backlog
	// fetch hangs until released
	chat := testChat("chat-a", "General")
	newChat := testChat("chat-new", "Fresh")
	transport := &fakeTransport{}
	directory := &fakeDirectory{chats: []domain.Chat{chat}}
	release := make(chan struct{})
	backlog := &fakeBacklog{messages: map[domain.ChatID][]domain.Message{
		newChat.ID: {message(newChat.ID, 1, "welcome")},
	}}
	backlog.onRead = func(chatID domain.ChatID) {
		if chatID == newChat.ID {
			<-release
		}
	}

	reconciler := startReconciler(t, transport, directory, backlog, Options{}, Hooks{})
	waitForState(t, reconciler, StateLive)

	// When the chat creation lands, followed by a live message on the
	// existing chat while the new chat's backlog is still in flight
	conn := transport.conn(0)
	conn.publish(domain.DirectoryChannel(testUserID), newChat)
	conn.publish(chat.Channel(), message(chat.ID, 1, "hello"))

	// Then the live message is merged before that fetch completes
	require.Eventually(t, func() bool {
		return len(reconciler.Messages(chat.ID)) == 1
	}, 3*time.Second, 5*time.Millisecond)
	require.Empty(t, reconciler.Messages(newChat.ID))

	close(release)
	require.Eventually(t, func() bool {
		return len(reconciler.Messages(newChat.ID)) == 1
	}, 3*time.Second, 5*time.Millisecond)
}

func Test_Reconciler_Should_Keep_Timelines_Across_Reconnects(t *testing.T) {
	// Given a session that synced messages 1..2 on its first connection
	chat := testChat("chat-a", "General")
	transport := &fakeTransport{}
	directory := &fakeDirectory{chats: []domain.Chat{chat}}
	backlog := &fakeBacklog{messages: map[domain.ChatID][]domain.Message{
		chat.ID: {
			message(chat.ID, 1, "one"),
			message(chat.ID, 2, "two"),
		},
	}}

	reconciler := startReconciler(t, transport, directory, backlog,
		Options{RetryDelay: 10 * time.Millisecond}, Hooks{})
	waitForState(t, reconciler, StateLive)

	// When the transport drops and message 3 is only in the new backlog
	backlog.mu.Lock()
	backlog.messages[chat.ID] = append(backlog.messages[chat.ID], message(chat.ID, 3, "three"))
	backlog.mu.Unlock()
	transport.conn(0).events <- Disconnected{Reason: "broker restart"}

	// Then the session reconnects and the timeline is a superset, 1..3
	require.Eventually(t, func() bool {
		return transport.dialCount() == 2 && reconciler.State() == StateLive
	}, 3*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return len(reconciler.Messages(chat.ID)) == 3
	}, 3*time.Second, 5*time.Millisecond)
	messages := reconciler.Messages(chat.ID)
	for i, m := range messages {
		require.Equal(t, int64(i+1), m.ID)
	}
	require.ErrorContains(t, reconciler.LastError(), "broker restart")
}

func Test_Reconciler_Post_Should_Go_Out_On_The_Live_Connection(t *testing.T) {
	// Given a live session
	chat := testChat("chat-a", "General")
	transport := &fakeTransport{}
	directory := &fakeDirectory{chats: []domain.Chat{chat}}
	backlog := &fakeBacklog{}
	reconciler := startReconciler(t, transport, directory, backlog, Options{}, Hooks{})
	waitForState(t, reconciler, StateLive)

	// When posting into the chat
	require.NoError(t, reconciler.Post(context.Background(), chat.ID, "hi"))

	// Then the text left on the chat channel of the current connection
	conn := transport.conn(0)
	conn.mu.Lock()
	published := append([]string(nil), conn.published...)
	conn.mu.Unlock()
	require.Equal(t, []string{"chat:chat-a:hi"}, published)
}

func Test_Reconciler_Post_Should_Fail_Without_Connection(t *testing.T) {
	// Given a session that never connected
	reconciler := NewReconciler(testLogger(), &fakeTransport{}, &fakeDirectory{},
		&fakeBacklog{}, Options{UserID: testUserID}, Hooks{})

	// When posting
	err := reconciler.Post(context.Background(), "chat-a", "hi")

	// Then the call reports the missing connection
	require.ErrorIs(t, err, apperrors.ErrTransportFailure)
}

func Test_Reconciler_Should_Stop_After_Max_Attempts(t *testing.T) {
	// Given a transport that always refuses the dial
	transport := &fakeTransport{dialErr: fmt.Errorf("connection refused")}
	directory := &fakeDirectory{}
	backlog := &fakeBacklog{}

	// When connecting with a bounded retry budget
	reconciler := startReconciler(t, transport, directory, backlog,
		Options{RetryDelay: 5 * time.Millisecond, MaxAttempts: 3}, Hooks{})

	// Then exactly three attempts are made before giving up
	require.Eventually(t, func() bool {
		return transport.dialCount() == 3
	}, 3*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 3, transport.dialCount())
	require.Equal(t, StateDisconnected, reconciler.State())
	require.ErrorIs(t, reconciler.LastError(), apperrors.ErrTransportFailure)
}
