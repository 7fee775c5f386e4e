package http

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mio-messenger/domain"
	"mio-messenger/infrastructure/ws"
	"mio-messenger/session"
)

func dialLive(t *testing.T, wsURL, token string) session.Conn {
	t.Helper()
	transport := ws.NewClientTransport(slog.New(slog.DiscardHandler), wsURL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := transport.Dial(ctx, token)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func publishLive(conn session.Conn, channel, text string) error {
	return conn.Publish(context.Background(), channel, text)
}

func awaitMessage(t *testing.T, conn session.Conn) domain.Message {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("no publication arrived in time")
		case ev, ok := <-conn.Events():
			require.True(t, ok, "event queue closed")
			if pub, isPub := ev.(session.Publication); isPub {
				if message, isMessage := pub.Payload.(domain.Message); isMessage {
					return message
				}
			}
		}
	}
}

func Test_Reconciler_Should_Sync_History_And_Live_Messages_Over_Server(t *testing.T) {
	// Given a chat with one durable message posted before alice connects
	env := newTestEnv(t)
	alice := env.registerUser(t, "33611111111", "111")
	bob := env.registerUser(t, "33622222222", "222")
	ctx := context.Background()

	chat, err := alice.CreateChat(ctx, "general", []string{"33622222222"})
	require.NoError(t, err)

	wsURL := "ws" + env.server.URL[4:] + "/ws"
	bobConn := dialLive(t, wsURL, bob.Token())
	require.NoError(t, bobConn.Subscribe(ctx, chat.Channel()))
	require.NoError(t, publishLive(bobConn, chat.Channel(), "before connect"))
	awaitMessage(t, bobConn)

	// When alice runs a full session against the server
	log := slog.New(slog.DiscardHandler)
	transport := ws.NewClientTransport(log, wsURL)
	reconciler := session.NewReconciler(log, transport, alice, alice, session.Options{
		UserID:     "user-33611111111",
		Credential: alice.Token(),
	}, session.Hooks{})
	reconciler.Connect(ctx)
	t.Cleanup(reconciler.Disconnect)

	require.Eventually(t, func() bool {
		return reconciler.State() == session.StateLive
	}, 5*time.Second, 20*time.Millisecond)

	// Then the backlog is already in her timeline
	require.Eventually(t, func() bool {
		return len(reconciler.Messages(chat.ID)) == 1
	}, 5*time.Second, 20*time.Millisecond)

	// And a message bob posts while she is live lands there too, in order
	require.NoError(t, publishLive(bobConn, chat.Channel(), "while live"))
	require.Eventually(t, func() bool {
		return len(reconciler.Messages(chat.ID)) == 2
	}, 5*time.Second, 20*time.Millisecond)

	messages := reconciler.Messages(chat.ID)
	require.Equal(t, "before connect", messages[0].Text)
	require.Equal(t, "while live", messages[1].Text)
	require.Equal(t, int64(1), messages[0].ID)
	require.Equal(t, int64(2), messages[1].ID)
}

func Test_Live_Endpoint_Should_Refuse_Invalid_Token(t *testing.T) {
	// Given a running server
	env := newTestEnv(t)

	// When dialing with a bad token
	transport := ws.NewClientTransport(slog.New(slog.DiscardHandler),
		"ws"+env.server.URL[4:]+"/ws")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := transport.Dial(ctx, "not-a-token")

	// Then the dial fails before any session exists
	require.Error(t, err)
}
