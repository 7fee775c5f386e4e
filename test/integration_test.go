package test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"mio-messenger/domain"
	"mio-messenger/domain/event"
	"mio-messenger/mocks"
	"mio-messenger/observability"
	"mio-messenger/repositories"
	"mio-messenger/runtime"
	"mio-messenger/runtime/workers"
	"mio-messenger/sink"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_Scenario(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	// Reduced to 16 Mo for testing (avoid 20 Go of storage)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)

	// 1. Create channel to wait for a signal at the end of process
	done := make(chan struct{})
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	counters := observability.NewCounters()
	supervisor := workers.NewSupervisor(log)
	chatRepo := repositories.NewChatRepository(db)
	messageLog := repositories.NewMessageLog(db, log)
	router := runtime.NewRouter(chatRepo, time.Second)
	orchestrator := runtime.NewOrchestrator(
		log, supervisor, router, chatRepo, messageLog, counters,
		4, 64, time.Minute, '*')

	ctrl := gomock.NewController(t)
	permanentSink := mocks.NewMockEventSink(ctrl)
	permanentSink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, e event.DomainEvent) error {
			close(done) // Signaling the durable event has been fanned out
			return nil
		}).
		Times(1)
	orchestrator.Add(permanentSink)

	alice := "user-0600000001"
	bob := "user-0600000002"
	chat, err := orchestrator.CreateChat(ctx, "ops", alice, []string{bob})
	req.NoError(err)

	liveSink := sink.NewSessionSink(16, counters)
	sub, err := orchestrator.Subscribe(domain.ChatChannel(chat.ID), bob, liveSink)
	req.NoError(err)

	go func() {
		req.NoError(orchestrator.Start(ctx))
	}()

	// Clean everything at the end of the test
	t.Cleanup(func() {
		orchestrator.Unsubscribe(sub)
		orchestrator.Stop()
		db.Close()
	})

	content := "watch your language, idiot"
	at := time.Now().UTC()

	// When a cmd message is posted
	orchestrator.Dispatch(domain.PostMessageCommand{
		ChatID:    chat.ID,
		SenderID:  alice,
		Text:      content,
		CreatedAt: at,
	})

	// And wait time for channels & goroutines
	select {
	case <-done:
		// Then the durable event has reached the permanent sink
	case <-time.After(2 * time.Second):
		req.Fail("Timeout: message has never reached the permanent sink")
	}

	select {
	case e := <-liveSink.Events:
		// Then the subscribed session received the censored, id-stamped message
		appended, ok := e.(event.MessageAppended)
		req.True(ok)
		req.Equal(int64(1), appended.Message.ID)
		req.Equal(alice, appended.Message.SenderID)
		req.Equal("watch your language, *****", appended.Message.Text)
	case <-time.After(2 * time.Second):
		req.Fail("Timeout: message has never reached the live session")
	}

	// And the write is durable
	history, err := orchestrator.ReadRange(chat.ID, 10, nil)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal("watch your language, *****", history[0].Text)
}
