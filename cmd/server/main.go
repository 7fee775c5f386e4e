package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"mio-messenger/auth"
	httpserver "mio-messenger/infrastructure/http"
	"mio-messenger/notify"
	"mio-messenger/observability"
	"mio-messenger/repositories"
	"mio-messenger/runtime"
	"mio-messenger/runtime/workers"
	"mio-messenger/search"
	"mio-messenger/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so defers (database close, index close) run
// before the process exits.
func run() error {
	// 1. Configuration & Logger
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, ".env not found, relying on environment: %v\n", err)
	}
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB) & Search Index (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = blugeWriter.Close()
	}()

	// 3. Repositories, Supervision & Orchestration
	chatRepository := repositories.NewChatRepository(db)
	messageLog := repositories.NewMessageLog(db, log)
	userRepository := repositories.NewUserRepository(db)
	codeRepository := repositories.NewCodeRepository(db)
	counters := observability.NewCounters()

	sup := workers.NewSupervisor(log)
	router := runtime.NewRouter(chatRepository, config.SinkTimeout)
	orchestrator := runtime.NewOrchestrator(
		log, sup, router, chatRepository, messageLog, counters,
		config.NumberOfWorkers, config.BufferSize,
		config.StatsInterval, config.ModerationCharReplacement,
	)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Start the Engine
	engineDone := make(chan error, 1)
	go func() {
		engineDone <- orchestrator.Start(ctx)
	}()

	// 6. Services & HTTP Server
	issuer := auth.NewTokenIssuer(config.SigningKey, config.TokenDuration)
	userIndex := search.NewUserIndex(log, blugeWriter)
	notifier := notify.NewTelegramNotifier(log, config.TelegramBotToken)
	authService := services.NewAuthService(log, codeRepository, userRepository,
		userIndex, notifier, issuer)
	chatService := services.NewChatService(orchestrator, chatRepository, userRepository)

	server := httpserver.NewServer(log, authService, chatService, userIndex,
		notifier, issuer, counters, config.ConnectionBufferSize)
	origins := strings.Split(config.AllowedOrigins, ",")

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:    address,
		Handler: server.Router(origins),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	engineStopped := false
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	case err := <-engineDone:
		engineStopped = true
		if err != nil {
			return fmt.Errorf("orchestrator failed: %w", err)
		}
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown did not finish cleanly", "error", err)
	}
	orchestrator.Stop()
	if !engineStopped {
		<-engineDone
	}
	log.Info("Program stopped cleanly")

	return nil
}
