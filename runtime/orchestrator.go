package runtime

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"mio-messenger/contract"
	"mio-messenger/domain"
	"mio-messenger/domain/event"
	"mio-messenger/moderation"
	"mio-messenger/observability"
	"mio-messenger/repositories"
	"mio-messenger/runtime/workers"
)

//go:embed censored/*
var censoredFolder embed.FS

// Orchestrator owns the message pipeline:
//
//	commands -> pool units (validate) -> moderation (censor)
//	         -> append (durable write, id assignment) -> fanout (live delivery)
//
// and fronts the live channel router for the transport layer.
type Orchestrator struct {
	mu              sync.Mutex
	log             *slog.Logger
	numWorkers      int
	directory       repositories.ChatRepository
	messageLog      repositories.MessageLog
	router          *Router
	supervisor      contract.ISupervisor
	counters        *observability.Counters
	globalCommands  chan domain.Command
	rawEvents       chan event.DomainEvent
	sanitizedEvents chan event.DomainEvent
	appendedEvents  chan event.DomainEvent
	permanentSinks  []contract.EventSink
	statsInterval   time.Duration
	charReplacement rune
}

func NewOrchestrator(log *slog.Logger, supervisor *workers.Supervisor,
	router *Router, directory repositories.ChatRepository, messageLog repositories.MessageLog,
	counters *observability.Counters,
	numWorkers, bufferSize int, statsInterval time.Duration, charReplacement rune) *Orchestrator {
	return &Orchestrator{
		log:             log,
		numWorkers:      numWorkers,
		directory:       directory,
		messageLog:      messageLog,
		router:          router,
		supervisor:      supervisor,
		counters:        counters,
		globalCommands:  make(chan domain.Command, bufferSize),
		rawEvents:       make(chan event.DomainEvent, bufferSize),
		sanitizedEvents: make(chan event.DomainEvent, bufferSize),
		appendedEvents:  make(chan event.DomainEvent, bufferSize),
		statsInterval:   statsInterval,
		charReplacement: charReplacement,
	}
}

// Add registers permanent sinks receiving every durable event.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Dispatch submits a command to the pipeline without blocking the caller.
func (o *Orchestrator) Dispatch(cmd domain.Command) {
	select {
	case o.globalCommands <- cmd:
	default:
		o.log.Warn(fmt.Sprintf("Global command channel full for chat %s, dropping command", cmd.Chat()))
	}
}

// ReadRange serves backlog reads straight from the message log.
func (o *Orchestrator) ReadRange(chatID domain.ChatID, limit int, beforeID *int64) ([]domain.Message, error) {
	return o.messageLog.ReadRange(chatID, limit, beforeID)
}

// CreateChat persists the chat and notifies every participant on their
// directory channel so connected sessions learn of it without reconnecting.
func (o *Orchestrator) CreateChat(ctx context.Context, name, creatorID string, participantIDs []string) (domain.Chat, error) {
	chat := domain.NewChat(name, creatorID, participantIDs)
	if err := o.directory.CreateChat(chat); err != nil {
		return domain.Chat{}, err
	}
	for _, participant := range chat.ParticipantIDs {
		o.router.Publish(ctx, event.ChatCreated{Chat: chat, Participant: participant})
	}
	return chat, nil
}

// AddMember joins a user into a chat and notifies both the newcomer and
// the existing participants, whose chat previews change.
func (o *Orchestrator) AddMember(ctx context.Context, chatID domain.ChatID, userID string) (domain.Chat, error) {
	chat, err := o.directory.AddMember(chatID, userID)
	if err != nil {
		return domain.Chat{}, err
	}
	for _, participant := range chat.ParticipantIDs {
		o.router.Publish(ctx, event.ChatCreated{Chat: chat, Participant: participant})
	}
	return chat, nil
}

func (o *Orchestrator) Subscribe(channel, userID string, sink contract.EventSink) (contract.Subscription, error) {
	return o.router.Subscribe(channel, userID, sink)
}

func (o *Orchestrator) Unsubscribe(sub contract.Subscription) {
	o.router.Unsubscribe(sub)
}

// Start initiates the orchestrator by preparing all components and then
// starting the supervisor. Heavy preparation (loading word lists, building
// the Aho-Corasick automaton) happens before the short critical section.
func (o *Orchestrator) Start(ctx context.Context) error {
	poolWorkers := o.preparePoolWorkers()

	moderationWorker, err := o.prepareModeration("censored", o.charReplacement)
	if err != nil {
		return err
	}

	appendWorker := workers.NewAppendWorker(o.messageLog, o.directory,
		o.sanitizedEvents, o.appendedEvents, o.counters, o.log)

	o.mu.Lock()
	fanout := workers.NewEventFanout(o.log, o.appendedEvents, o.router, o.counters).
		Add(o.permanentSinks...)
	statsWorker := workers.NewRuntimeStatsWorker(o.log, o.counters, o.statsInterval)

	o.supervisor.Add(moderationWorker)
	o.supervisor.Add(appendWorker)
	o.supervisor.Add(fanout)
	o.supervisor.Add(statsWorker)
	for _, w := range poolWorkers {
		o.supervisor.Add(w)
	}
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// preparePoolWorkers creates the basic worker pool for raw command processing.
func (o *Orchestrator) preparePoolWorkers() []contract.Worker {
	var res []contract.Worker
	for i := 0; i < o.numWorkers; i++ {
		res = append(res, workers.NewPoolUnitWorker(o.directory, o.globalCommands, o.rawEvents, o.log))
	}
	return res
}

// prepareModeration loads censored words and builds the Aho-Corasick automaton.
func (o *Orchestrator) prepareModeration(path string, charReplacement rune) (contract.Worker, error) {
	loader := NewCensoredLoader(censoredFolder)
	data, err := loader.LoadAll(path)
	if err != nil {
		return nil, err
	}

	o.log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	o.log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	moderator, err := moderation.NewModerator(data.Words, charReplacement, o.log)
	if err != nil {
		return nil, err
	}

	return workers.NewModerationWorker(moderator, o.rawEvents, o.sanitizedEvents, o.log), nil
}

// Stop initiates a graceful shutdown of the orchestrator by cancelling the
// supervision context; workers drain on their own.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
