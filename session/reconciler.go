package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mio-messenger/domain"
	"mio-messenger/errors"
)

// State of the reconciler's connection lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateCatchingUp
	StateLive
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateCatchingUp:
		return "catching_up"
	case StateLive:
		return "live"
	default:
		return "disconnected"
	}
}

// Options bound every timing decision explicitly. The source behavior
// (fixed 2 s delay, unbounded attempts, 15 s confirmation timeout) is the
// default, with the attempt cap configurable rather than hardwired off.
type Options struct {
	UserID             string
	Credential         string
	BacklogLimit       int           // messages fetched per chat during catch-up
	CatchUpParallelism int           // concurrent chats during catch-up
	RetryDelay         time.Duration // fixed delay between reconnect attempts
	MaxAttempts        int           // 0 means retry forever
	ConnectTimeout     time.Duration // bound on connection confirmation
}

func (o Options) withDefaults() Options {
	if o.BacklogLimit <= 0 {
		o.BacklogLimit = 100
	}
	if o.CatchUpParallelism <= 0 {
		o.CatchUpParallelism = 4
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 2 * time.Second
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 15 * time.Second
	}
	return o
}

// Hooks let the UI layer observe the reconciled state. Callbacks run on
// the session's consumer goroutine and must not block.
type Hooks struct {
	OnNewMessage      func(domain.Message)
	OnChatListChanged func([]domain.Chat)
	OnStateChange     func(State)
}

// Reconciler owns all per-session state: which chats the user is in and
// one timeline per chat. Nothing here is shared between sessions.
//
// Lifecycle: Disconnected -> Connecting -> CatchingUp -> Live, back to
// Disconnected on any transport failure, then an automatic retry. During
// CatchingUp each chat is subscribed BEFORE its backlog is fetched, so a
// message published mid-fetch is captured by one path or the other; the
// timeline's id-keyed merge collapses the overlap.
type Reconciler struct {
	log       *slog.Logger
	transport Transport
	directory Directory
	backlog   Backlog
	opts      Options
	hooks     Hooks

	mu        sync.RWMutex
	state     State
	lastErr   error
	conn      Conn
	chats     map[domain.ChatID]domain.Chat
	timelines map[domain.ChatID]*Timeline

	cancel context.CancelFunc
	done   chan struct{}
}

func NewReconciler(log *slog.Logger, transport Transport, directory Directory,
	backlog Backlog, opts Options, hooks Hooks) *Reconciler {
	return &Reconciler{
		log:       log,
		transport: transport,
		directory: directory,
		backlog:   backlog,
		opts:      opts.withDefaults(),
		hooks:     hooks,
		chats:     make(map[domain.ChatID]domain.Chat),
		timelines: make(map[domain.ChatID]*Timeline),
	}
}

// Connect starts the session loop and returns immediately. The loop keeps
// reconnecting until Disconnect is called, ctx is cancelled, or the
// attempt cap is reached.
func (r *Reconciler) Connect(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go func() {
		defer close(done)
		r.run(runCtx)
	}()
}

// Disconnect stops the session and waits for the loop to finish.
func (r *Reconciler) Disconnect() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	r.setState(StateDisconnected)
}

// State reports the current lifecycle state, for connection indicators.
func (r *Reconciler) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// LastError reports the most recent session-fatal error.
func (r *Reconciler) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// Post sends a message into a chat over the live connection. Only valid
// while connected; the message comes back as a publication once durable.
func (r *Reconciler) Post(ctx context.Context, chatID domain.ChatID, text string) error {
	r.mu.RLock()
	conn := r.conn
	r.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("%w: not connected", errors.ErrTransportFailure)
	}
	return conn.Publish(ctx, domain.ChatChannel(chatID), text)
}

// Messages returns a read-only snapshot of the reconciled sequence for
// one chat, in id order.
func (r *Reconciler) Messages(chatID domain.ChatID) []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	timeline, ok := r.timelines[chatID]
	if !ok {
		return nil
	}
	return timeline.Snapshot()
}

// Chats returns the chats known to this session.
func (r *Reconciler) Chats() []domain.Chat {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chats := make([]domain.Chat, 0, len(r.chats))
	for _, chat := range r.chats {
		chats = append(chats, chat)
	}
	return chats
}

func (r *Reconciler) run(ctx context.Context) {
	attempts := 0
	for {
		attempts++
		err := r.runOnce(ctx)

		if ctx.Err() != nil {
			r.setState(StateDisconnected)
			return
		}

		r.mu.Lock()
		r.lastErr = err
		r.mu.Unlock()
		r.setState(StateDisconnected)
		r.log.Warn("Session disconnected", "attempt", attempts, "error", err)

		if r.opts.MaxAttempts > 0 && attempts >= r.opts.MaxAttempts {
			r.log.Error("Giving up after max reconnect attempts", "attempts", attempts)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(r.opts.RetryDelay):
		}
	}
}

// runOnce drives one connection from dial to transport failure. All
// subscriptions made on the connection die with it; the next attempt
// starts over from Connecting.
func (r *Reconciler) runOnce(ctx context.Context) error {
	r.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, r.opts.ConnectTimeout)
	conn, err := r.transport.Dial(dialCtx, r.opts.Credential)
	cancel()
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrTransportFailure, err)
	}
	defer conn.Close()

	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.conn = nil
		r.mu.Unlock()
	}()

	r.setState(StateCatchingUp)

	// Catch-up runs in the background; this loop keeps draining the event
	// queue the whole time so live publications arriving during backlog
	// fetches are merged, not lost.
	catchUpDone := make(chan error, 1)
	go func() {
		catchUpDone <- r.catchUp(ctx, conn)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-catchUpDone:
			if err != nil {
				return err
			}
			r.setState(StateLive)
		case ev, ok := <-conn.Events():
			if !ok {
				return fmt.Errorf("%w: event queue closed", errors.ErrTransportFailure)
			}
			switch e := ev.(type) {
			case Disconnected:
				return fmt.Errorf("%w: %s", errors.ErrTransportFailure, e.Reason)
			case Publication:
				r.applyPublication(ctx, conn, e)
			case Connected:
				// Already confirmed by Dial; nothing to do.
			}
		}
	}
}

// catchUp lists the user's chats and reconciles each one. Per-chat
// failures are logged and skipped: partial catch-up is allowed, a failure
// of one chat must not abort the session.
func (r *Reconciler) catchUp(ctx context.Context, conn Conn) error {
	chats, err := r.directory.ListChats(ctx, r.opts.UserID)
	if err != nil {
		return fmt.Errorf("%w: listing chats: %v", errors.ErrStoreUnavailable, err)
	}

	r.mu.Lock()
	for _, chat := range chats {
		r.chats[chat.ID] = chat
	}
	r.mu.Unlock()
	r.notifyChatList()

	// The directory channel first, so chats created during catch-up are
	// picked up live.
	if err := conn.Subscribe(ctx, domain.DirectoryChannel(r.opts.UserID)); err != nil {
		return fmt.Errorf("%w: directory subscribe: %v", errors.ErrTransportFailure, err)
	}

	// Chats are independent: sync them concurrently, bounded.
	sem := make(chan struct{}, r.opts.CatchUpParallelism)
	var wg sync.WaitGroup
	for _, chat := range chats {
		wg.Add(1)
		go func(chat domain.Chat) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			if err := r.syncChat(ctx, conn, chat); err != nil {
				r.log.Warn("Catch-up failed for chat, continuing",
					"chat_id", chat.ID, "error", err)
			}
		}(chat)
	}
	wg.Wait()
	return ctx.Err()
}

// syncChat subscribes, then fetches backlog. The order is the point:
// subscribing first closes the window where a message would miss both the
// live path and the backlog read.
func (r *Reconciler) syncChat(ctx context.Context, conn Conn, chat domain.Chat) error {
	if err := conn.Subscribe(ctx, chat.Channel()); err != nil {
		return err
	}

	messages, err := r.backlog.ReadRange(ctx, chat.ID, r.opts.BacklogLimit, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	r.mu.Lock()
	timeline := r.timeline(chat.ID)
	timeline.MergeAll(messages)
	r.mu.Unlock()
	return nil
}

func (r *Reconciler) applyPublication(ctx context.Context, conn Conn, p Publication) {
	switch payload := p.Payload.(type) {
	case domain.Message:
		r.mu.Lock()
		added := r.timeline(payload.ChatID).Merge(payload)
		r.mu.Unlock()
		if added && r.hooks.OnNewMessage != nil {
			r.hooks.OnNewMessage(payload)
		}
	case domain.Chat:
		r.mu.Lock()
		_, known := r.chats[payload.ID]
		r.chats[payload.ID] = payload
		r.mu.Unlock()
		r.notifyChatList()
		if !known {
			// A chat created while connected: bring it in without a
			// reconnect. Runs off the event loop so its backlog fetch
			// cannot stall live publications.
			go func() {
				if err := r.syncChat(ctx, conn, payload); err != nil {
					r.log.Warn("Sync of new chat failed", "chat_id", payload.ID, "error", err)
				}
			}()
		}
	default:
		r.log.Debug("Ignoring publication with unknown payload", "channel", p.Channel)
	}
}

// timeline returns the chat's timeline, creating it if needed. Callers
// hold r.mu.
func (r *Reconciler) timeline(chatID domain.ChatID) *Timeline {
	timeline, ok := r.timelines[chatID]
	if !ok {
		timeline = NewTimeline()
		r.timelines[chatID] = timeline
	}
	return timeline
}

func (r *Reconciler) setState(state State) {
	r.mu.Lock()
	changed := r.state != state
	r.state = state
	r.mu.Unlock()
	if changed && r.hooks.OnStateChange != nil {
		r.hooks.OnStateChange(state)
	}
}

func (r *Reconciler) notifyChatList() {
	if r.hooks.OnChatListChanged == nil {
		return
	}
	r.hooks.OnChatListChanged(r.Chats())
}
