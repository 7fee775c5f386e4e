// Package runtime handles event propagation between the message pipeline
// and connected sessions. It orchestrates the system without containing
// business logic or domain rules.
package runtime

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mio-messenger/contract"
	"mio-messenger/domain"
	"mio-messenger/domain/event"
	"mio-messenger/errors"
)

type Set map[string]struct{}

// Router maps live channels to the sinks of currently-subscribed sessions.
// Chat channels are guarded by chat membership; a user's directory channel
// is only subscribable by that user. Safe for concurrent use: Publish may
// run while unrelated sessions subscribe or unsubscribe, and any
// subscription registered before a Publish call begins receives it.
type Router struct {
	mu              sync.RWMutex
	directory       contract.IChatDirectory
	sinks           map[string]contract.EventSink // subscription id -> sink
	channelMembers  map[string]Set                // channel -> subscription ids
	deliveryTimeout time.Duration
}

func NewRouter(directory contract.IChatDirectory, deliveryTimeout time.Duration) *Router {
	return &Router{
		directory:       directory,
		sinks:           make(map[string]contract.EventSink),
		channelMembers:  make(map[string]Set),
		deliveryTimeout: deliveryTimeout,
	}
}

// Subscribe registers a session's sink on a channel after an authorization
// check. Fails with ErrNotAuthorized when the user is not a participant of
// the chat behind a chat channel, or tries to read someone else's
// directory channel.
func (r *Router) Subscribe(channel, userID string, sink contract.EventSink) (contract.Subscription, error) {
	if err := r.authorize(channel, userID); err != nil {
		return contract.Subscription{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sub := contract.Subscription{Channel: channel, SessionID: uuid.NewString()}
	r.sinks[sub.SessionID] = sink

	if _, ok := r.channelMembers[channel]; !ok {
		r.channelMembers[channel] = make(Set)
	}
	r.channelMembers[channel][sub.SessionID] = struct{}{}
	return sub, nil
}

// Unsubscribe is idempotent. It cleans up the sink and ensures no empty
// sets are left in the channel map to prevent memory leaks over time.
func (r *Router) Unsubscribe(sub contract.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sinks, sub.SessionID)

	if members, ok := r.channelMembers[sub.Channel]; ok {
		delete(members, sub.SessionID)
		if len(members) == 0 {
			delete(r.channelMembers, sub.Channel)
		}
	}
}

// Publish delivers the event to every currently-subscribed sink for its
// channel. Delivery is best-effort live: sessions absent at publish time
// recover through catch-up, not here. Each sink gets a bounded slice of
// time so one stuck connection cannot stall the rest.
func (r *Router) Publish(ctx context.Context, e event.DomainEvent) {
	for _, sink := range r.sinksForChannel(e.Channel()) {
		deliveryCtx, cancel := context.WithTimeout(ctx, r.deliveryTimeout)
		_ = sink.Consume(deliveryCtx, e)
		cancel()
	}
}

// sinksForChannel snapshots the subscriber list under the read lock so
// delivery happens without holding it.
func (r *Router) sinksForChannel(channel string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.channelMembers[channel]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for id := range members {
		if sink, exists := r.sinks[id]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

func (r *Router) authorize(channel, userID string) error {
	switch {
	case strings.HasPrefix(channel, "chat:"):
		chat, err := r.directory.GetChat(domain.ChatID(strings.TrimPrefix(channel, "chat:")))
		if err != nil {
			return err
		}
		if !chat.HasParticipant(userID) {
			return fmt.Errorf("%w: user %s, chat %s", errors.ErrNotAuthorized, userID, chat.ID)
		}
		return nil
	case channel == domain.DirectoryChannel(userID):
		return nil
	default:
		return fmt.Errorf("%w: user %s, channel %s", errors.ErrNotAuthorized, userID, channel)
	}
}
