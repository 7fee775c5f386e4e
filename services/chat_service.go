package services

import (
	"context"
	"fmt"
	"time"

	"mio-messenger/contract"
	"mio-messenger/domain"
	"mio-messenger/errors"
	"mio-messenger/repositories"
	"mio-messenger/runtime"
)

type IChatService interface {
	PostMessage(ctx context.Context, senderID string, chatID domain.ChatID, text string) error
	History(userID string, chatID domain.ChatID, limit int, beforeID *int64) ([]domain.Message, error)
	CreateChat(ctx context.Context, creatorID, name string, participantPhones []string) (domain.Chat, error)
	AddMember(ctx context.Context, requesterID string, chatID domain.ChatID, phone string) (domain.Chat, error)
	ListChats(userID string) ([]domain.Chat, error)
	Subscribe(channel, userID string, sink contract.EventSink) (contract.Subscription, error)
	Unsubscribe(sub contract.Subscription)
}

// ChatService fronts the runtime pipeline. Reads and directory changes go
// straight through; posts are dispatched as commands and become durable
// asynchronously.
type ChatService struct {
	orchestrator *runtime.Orchestrator
	directory    contract.IChatDirectory
	users        repositories.IUserRepository
}

func NewChatService(o *runtime.Orchestrator, directory contract.IChatDirectory,
	users repositories.IUserRepository) *ChatService {
	return &ChatService{orchestrator: o, directory: directory, users: users}
}

func (s *ChatService) PostMessage(_ context.Context, senderID string, chatID domain.ChatID, text string) error {
	if text == "" {
		return errors.ErrEmptyMessage
	}
	s.orchestrator.Dispatch(domain.PostMessageCommand{
		ChatID:    chatID,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// History reads a page of the chat log, membership-checked.
func (s *ChatService) History(userID string, chatID domain.ChatID, limit int, beforeID *int64) ([]domain.Message, error) {
	chat, err := s.directory.GetChat(chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.ErrNotAuthorized
	}
	return s.orchestrator.ReadRange(chatID, limit, beforeID)
}

// CreateChat resolves participant phones to accounts and persists the
// chat. Every resolved participant gets a directory notification.
func (s *ChatService) CreateChat(ctx context.Context, creatorID, name string, participantPhones []string) (domain.Chat, error) {
	participantIDs, err := s.resolvePhones(participantPhones)
	if err != nil {
		return domain.Chat{}, err
	}
	return s.orchestrator.CreateChat(ctx, name, creatorID, participantIDs)
}

// AddMember joins a user into an existing chat. Only current participants
// may invite.
func (s *ChatService) AddMember(ctx context.Context, requesterID string, chatID domain.ChatID, phone string) (domain.Chat, error) {
	chat, err := s.directory.GetChat(chatID)
	if err != nil {
		return domain.Chat{}, err
	}
	if !chat.HasParticipant(requesterID) {
		return domain.Chat{}, errors.ErrNotAuthorized
	}

	ids, err := s.resolvePhones([]string{phone})
	if err != nil {
		return domain.Chat{}, err
	}
	return s.orchestrator.AddMember(ctx, chatID, ids[0])
}

func (s *ChatService) ListChats(userID string) ([]domain.Chat, error) {
	return s.directory.ListChatsForUser(userID)
}

func (s *ChatService) Subscribe(channel, userID string, sink contract.EventSink) (contract.Subscription, error) {
	return s.orchestrator.Subscribe(channel, userID, sink)
}

func (s *ChatService) Unsubscribe(sub contract.Subscription) {
	s.orchestrator.Unsubscribe(sub)
}

func (s *ChatService) resolvePhones(phones []string) ([]string, error) {
	ids := make([]string, 0, len(phones))
	for _, phone := range phones {
		user, err := s.users.GetUser(domain.UserID(phone))
		if err != nil {
			return nil, fmt.Errorf("%w: no account for phone %s", errors.ErrUserNotFound, phone)
		}
		ids = append(ids, user.ID)
	}
	return ids, nil
}
