package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"mio-messenger/domain"
	"mio-messenger/errors"
)

// ChatRepository stores chats under "chat:{id}" and maintains a reverse
// membership index "member:{user_id}:{chat_id}" for fast per-user lookup.
// Both sides of the index are written in one transaction.
type ChatRepository struct {
	db *badger.DB
}

func NewChatRepository(db *badger.DB) ChatRepository {
	return ChatRepository{db: db}
}

type diskChat struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
	LastMessage  string   `json:"last_message"`
	CreatedAt    int64    `json:"created_at"`
}

func chatKey(id domain.ChatID) []byte {
	return []byte("chat:" + string(id))
}

func memberKey(userID string, chatID domain.ChatID) []byte {
	return []byte(fmt.Sprintf("member:%s:%s", userID, chatID))
}

func (r ChatRepository) CreateChat(chat domain.Chat) error {
	bytes, err := json.Marshal(fromChat(chat))
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(chatKey(chat.ID), bytes); err != nil {
			return err
		}
		for _, userID := range chat.ParticipantIDs {
			if err := txn.Set(memberKey(userID, chat.ID), []byte(chat.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r ChatRepository) GetChat(id domain.ChatID) (domain.Chat, error) {
	var dc diskChat
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chatKey(id))
		if err == badger.ErrKeyNotFound {
			return errors.ErrChatNotFound
		} else if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &dc)
		})
	})
	if err != nil {
		return domain.Chat{}, err
	}
	return toChat(dc), nil
}

// ListChatsForUser walks the reverse index. No ordering is promised.
func (r ChatRepository) ListChatsForUser(userID string) ([]domain.Chat, error) {
	var ids []domain.ChatID
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("member:%s:", userID))
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			ids = append(ids, domain.ChatID(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var chats []domain.Chat
	for _, id := range ids {
		chat, err := r.GetChat(id)
		if err != nil {
			// Dangling index entry, skip it.
			continue
		}
		chats = append(chats, chat)
	}
	return chats, nil
}

// AddMember is the only mutation allowed on participants.
func (r ChatRepository) AddMember(id domain.ChatID, userID string) (domain.Chat, error) {
	var updated domain.Chat
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(chatKey(id))
		if err == badger.ErrKeyNotFound {
			return errors.ErrChatNotFound
		} else if err != nil {
			return err
		}
		var dc diskChat
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &dc)
		}); err != nil {
			return err
		}

		chat := toChat(dc)
		if chat.HasParticipant(userID) {
			updated = chat
			return nil
		}
		chat.ParticipantIDs = append(chat.ParticipantIDs, userID)
		updated = chat

		bytes, err := json.Marshal(fromChat(chat))
		if err != nil {
			return err
		}
		if err := txn.Set(chatKey(id), bytes); err != nil {
			return err
		}
		return txn.Set(memberKey(userID, id), []byte(id))
	})
	if err != nil {
		return domain.Chat{}, err
	}
	return updated, nil
}

// UpdatePreview refreshes the last-message preview shown in chat lists.
func (r ChatRepository) UpdatePreview(id domain.ChatID, preview string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(chatKey(id))
		if err == badger.ErrKeyNotFound {
			return errors.ErrChatNotFound
		} else if err != nil {
			return err
		}
		var dc diskChat
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &dc)
		}); err != nil {
			return err
		}
		dc.LastMessage = preview
		bytes, err := json.Marshal(dc)
		if err != nil {
			return err
		}
		return txn.Set(chatKey(id), bytes)
	})
}

func fromChat(chat domain.Chat) diskChat {
	return diskChat{
		ID:           string(chat.ID),
		Name:         chat.Name,
		Participants: chat.ParticipantIDs,
		LastMessage:  chat.LastMessagePreview,
		CreatedAt:    chat.CreatedAt.UnixNano(),
	}
}

func toChat(dc diskChat) domain.Chat {
	return domain.Chat{
		ID:                 domain.ChatID(dc.ID),
		Name:               dc.Name,
		ParticipantIDs:     dc.Participants,
		LastMessagePreview: dc.LastMessage,
		CreatedAt:          time.Unix(0, dc.CreatedAt).UTC(),
	}
}
