package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"mio-messenger/domain"
	"mio-messenger/errors"
)

// MessageLog persists messages in BadgerDB.
// Keys are formatted as "msg:{chat_id}:{id_padded}" so that:
//  1. A prefix scan over one chat yields messages in id order
//     (19-digit zero padding keeps lexicographical order numeric).
//  2. The id is chat-scoped, strictly increasing and never reused: it is
//     read and bumped from "seq:{chat_id}" inside the same transaction
//     that writes the message.
type MessageLog struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageLog(db *badger.DB, log *slog.Logger) MessageLog {
	return MessageLog{db: db, log: log}
}

type diskMessage struct {
	ID     int64  `json:"id"`
	Chat   string `json:"chat"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	At     int64  `json:"at"`
}

func messageKey(chatID domain.ChatID, id int64) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d", chatID, id))
}

func sequenceKey(chatID domain.ChatID) []byte {
	return []byte(fmt.Sprintf("seq:%s", chatID))
}

// Append assigns the next id in the chat's sequence and persists the
// message before returning. Fails with ErrChatNotFound for unknown chats.
func (m MessageLog) Append(chatID domain.ChatID, senderID, text string) (domain.Message, error) {
	message := domain.Message{
		ChatID:    chatID,
		SenderID:  senderID,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}

	err := m.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(chatKey(chatID)); err == badger.ErrKeyNotFound {
			return errors.ErrChatNotFound
		} else if err != nil {
			return err
		}

		next, err := nextSequence(txn, sequenceKey(chatID))
		if err != nil {
			return err
		}
		message.ID = next

		bytes, err := json.Marshal(fromMessage(message))
		if err != nil {
			return err
		}
		return txn.Set(messageKey(chatID, next), bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// nextSequence bumps the per-chat counter inside the caller's transaction,
// which makes id assignment atomic with the message write.
func nextSequence(txn *badger.Txn, key []byte) (int64, error) {
	var current int64
	item, err := txn.Get(key)
	switch err {
	case nil:
		err = item.Value(func(val []byte) error {
			_, scanErr := fmt.Sscanf(string(val), "%d", &current)
			return scanErr
		})
		if err != nil {
			return 0, err
		}
	case badger.ErrKeyNotFound:
		current = 0
	default:
		return 0, err
	}

	next := current + 1
	if err := txn.Set(key, []byte(fmt.Sprintf("%d", next))); err != nil {
		return 0, err
	}
	return next, nil
}

// ReadRange returns up to limit most recent messages with id strictly less
// than beforeID (or the newest limit when beforeID is nil), in ascending
// order. Repeated calls with the same arguments return the same result,
// modulo new appends.
func (m MessageLog) ReadRange(chatID domain.ChatID, limit int, beforeID *int64) ([]domain.Message, error) {
	var collected []diskMessage

	err := m.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(chatKey(chatID)); err == badger.ErrKeyNotFound {
			return errors.ErrChatNotFound
		} else if err != nil {
			return err
		}

		prefix := []byte(fmt.Sprintf("msg:%s:", chatID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek to the newest position and walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		if beforeID != nil {
			seekKey = messageKey(chatID, *beforeID-1)
		}
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(collected) == limit {
				break
			}
			var dm diskMessage
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &dm)
			})
			if err != nil {
				return err
			}
			collected = append(collected, dm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Collected newest-first, served oldest-first.
	messages := make([]domain.Message, 0, len(collected))
	for i := len(collected) - 1; i >= 0; i-- {
		messages = append(messages, toMessage(collected[i]))
	}
	return messages, nil
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:     message.ID,
		Chat:   string(message.ChatID),
		Sender: message.SenderID,
		Text:   message.Text,
		At:     message.Timestamp.UnixNano(),
	}
}

func toMessage(dm diskMessage) domain.Message {
	return domain.Message{
		ID:        dm.ID,
		ChatID:    domain.ChatID(dm.Chat),
		SenderID:  dm.Sender,
		Text:      dm.Text,
		Timestamp: time.Unix(0, dm.At).UTC(),
	}
}
