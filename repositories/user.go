//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"

	"mio-messenger/domain"
	"mio-messenger/errors"
)

type IUserRepository interface {
	SaveUser(user domain.User) error
	GetUser(id string) (domain.User, error)
}

// UserRepository stores users under "usr:{id}". A user is created on first
// successful code verification and never deleted in-band; saving the same
// phone again simply refreshes the record.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

type diskUser struct {
	ID             string `json:"id"`
	Phone          string `json:"phone"`
	TelegramChatID string `json:"telegram_chat_id"`
	CreatedAt      int64  `json:"created_at"`
}

func userKey(id string) []byte {
	return []byte("usr:" + id)
}

func (u UserRepository) SaveUser(user domain.User) error {
	bytes, err := json.Marshal(diskUser{
		ID:             user.ID,
		Phone:          user.Phone,
		TelegramChatID: user.TelegramChatID,
		CreatedAt:      user.CreatedAt.Unix(),
	})
	if err != nil {
		return err
	}
	return u.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(user.ID), bytes)
	})
}

func (u UserRepository) GetUser(id string) (domain.User, error) {
	var du diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err == badger.ErrKeyNotFound {
			return errors.ErrUserNotFound
		} else if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &du)
		})
	})
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:             du.ID,
		Phone:          du.Phone,
		TelegramChatID: du.TelegramChatID,
		CreatedAt:      time.Unix(du.CreatedAt, 0).UTC(),
	}, nil
}
