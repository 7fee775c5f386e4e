//go:generate go run go.uber.org/mock/mockgen -source=code.go -destination=../mocks/mock_code_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"

	"mio-messenger/errors"
)

type ICodeRepository interface {
	StoreCode(code LoginCode) error
	GetCode(phone string) (LoginCode, error)
	IncrementAttempts(phone string) error
	DeleteCode(phone string) error
}

// LoginCode is a pending phone verification. Only the argon2id hash of the
// code is stored; the plain code leaves the process solely through the
// notification channel.
type LoginCode struct {
	Phone          string
	CodeHash       string
	TelegramChatID string
	CreatedAt      time.Time
	Attempts       int
	TTL            time.Duration
}

// CodeRepository keeps pending codes under "code:{phone}". Entries carry a
// Badger TTL so stale codes vanish on their own; the service layer still
// checks CreatedAt explicitly so expiry is enforced even before the TTL
// sweep runs.
type CodeRepository struct {
	db *badger.DB
}

func NewCodeRepository(db *badger.DB) CodeRepository {
	return CodeRepository{db: db}
}

type diskCode struct {
	Phone          string `json:"phone"`
	CodeHash       string `json:"code_hash"`
	TelegramChatID string `json:"telegram_chat_id"`
	CreatedAt      int64  `json:"created_at"`
	Attempts       int    `json:"attempts"`
	TTLSeconds     int64  `json:"ttl_seconds"`
}

func codeKey(phone string) []byte {
	return []byte("code:" + phone)
}

func (c CodeRepository) StoreCode(code LoginCode) error {
	bytes, err := json.Marshal(fromCode(code))
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(codeKey(code.Phone), bytes).WithTTL(code.TTL)
		return txn.SetEntry(entry)
	})
}

func (c CodeRepository) GetCode(phone string) (LoginCode, error) {
	var dc diskCode
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(codeKey(phone))
		if err == badger.ErrKeyNotFound {
			return errors.ErrCodeNotFound
		} else if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &dc)
		})
	})
	if err != nil {
		return LoginCode{}, err
	}
	return toCode(dc), nil
}

func (c CodeRepository) IncrementAttempts(phone string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(codeKey(phone))
		if err == badger.ErrKeyNotFound {
			return errors.ErrCodeNotFound
		} else if err != nil {
			return err
		}
		var dc diskCode
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &dc)
		}); err != nil {
			return err
		}
		dc.Attempts++

		bytes, err := json.Marshal(dc)
		if err != nil {
			return err
		}
		// Keep the original deadline: TTL counts from CreatedAt, not from now.
		remaining := time.Until(time.Unix(dc.CreatedAt, 0).Add(time.Duration(dc.TTLSeconds) * time.Second))
		if remaining <= 0 {
			return errors.ErrCodeExpired
		}
		return txn.SetEntry(badger.NewEntry(codeKey(phone), bytes).WithTTL(remaining))
	})
}

func (c CodeRepository) DeleteCode(phone string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(codeKey(phone))
	})
}

func fromCode(code LoginCode) diskCode {
	return diskCode{
		Phone:          code.Phone,
		CodeHash:       code.CodeHash,
		TelegramChatID: code.TelegramChatID,
		CreatedAt:      code.CreatedAt.Unix(),
		Attempts:       code.Attempts,
		TTLSeconds:     int64(code.TTL / time.Second),
	}
}

func toCode(dc diskCode) LoginCode {
	return LoginCode{
		Phone:          dc.Phone,
		CodeHash:       dc.CodeHash,
		TelegramChatID: dc.TelegramChatID,
		CreatedAt:      time.Unix(dc.CreatedAt, 0).UTC(),
		Attempts:       dc.Attempts,
		TTL:            time.Duration(dc.TTLSeconds) * time.Second,
	}
}
