// Package search maintains the phone lookup index used to pick chat
// participants. Badger remains the source of truth; the index is rebuilt
// entry for the same user on every save.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"

	"mio-messenger/domain"
)

const maxResults = 20

// UserIndex wraps one bluge writer. Writer and reader usage is safe for
// concurrent callers.
type UserIndex struct {
	log    *slog.Logger
	writer *bluge.Writer
}

func NewUserIndex(log *slog.Logger, writer *bluge.Writer) *UserIndex {
	return &UserIndex{log: log, writer: writer}
}

// IndexUser upserts the user document keyed by account id.
func (i *UserIndex) IndexUser(user domain.User) error {
	doc := bluge.NewDocument(user.ID).
		AddField(bluge.NewKeywordField("phone", user.Phone).StoreValue()).
		AddField(bluge.NewKeywordField("user_id", user.ID).StoreValue())

	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("indexing user %s: %w", user.ID, err)
	}
	return nil
}

// Result is one phone lookup hit.
type Result struct {
	UserID string `json:"user_id"`
	Phone  string `json:"phone"`
}

// SearchByPhone finds accounts whose phone contains the fragment.
func (i *UserIndex) SearchByPhone(ctx context.Context, fragment string) ([]Result, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("opening index reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("Closing index reader failed", "error", err)
		}
	}()

	query := bluge.NewWildcardQuery("*" + fragment + "*").SetField("phone")
	request := bluge.NewTopNSearch(maxResults, query)

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("searching phones: %w", err)
	}

	var results []Result
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("iterating matches: %w", err)
		}
		if match == nil {
			break
		}

		var result Result
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "phone":
				result.Phone = string(value)
			case "user_id":
				result.UserID = string(value)
			}
			return true
		})
		if err != nil {
			return nil, fmt.Errorf("reading stored fields: %w", err)
		}
		results = append(results, result)
	}
	return results, nil
}
