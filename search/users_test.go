package search

import (
	"context"
	"log/slog"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"

	"mio-messenger/domain"
)

func openTestIndex(t *testing.T) *UserIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, writer.Close()) })
	return NewUserIndex(slog.New(slog.DiscardHandler), writer)
}

func Test_UserIndex_Should_Find_User_By_Phone_Fragment(t *testing.T) {
	// Given two indexed users
	index := openTestIndex(t)
	require.NoError(t, index.IndexUser(domain.NewUser("33612345678", "")))
	require.NoError(t, index.IndexUser(domain.NewUser("33798765432", "")))

	// When searching a middle fragment of the first phone
	results, err := index.SearchByPhone(context.Background(), "1234")

	// Then only the matching account comes back
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "user-33612345678", results[0].UserID)
	require.Equal(t, "33612345678", results[0].Phone)
}

func Test_UserIndex_Should_Upsert_On_Reindex(t *testing.T) {
	// Given the same user indexed twice
	index := openTestIndex(t)
	user := domain.NewUser("33612345678", "")
	require.NoError(t, index.IndexUser(user))
	require.NoError(t, index.IndexUser(user))

	// When searching the full phone
	results, err := index.SearchByPhone(context.Background(), "33612345678")

	// Then there is a single document, not a duplicate
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func Test_UserIndex_Should_Return_Empty_On_No_Match(t *testing.T) {
	// Given one indexed user
	index := openTestIndex(t)
	require.NoError(t, index.IndexUser(domain.NewUser("33612345678", "")))

	// When searching an unknown fragment
	results, err := index.SearchByPhone(context.Background(), "999999")

	// Then the result set is empty without error
	require.NoError(t, err)
	require.Empty(t, results)
}
