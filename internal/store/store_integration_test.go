package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koopa0/flightgpt/internal/log"
	"github.com/koopa0/flightgpt/internal/store"
	"github.com/koopa0/flightgpt/internal/testutil"
)

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pool, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	s := store.New(pool, log.NewNop())

	t.Run("insert returns a fresh id", func(t *testing.T) {
		id, err := s.InsertMessage(ctx, "insert-user", "user", "hello")
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)

		id2, err := s.InsertMessage(ctx, "insert-user", "assistant", "hi there")
		require.NoError(t, err)
		assert.NotEqual(t, id, id2)
	})

	t.Run("list returns newest first", func(t *testing.T) {
		userID := "order-user"
		for i := range 5 {
			_, err := s.InsertMessage(ctx, userID, "user", fmt.Sprintf("message %d", i))
			require.NoError(t, err)
		}

		messages, err := s.List(ctx, userID)
		require.NoError(t, err)
		require.Len(t, messages, 5)

		// Insertion order reversed: index 0 is the latest insert.
		for i, m := range messages {
			assert.Equal(t, fmt.Sprintf("message %d", 4-i), m.Content)
			assert.Equal(t, userID, m.UserID)
		}
		for i := 1; i < len(messages); i++ {
			assert.False(t, messages[i].CreatedAt.After(messages[i-1].CreatedAt))
		}
	})

	t.Run("list is stable without inserts", func(t *testing.T) {
		userID := "stable-user"
		_, err := s.InsertMessage(ctx, userID, "user", "only message")
		require.NoError(t, err)

		first, err := s.List(ctx, userID)
		require.NoError(t, err)
		second, err := s.List(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("list scopes by user", func(t *testing.T) {
		_, err := s.InsertMessage(ctx, "user-a", "user", "a's message")
		require.NoError(t, err)
		_, err = s.InsertMessage(ctx, "user-b", "user", "b's message")
		require.NoError(t, err)

		messages, err := s.List(ctx, "user-a")
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, "a's message", messages[0].Content)
	})

	t.Run("unknown user yields empty list", func(t *testing.T) {
		messages, err := s.List(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, messages)
	})
}
