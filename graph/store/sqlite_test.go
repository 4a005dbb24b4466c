package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_ConversationAndMessages(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.EnsureConversation(ctx, "conv-1", "label"))

	id, err := s.AppendMessage(ctx, Message{
		ConversationKey: "conv-1",
		Role:            "user",
		Content:         "what is the refund policy?",
		Sources:         []byte(`[]`),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	msgs, err := s.RecentMessages(ctx, "conv-1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].Role)
}

func TestSQLiteStore_MemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.LoadMemory(ctx, "conv-missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpsertMemory(ctx, "conv-1", "compressed summary"))
	mem, err := s.LoadMemory(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "compressed summary", mem)

	require.NoError(t, s.UpsertMemory(ctx, "conv-1", "updated summary"))
	mem, err = s.LoadMemory(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "updated summary", mem)
}

func TestSQLiteStore_ForeignKeyCascade(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.EnsureConversation(ctx, "conv-1", ""))
	_, err = s.AppendMessage(ctx, Message{ConversationKey: "conv-1", Role: "user", Content: "hi"})
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, `DELETE FROM conversations WHERE key = ?`, "conv-1")
	require.NoError(t, err)

	msgs, err := s.RecentMessages(ctx, "conv-1", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs, "ON DELETE CASCADE should remove dependent messages")
}
