package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbchat/ragchat-go/graph"
	"github.com/kbchat/ragchat-go/graph/store"
)

func TestMemoryLoad_NoConversationKeySkips(t *testing.T) {
	node := NewMemoryLoad(store.NewMemStore())
	result := node.Run(context.Background(), graph.ChatGraphState{})
	assert.False(t, result.Delta.HasMemory)
}

func TestMemoryLoad_LoadsExistingMemory(t *testing.T) {
	s := store.NewMemStore()
	require.NoError(t, s.EnsureConversation(context.Background(), "conv-1", ""))
	require.NoError(t, s.UpsertMemory(context.Background(), "conv-1", "summary text"))

	node := NewMemoryLoad(s)
	result := node.Run(context.Background(), graph.ChatGraphState{HasConvKey: true, ConversationKey: "conv-1"})
	assert.True(t, result.Delta.HasMemory)
	assert.Equal(t, "summary text", result.Delta.Memory)
}

func TestMemoryLoad_MissingRowIsNonfatal(t *testing.T) {
	node := NewMemoryLoad(store.NewMemStore())
	result := node.Run(context.Background(), graph.ChatGraphState{HasConvKey: true, ConversationKey: "missing"})
	assert.Empty(t, result.Delta.Error)
	assert.False(t, result.Delta.HasMemory)
}
