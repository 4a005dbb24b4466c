package nodes

import (
	"context"
	"errors"

	"github.com/kbchat/ragchat-go/graph"
	"github.com/kbchat/ragchat-go/graph/store"
)

// NewMemoryLoad builds the memoryLoad node: loads the per-conversation
// compressed memory string. A missing conversation key, missing row, or
// storage fault all resolve to memory=null (nonfatal); a storage fault is
// recorded into ContextMetrics rather than state.Error.
func NewMemoryLoad(s store.Store) graph.Node {
	return graph.NodeFunc(func(ctx context.Context, state graph.ChatGraphState) graph.NodeResult {
		if !state.HasConvKey || state.ConversationKey == "" {
			return graph.NodeResult{}
		}

		memory, err := s.LoadMemory(ctx, state.ConversationKey)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return graph.NodeResult{}
			}
			return graph.NodeResult{Delta: graph.ChatGraphState{
				ContextMetrics: map[string]any{"memoryLoadError": err.Error()},
			}}
		}

		return graph.NodeResult{Delta: graph.ChatGraphState{HasMemory: true, Memory: memory}}
	})
}
