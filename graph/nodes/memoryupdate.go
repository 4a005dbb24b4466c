package nodes

import (
	"context"
	"strings"

	"github.com/kbchat/ragchat-go/graph"
	"github.com/kbchat/ragchat-go/graph/store"
)

// MemoryUpdater computes the next compressed memory string from the prior
// memory and the latest question/answer turn.
type MemoryUpdater interface {
	Update(ctx context.Context, prevMemory, question, answer string) (string, error)
}

// NewMemoryUpdate builds the memoryUpdate node using the background
// policy (documented Open Question decision, SPEC_FULL.md/DESIGN.md):
// the update is dispatched without awaiting, so this request's state keeps
// its prior memory and the next request observes the persisted value via
// memoryLoad. A failed update is swallowed; memory updates are best-effort.
func NewMemoryUpdate(updater MemoryUpdater, s store.Store) graph.Node {
	return graph.NodeFunc(func(_ context.Context, state graph.ChatGraphState) graph.NodeResult {
		if !state.HasConvKey || state.ConversationKey == "" || !state.HasAnswer || state.Answer == "" {
			return graph.NodeResult{}
		}

		conversationKey := state.ConversationKey
		question := effectiveQuestion(state)
		answer := state.Answer
		prevMemory := state.Memory

		go func() {
			ctx := context.Background()
			nextMemory, err := updater.Update(ctx, prevMemory, question, answer)
			if err != nil || strings.TrimSpace(nextMemory) == "" {
				return
			}
			_ = s.UpsertMemory(ctx, conversationKey, nextMemory)
		}()

		return graph.NodeResult{}
	})
}
