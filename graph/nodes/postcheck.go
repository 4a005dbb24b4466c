package nodes

import (
	"context"

	"github.com/kbchat/ragchat-go/graph"
)

// NewPostcheck builds the postcheck node: normalizes usedSources to at
// least the empty sequence. Idempotent: applying it twice produces the
// same result as applying it once.
func NewPostcheck() graph.Node {
	return graph.NodeFunc(func(_ context.Context, state graph.ChatGraphState) graph.NodeResult {
		sources := state.UsedSources
		delta := graph.ChatGraphState{
			ContextMetrics: map[string]any{"sourcesCount": len(sources)},
		}
		if !state.HasUsedSources {
			delta.HasUsedSources = true
			delta.UsedSources = []graph.ChatSource{}
		}
		return graph.NodeResult{Delta: delta}
	})
}
