package nodes

import (
	"context"

	"github.com/kbchat/ragchat-go/graph"
	"github.com/kbchat/ragchat-go/graph/model"
)

// DocumentGenerator produces a document from (question, sources) as a
// streaming chat completion, the document-intent counterpart to generate's
// streaming answer mode.
type DocumentGenerator interface {
	StreamGenerate(ctx context.Context, question string, sources []graph.ChatSource, onChunk func(model.Chunk)) (model.ChatOut, error)
}

// NewDocGenerate builds the docGenerate node: invokes an external
// document generator, applies the same streaming discipline as generate,
// empties usedSources, and routes straight to memoryUpdate.
func NewDocGenerate(generator DocumentGenerator) graph.Node {
	return graph.NodeFunc(func(ctx context.Context, state graph.ChatGraphState) graph.NodeResult {
		if state.Error != "" {
			return graph.NodeResult{}
		}

		out, err := generator.StreamGenerate(ctx, state.Question, state.UsedSources, func(chunk model.Chunk) {
			if state.OnToken != nil {
				safeOnToken(state.OnToken, chunk.Delta)
			}
		})
		if err != nil {
			return graph.NodeResult{Delta: graph.ChatGraphState{Error: graph.ErrGenerationFailed.Error()}}
		}

		return graph.NodeResult{Delta: graph.ChatGraphState{
			HasAnswer:      true,
			Answer:         out.Text,
			HasUsedSources: true,
			UsedSources:    []graph.ChatSource{},
		}}
	})
}
