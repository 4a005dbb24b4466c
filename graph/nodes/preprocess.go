// Package nodes implements the eleven chat-graph stages as graph.Node values,
// each a thin closure over the external capability it needs (detector,
// translator, store, retriever, chat model, ...): a constructor returning
// a graph.NodeFunc, no node-specific struct when a closure suffices.
package nodes

import (
	"context"
	"strings"

	"github.com/kbchat/ragchat-go/graph"
	"github.com/kbchat/ragchat-go/graph/intent"
)

// NewPreprocess builds the preprocess node: validates the question and
// classifies intent flags. detector may be nil (documentIntent always
// false); webSearchEnabled gates searchIntent per the global setting.
func NewPreprocess(detector intent.DocumentDetector, webSearchEnabled bool) graph.Node {
	return graph.NodeFunc(func(_ context.Context, state graph.ChatGraphState) graph.NodeResult {
		question := strings.TrimSpace(state.Question)
		if question == "" {
			return graph.NodeResult{Delta: graph.ChatGraphState{Error: graph.ErrEmptyQuestion.Error()}}
		}

		result := intent.Classify(question, detector, webSearchEnabled)

		return graph.NodeResult{Delta: graph.ChatGraphState{
			Question:          question,
			HasDocumentIntent: true,
			DocumentIntent:    result.DocumentIntent,
			DocumentPayload:   result.DocumentPayload,
			KBOverviewIntent:  result.KBOverviewIntent,
			AnalysisIntent:    result.AnalysisIntent,
			SearchIntent:      result.SearchIntent,
		}}
	})
}
