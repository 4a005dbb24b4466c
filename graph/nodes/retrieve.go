package nodes

import (
	"context"

	"github.com/kbchat/ragchat-go/graph"
	"github.com/kbchat/ragchat-go/graph/retrieval"
)

// WebSearcher augments local retrieval with web results, matching
// retrieval.WebSearcher's Search method.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]retrieval.WebHit, error)
}

// NewRetrieve builds the retrieve node: hybrid retrieval over local RAG,
// optional web augmentation when searchIntent is set, and the empty-index
// short-circuit. webSearcher may be nil, in which case searchIntent is
// ignored (equivalent to the global web-search setting being disabled).
func NewRetrieve(retriever *retrieval.Retriever, webSearcher WebSearcher) graph.Node {
	return graph.NodeFunc(func(ctx context.Context, state graph.ChatGraphState) graph.NodeResult {
		question := effectiveQuestion(state)

		result, err := retriever.Retrieve(ctx, question, state.Sources, state.Tags)
		if err != nil {
			return graph.NodeResult{Delta: graph.ChatGraphState{Error: graph.ErrRetrievalFailed.Error()}}
		}

		delta := graph.ChatGraphState{
			HasContext:      true,
			Context:         result.Context,
			HasGlobalSearch: true,
			IsGlobalSearch:  result.IsGlobalSearch,
			ContextMetrics:  result.Metrics,
		}

		sources := result.Sources

		if state.SearchIntent && webSearcher != nil {
			hits, werr := webSearcher.Search(ctx, question, 3)
			if werr == nil && len(hits) > 0 {
				combined, webSources := retrieval.AugmentWithWeb(result.Context, hits)
				delta.Context = combined
				sources = append(sources, webSources...)
			}
		}

		if result.Context == "" && result.EmptyIndexMessage != "" {
			delta.HasAnswer = true
			delta.Answer = result.EmptyIndexMessage
			delta.HasUsedSources = true
			delta.UsedSources = nil
			return graph.NodeResult{Delta: delta}
		}

		delta.HasUsedSources = true
		delta.UsedSources = sources

		if state.OnSources != nil && len(sources) > 0 {
			func() {
				defer func() { recover() }()
				state.OnSources(sources)
			}()
		}

		return graph.NodeResult{Delta: delta}
	})
}

// effectiveQuestion prefers the translated question when present.
func effectiveQuestion(state graph.ChatGraphState) string {
	if state.TranslatedQuestion != "" {
		return state.TranslatedQuestion
	}
	return state.Question
}
