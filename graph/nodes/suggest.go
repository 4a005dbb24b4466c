package nodes

import (
	"context"
	"fmt"

	"github.com/kbchat/ragchat-go/graph"
)

// SuggestionOptions parametrizes a suggestion-generation call.
type SuggestionOptions struct {
	Count int
	Tone  string
}

// SuggestionGenerator produces follow-up question suggestions from a
// rendered question/answer context.
type SuggestionGenerator interface {
	Generate(ctx context.Context, context string, opts SuggestionOptions) ([]string, error)
}

// NewSuggest builds the suggest node. When onSuggestions is set,
// generation runs detached from the graph and the callback is invoked on
// completion (possibly after RunChat has already returned); otherwise
// generation blocks and populates suggestedQuestions directly.
func NewSuggest(generator SuggestionGenerator) graph.Node {
	return graph.NodeFunc(func(ctx context.Context, state graph.ChatGraphState) graph.NodeResult {
		if state.HasSuggestedQuestions || state.Error != "" || !state.HasAnswer || state.Answer == "" {
			return graph.NodeResult{}
		}

		promptContext := fmt.Sprintf("问题: %s\n回答: %s", effectiveQuestion(state), state.Answer)
		opts := SuggestionOptions{Count: 3, Tone: "professional"}

		if state.OnSuggestions != nil {
			onSuggestions := state.OnSuggestions
			go func() {
				suggestions, err := generator.Generate(context.Background(), promptContext, opts)
				if err != nil {
					return
				}
				func() {
					defer func() { recover() }()
					onSuggestions(suggestions)
				}()
			}()
			return graph.NodeResult{}
		}

		suggestions, err := generator.Generate(ctx, promptContext, opts)
		if err != nil {
			return graph.NodeResult{}
		}

		return graph.NodeResult{Delta: graph.ChatGraphState{
			HasSuggestedQuestions: true,
			SuggestedQuestions:    suggestions,
		}}
	})
}
