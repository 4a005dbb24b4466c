package nodes

import (
	"context"

	"github.com/kbchat/ragchat-go/graph"
)

// LanguageDetector reports whether text is written in a language requiring
// translation, and which one.
type LanguageDetector interface {
	Detect(text string) (lang string, needsTranslation bool)
}

// Translator translates text from lang into Chinese.
type Translator interface {
	Translate(ctx context.Context, text, lang string) (string, error)
}

// NewTranslate builds the translate node: detects non-Chinese input and
// translates it to Chinese. Never fatal: a translator error or blank
// result leaves state unchanged; the error is discarded, not logged.
func NewTranslate(detector LanguageDetector, translator Translator) graph.Node {
	return graph.NodeFunc(func(ctx context.Context, state graph.ChatGraphState) graph.NodeResult {
		lang, needsTranslation := detector.Detect(state.Question)
		if !needsTranslation {
			return graph.NodeResult{}
		}

		translated, err := translator.Translate(ctx, state.Question, lang)
		if err != nil || translated == "" {
			return graph.NodeResult{}
		}

		return graph.NodeResult{Delta: graph.ChatGraphState{TranslatedQuestion: translated}}
	})
}
