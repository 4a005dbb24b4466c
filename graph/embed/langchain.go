package embed

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"

	"github.com/kbchat/ragchat-go/graph/progress"
)

// LangchainModel adapts a tmc/langchaingo embeddings.Embedder to the
// Facade's Model interface. langchaingo embedders are already initialized
// at construction (no network-bound model download), so Init is a no-op
// that still emits the terminal progress events expected by callers that
// always watch the same onProgress channel regardless of backend.
type LangchainModel struct {
	embedder embeddings.Embedder
}

// NewLangchainModel wraps an already-configured langchaingo embedder
// (OpenAI, HuggingFace, etc.).
func NewLangchainModel(embedder embeddings.Embedder) *LangchainModel {
	return &LangchainModel{embedder: embedder}
}

// Init implements Model.
func (m *LangchainModel) Init(_ context.Context, reporter *progress.Reporter) error {
	reporter.Initiate("langchaingo-embedder")
	reporter.Done("langchaingo-embedder")
	return nil
}

// EmbedBatch implements Model, converting langchaingo's []float32 return
// (already float32, matching Facade's wire type) through its
// EmbedDocuments call.
func (m *LangchainModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := m.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("langchaingo embed documents: %w", err)
	}
	return vectors, nil
}
