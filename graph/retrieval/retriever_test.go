package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbchat/ragchat-go/graph/embed"
	"github.com/kbchat/ragchat-go/graph/progress"
	"github.com/kbchat/ragchat-go/graph/worker"
)

type stubVectorStore struct {
	empty bool
	hits  []DocumentWithScore
}

func (s *stubVectorStore) SimilaritySearch(_ context.Context, _ []float32, k int, _, _ []string) ([]DocumentWithScore, error) {
	if k < len(s.hits) {
		return s.hits[:k], nil
	}
	return s.hits, nil
}

func (s *stubVectorStore) Empty(_ context.Context) (bool, error) {
	return s.empty, nil
}

type fakeModel struct{}

func (fakeModel) Init(_ context.Context, _ *progress.Reporter) error {
	return nil
}

func (fakeModel) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func TestRetriever_EmptyIndexReturnsMessage(t *testing.T) {
	pool := worker.New(nil)
	defer pool.Terminate()

	store := &stubVectorStore{empty: true}
	r := New(store, embed.NewFacade(fakeModel{}, pool, nil), nil, Config{TopK: 4, EmptyIndexMessage: "知识库为空"})

	result, err := r.Retrieve(context.Background(), "question", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "知识库为空", result.EmptyIndexMessage)
	assert.Empty(t, result.Context)
}

func TestRetriever_ReturnsContextAndSources(t *testing.T) {
	pool := worker.New(nil)
	defer pool.Terminate()

	store := &stubVectorStore{hits: []DocumentWithScore{
		{Document: embed.Document{PageContent: "chunk one", Metadata: map[string]any{"fileName": "a.md"}}, Score: 0.8},
		{Document: embed.Document{PageContent: "chunk two"}, Score: 0.6},
	}}
	r := New(store, embed.NewFacade(fakeModel{}, pool, nil), nil, DefaultConfig())

	result, err := r.Retrieve(context.Background(), "question", nil, nil)
	require.NoError(t, err)
	assert.Contains(t, result.Context, "chunk one")
	assert.Contains(t, result.Context, "chunk two")
	require.Len(t, result.Sources, 2)
	assert.Equal(t, "a.md", result.Sources[0].FileName)
	assert.True(t, result.IsGlobalSearch)
}

func TestRetriever_NoHitsFallsBackToEmptyIndexMessage(t *testing.T) {
	pool := worker.New(nil)
	defer pool.Terminate()

	store := &stubVectorStore{}
	r := New(store, embed.NewFacade(fakeModel{}, pool, nil), nil, DefaultConfig())

	result, err := r.Retrieve(context.Background(), "question", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "知识库为空", result.EmptyIndexMessage)
}
