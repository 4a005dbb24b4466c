package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbchat/ragchat-go/graph/model"
)

func TestAnalyze_SingleChunkSkipsMapReduce(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "direct analysis"}}}
	a := New(mock)

	result, err := a.Analyze(context.Background(), "short text", Options{Type: TypeSummary, MaxChunks: 10})
	require.NoError(t, err)
	assert.Equal(t, "direct analysis", result)
	assert.Len(t, mock.Calls, 1)
}

func TestAnalyze_MultiChunkRunsMapThenReduce(t *testing.T) {
	text := strings.Repeat("a", 9000)
	mock := &model.MockChatModel{Responses: []model.ChatOut{
		{Text: "map-0"}, {Text: "map-1"}, {Text: "map-2"}, {Text: "final report"},
	}}
	a := New(mock)

	result, err := a.Analyze(context.Background(), text, Options{Type: TypeSummary, MaxChunks: 10})
	require.NoError(t, err)
	assert.Equal(t, "final report", result)
	assert.Len(t, mock.Calls, 4)
}

func TestAnalyze_RespectsMaxChunksCap(t *testing.T) {
	text := strings.Repeat("b", 4000*5)
	responses := make([]model.ChatOut, 0, 3)
	for i := 0; i < 3; i++ {
		responses = append(responses, model.ChatOut{Text: "x"})
	}
	mock := &model.MockChatModel{Responses: responses}
	a := New(mock)

	_, err := a.Analyze(context.Background(), text, Options{Type: TypeComprehensive, MaxChunks: 2})
	require.NoError(t, err)
	assert.Len(t, mock.Calls, 3)
}

func TestSplitChunks_EmptyTextReturnsNoChunks(t *testing.T) {
	assert.Empty(t, splitChunks("", chunkSize, defaultMaxChunks))
}
