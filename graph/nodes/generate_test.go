package nodes

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbchat/ragchat-go/graph"
	"github.com/kbchat/ragchat-go/graph/analyzer"
	"github.com/kbchat/ragchat-go/graph/cost"
	"github.com/kbchat/ragchat-go/graph/model"
	"github.com/kbchat/ragchat-go/graph/tokenizer"
)

func TestGenerate_SkipsWhenErrorAlreadySet(t *testing.T) {
	node := NewGenerate(&model.MockChatModel{}, analyzer.New(&model.MockChatModel{}), nil, nil, "")
	result := node.Run(context.Background(), graph.ChatGraphState{Error: "boom"})
	assert.False(t, result.Delta.HasAnswer)
}

func TestGenerate_SkipsWhenAnswerPresentAndNotRetryable(t *testing.T) {
	node := NewGenerate(&model.MockChatModel{}, analyzer.New(&model.MockChatModel{}), nil, nil, "")
	result := node.Run(context.Background(), graph.ChatGraphState{HasAnswer: true, Answer: "already answered", GroundingStatus: graph.GroundingOK})
	assert.False(t, result.Delta.HasAnswer)
}

func TestGenerate_StreamsAndAccumulatesAnswer(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "full answer"}}}
	node := NewGenerate(mock, analyzer.New(mock), nil, nil, "")

	var tokens strings.Builder
	state := graph.ChatGraphState{Question: "q", OnToken: func(chunk string) { tokens.WriteString(chunk) }}
	result := node.Run(context.Background(), state)

	assert.Equal(t, "full answer", result.Delta.Answer)
	assert.Equal(t, "full answer", tokens.String())
}

func TestGenerate_RetryIncrementsRetryCount(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "retry answer"}}}
	node := NewGenerate(mock, analyzer.New(mock), nil, nil, "")

	state := graph.ChatGraphState{
		Question: "q", HasAnswer: true, Answer: "See [5]",
		GroundingStatus: graph.GroundingInvalidCitations, RetryCount: 0,
	}
	result := node.Run(context.Background(), state)
	assert.Equal(t, 1, result.Delta.RetryCount)
	assert.Equal(t, "retry answer", result.Delta.Answer)
}

func TestGenerate_LongContextDelegatesToAnalyzer(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "analysis result"}}}
	node := NewGenerate(mock, analyzer.New(mock), nil, nil, "")

	longContext := strings.Repeat("x", 9000)
	state := graph.ChatGraphState{Question: "q", AnalysisIntent: true, HasContext: true, Context: longContext}
	result := node.Run(context.Background(), state)

	assert.Equal(t, "analysis result", result.Delta.Answer)
}

func TestGenerate_ExactlyEightThousandCharsUsesStreamingPath(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "streamed"}}}
	node := NewGenerate(mock, analyzer.New(mock), nil, nil, "")

	context8000 := strings.Repeat("x", 8000)
	state := graph.ChatGraphState{Question: "q", AnalysisIntent: true, HasContext: true, Context: context8000}
	result := node.Run(context.Background(), state)
	assert.Equal(t, "streamed", result.Delta.Answer)
}

func TestGenerate_ErrorOnChatModelFailure(t *testing.T) {
	mock := &model.MockChatModel{Err: assert.AnError}
	node := NewGenerate(mock, analyzer.New(mock), nil, nil, "")
	result := node.Run(context.Background(), graph.ChatGraphState{Question: "q"})
	assert.Equal(t, graph.ErrGenerationFailed.Error(), result.Delta.Error)
}

func TestGenerate_RecordsCostWhenTrackerProvided(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: "full answer"}}}
	tracker := cost.NewTracker("run-1", "USD")
	counter, err := tokenizer.NewCounter()
	require.NoError(t, err)

	node := NewGenerate(mock, analyzer.New(mock), tracker, counter, "gpt-4o-mini")
	state := graph.ChatGraphState{Question: "q"}
	result := node.Run(context.Background(), state)

	assert.Equal(t, "full answer", result.Delta.Answer)
	assert.Contains(t, result.Delta.ContextMetrics, "cost_usd")
	assert.Equal(t, 1, result.Delta.ContextMetrics["call_count"])
}
