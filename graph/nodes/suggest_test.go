package nodes

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbchat/ragchat-go/graph"
)

type stubSuggestionGenerator struct {
	out []string
	err error
}

func (g stubSuggestionGenerator) Generate(_ context.Context, _ string, _ SuggestionOptions) ([]string, error) {
	return g.out, g.err
}

func TestSuggest_SkipsWhenNoAnswer(t *testing.T) {
	node := NewSuggest(stubSuggestionGenerator{out: []string{"x"}})
	result := node.Run(context.Background(), graph.ChatGraphState{})
	assert.False(t, result.Delta.HasSuggestedQuestions)
}

func TestSuggest_BlocksAndPopulatesWhenNoCallback(t *testing.T) {
	node := NewSuggest(stubSuggestionGenerator{out: []string{"follow up a", "follow up b"}})
	state := graph.ChatGraphState{HasAnswer: true, Answer: "final answer", Question: "q"}
	result := node.Run(context.Background(), state)
	require.True(t, result.Delta.HasSuggestedQuestions)
	assert.Equal(t, []string{"follow up a", "follow up b"}, result.Delta.SuggestedQuestions)
}

func TestSuggest_DispatchesDetachedWhenCallbackPresent(t *testing.T) {
	node := NewSuggest(stubSuggestionGenerator{out: []string{"async suggestion"}})

	var mu sync.Mutex
	var received []string
	done := make(chan struct{})
	state := graph.ChatGraphState{
		HasAnswer: true, Answer: "final answer", Question: "q",
		OnSuggestions: func(s []string) {
			mu.Lock()
			received = s
			mu.Unlock()
			close(done)
		},
	}

	result := node.Run(context.Background(), state)
	assert.False(t, result.Delta.HasSuggestedQuestions)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"async suggestion"}, received)
}

func TestSuggest_GeneratorFailureYieldsEmptyDelta(t *testing.T) {
	node := NewSuggest(stubSuggestionGenerator{err: assert.AnError})
	state := graph.ChatGraphState{HasAnswer: true, Answer: "final answer", Question: "q"}
	result := node.Run(context.Background(), state)
	assert.False(t, result.Delta.HasSuggestedQuestions)
}
