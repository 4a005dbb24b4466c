package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbchat/ragchat-go/graph"
)

func TestGroundingCheck_SkipsWhenNoSources(t *testing.T) {
	node := NewGroundingCheck()
	result := node.Run(context.Background(), graph.ChatGraphState{HasAnswer: true, Answer: "no citations here"})
	assert.Equal(t, graph.GroundingOK, result.Delta.GroundingStatus)
}

func TestGroundingCheck_MissingCitationsWhenNoneFound(t *testing.T) {
	node := NewGroundingCheck()
	state := graph.ChatGraphState{
		HasAnswer:   true,
		Answer:      "this answer cites nothing",
		UsedSources: []graph.ChatSource{{FileName: "a.md"}, {FileName: "b.md"}},
	}
	result := node.Run(context.Background(), state)
	assert.Equal(t, graph.GroundingMissingCitations, result.Delta.GroundingStatus)
}

func TestGroundingCheck_ValidCitationInRange(t *testing.T) {
	node := NewGroundingCheck()
	state := graph.ChatGraphState{
		HasAnswer:   true,
		Answer:      "as shown in [3]",
		UsedSources: make([]graph.ChatSource, 3),
	}
	result := node.Run(context.Background(), state)
	assert.Equal(t, graph.GroundingOK, result.Delta.GroundingStatus)
}

func TestGroundingCheck_ZeroIndexIsInvalid(t *testing.T) {
	node := NewGroundingCheck()
	state := graph.ChatGraphState{
		HasAnswer:   true,
		Answer:      "see [0]",
		UsedSources: make([]graph.ChatSource, 3),
	}
	result := node.Run(context.Background(), state)
	assert.Equal(t, graph.GroundingInvalidCitations, result.Delta.GroundingStatus)
}

func TestGroundingCheck_OutOfRangeCitationIsInvalid(t *testing.T) {
	node := NewGroundingCheck()
	state := graph.ChatGraphState{
		HasAnswer:   true,
		Answer:      "see [4]",
		UsedSources: make([]graph.ChatSource, 3),
	}
	result := node.Run(context.Background(), state)
	assert.Equal(t, graph.GroundingInvalidCitations, result.Delta.GroundingStatus)
}

func TestGroundingCheck_SkipsWhenErrorAlreadySet(t *testing.T) {
	node := NewGroundingCheck()
	state := graph.ChatGraphState{Error: "boom", HasAnswer: true, Answer: "see [1]", UsedSources: make([]graph.ChatSource, 1)}
	result := node.Run(context.Background(), state)
	assert.Equal(t, graph.GroundingOK, result.Delta.GroundingStatus)
}
