package nodes

import (
	"context"
	"regexp"
	"strconv"

	"github.com/kbchat/ragchat-go/graph"
)

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// NewGroundingCheck builds the groundingCheck node: extracts bracketed
// citation indices from answer and classifies them against usedSources.
// Routing (shouldRegenerate) lives in the engine's routeGroundingCheck,
// not here; this node only sets GroundingStatus.
func NewGroundingCheck() graph.Node {
	return graph.NodeFunc(func(_ context.Context, state graph.ChatGraphState) graph.NodeResult {
		if state.Error != "" || !state.HasAnswer || len(state.UsedSources) == 0 {
			return graph.NodeResult{Delta: graph.ChatGraphState{GroundingStatus: graph.GroundingOK}}
		}

		return graph.NodeResult{Delta: graph.ChatGraphState{
			GroundingStatus: classify(state.Answer, len(state.UsedSources)),
		}}
	})
}

func classify(answer string, sourceCount int) string {
	matches := citationPattern.FindAllStringSubmatch(answer, -1)
	if len(matches) == 0 {
		return graph.GroundingMissingCitations
	}

	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > sourceCount {
			return graph.GroundingInvalidCitations
		}
	}
	return graph.GroundingOK
}
