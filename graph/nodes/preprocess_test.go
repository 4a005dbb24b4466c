package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbchat/ragchat-go/graph"
)

func TestPreprocess_EmptyQuestionSetsError(t *testing.T) {
	node := NewPreprocess(nil, false)
	result := node.Run(context.Background(), graph.ChatGraphState{Question: "   "})
	assert.Equal(t, graph.ErrEmptyQuestion.Error(), result.Delta.Error)
}

func TestPreprocess_KBOverviewIntentRequiresNounAndAsk(t *testing.T) {
	node := NewPreprocess(nil, false)
	result := node.Run(context.Background(), graph.ChatGraphState{Question: "知识库里有哪些文档?"})
	assert.True(t, result.Delta.KBOverviewIntent)
}

func TestPreprocess_SearchIntentIgnoredWhenDisabled(t *testing.T) {
	node := NewPreprocess(nil, false)
	result := node.Run(context.Background(), graph.ChatGraphState{Question: "今天的最新新闻"})
	assert.False(t, result.Delta.SearchIntent)
}

func TestPreprocess_DocumentIntentForwardsPayload(t *testing.T) {
	node := NewPreprocess(stubDetector{matched: true, payload: "report"}, false)
	result := node.Run(context.Background(), graph.ChatGraphState{Question: "生成报告"})
	assert.True(t, result.Delta.DocumentIntent)
	assert.Equal(t, "report", result.Delta.DocumentPayload)
}

type stubDetector struct {
	matched bool
	payload any
}

func (d stubDetector) Detect(_ string) (bool, any) { return d.matched, d.payload }
