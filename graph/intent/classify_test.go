package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_KBOverviewIntent(t *testing.T) {
	result := Classify("知识库里有哪些文档", nil, false)
	assert.True(t, result.KBOverviewIntent)
}

func TestClassify_KBOverviewRequiresBothNounAndAsk(t *testing.T) {
	result := Classify("知识库很好用", nil, false)
	assert.False(t, result.KBOverviewIntent)
}

func TestClassify_AnalysisIntentFromKeyword(t *testing.T) {
	result := Classify("请帮我总结一下这份报告", nil, false)
	assert.True(t, result.AnalysisIntent)
}

func TestClassify_AnalysisIntentFromPattern(t *testing.T) {
	result := Classify("这篇文章的核心观点是什么", nil, false)
	assert.True(t, result.AnalysisIntent)
}

func TestClassify_SearchIntentDisabledByDefault(t *testing.T) {
	result := Classify("今天的最新新闻", nil, false)
	assert.False(t, result.SearchIntent)
}

func TestClassify_SearchIntentWhenEnabled(t *testing.T) {
	result := Classify("今天的最新新闻", nil, true)
	assert.True(t, result.SearchIntent)
}

func TestClassify_SearchIntentFromRealtimeTopic(t *testing.T) {
	result := Classify("北京今天天气怎么样", nil, true)
	assert.True(t, result.SearchIntent)
}

type stubDetector struct {
	matched bool
	payload any
}

func (d stubDetector) Detect(_ string) (bool, any) {
	return d.matched, d.payload
}

func TestClassify_DocumentIntentForwardsPayload(t *testing.T) {
	result := Classify("generate a report", stubDetector{matched: true, payload: "report-type"}, false)
	assert.True(t, result.DocumentIntent)
	assert.Equal(t, "report-type", result.DocumentPayload)
}
