// Package intent classifies a user question into the boolean/opaque intent
// flags preprocess stashes onto ChatGraphState: substring and regex
// heuristics over the lowercased question.
package intent

import (
	"regexp"
	"strings"
)

var analysisKeywords = []string{
	"分析", "摘要", "总结", "概括", "提炼", "解读", "报告", "说明", "解释", "对比", "区别",
}

var analysisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`这(篇|个|份).{0,6}(讲|说|是关于|在讲)什么`),
	regexp.MustCompile(`核心(观点|内容|思想)`),
	regexp.MustCompile(`关键(点|信息|要点)`),
	regexp.MustCompile(`主要内容`),
}

var kbOverviewTriggerNouns = []string{"知识库", "库里", "文档"}
var kbOverviewTriggerAsks = []string{"哪些", "有什么", "概览", "统计", "多少"}

var searchKeywords = []string{
	"搜索", "联网", "查找", "最新", "今天", "最近", "实时", "网上", "互联网",
}

var realtimeTopics = []string{
	"天气", "股价", "新闻", "赛事", "分数", "发布会",
}

// DocumentDetector classifies document-oriented intents (e.g. "generate a
// report for me") external to the keyword/regex heuristics here, returning
// an opaque payload forwarded unchanged to docGenerate.
type DocumentDetector interface {
	Detect(question string) (matched bool, payload any)
}

// Result is the full intent classification of one question.
type Result struct {
	DocumentIntent   bool
	DocumentPayload  any
	KBOverviewIntent bool
	AnalysisIntent   bool
	SearchIntent     bool
}

// Classify runs all four intent heuristics over question. detector may be
// nil, in which case DocumentIntent is always false. webSearchEnabled gates
// SearchIntent per the global setting described for it.
func Classify(question string, detector DocumentDetector, webSearchEnabled bool) Result {
	var result Result

	if detector != nil {
		if matched, payload := detector.Detect(question); matched {
			result.DocumentIntent = true
			result.DocumentPayload = payload
		}
	}

	lowered := strings.ToLower(question)

	result.KBOverviewIntent = containsAny(lowered, kbOverviewTriggerNouns) && containsAny(lowered, kbOverviewTriggerAsks)
	result.AnalysisIntent = containsAny(lowered, analysisKeywords) || matchesAny(lowered, analysisPatterns)

	if webSearchEnabled {
		result.SearchIntent = containsAny(lowered, searchKeywords) || containsAny(lowered, realtimeTopics)
	}

	return result
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
