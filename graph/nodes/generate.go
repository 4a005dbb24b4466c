package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/kbchat/ragchat-go/graph"
	"github.com/kbchat/ragchat-go/graph/analyzer"
	"github.com/kbchat/ragchat-go/graph/cost"
	"github.com/kbchat/ragchat-go/graph/model"
	"github.com/kbchat/ragchat-go/graph/tokenizer"
)

const longContextThreshold = 8000

// streamChunkSize and streamChunkDelay simulate streaming for long-context
// analyzer output, which arrives as one complete string rather than
// incrementally.
const (
	streamChunkSize  = 20
	streamChunkDelay = 10 * time.Millisecond
)

// NewGenerate builds the generate node: two modes (long-context Map-Reduce
// analysis, or streaming chat completion), the bounded citation-retry entry
// point. tracker and counter are optional (nil skips cost accounting): the
// CLI wires real ones, tests usually don't need them.
func NewGenerate(chatModel model.StreamingChatModel, longContextAnalyzer *analyzer.Analyzer, tracker *cost.Tracker, counter *tokenizer.Counter, modelName string) graph.Node {
	return graph.NodeFunc(func(ctx context.Context, state graph.ChatGraphState) graph.NodeResult {
		if state.Error != "" {
			return graph.NodeResult{}
		}
		isRetry := state.HasAnswer && state.Answer != "" && state.GroundingStatus == graph.GroundingInvalidCitations
		if state.HasAnswer && !isRetry {
			return graph.NodeResult{}
		}

		delta := graph.ChatGraphState{}
		if isRetry {
			delta.RetryCount = state.RetryCount + 1
		}

		question := effectiveQuestion(state)

		if state.AnalysisIntent && len(state.Context) > longContextThreshold {
			text, err := longContextAnalyzer.Analyze(ctx, state.Context, analyzer.Options{Type: analyzer.TypeComprehensive})
			if err != nil {
				delta.Error = graph.ErrGenerationFailed.Error()
				return graph.NodeResult{Delta: delta}
			}
			streamSimulated(state, text)
			recordCost(tracker, counter, modelName, state.Context, text, &delta)
			delta.HasAnswer = true
			delta.Answer = text
			return graph.NodeResult{Delta: delta}
		}

		messages := buildGenerateMessages(question, state.Context, state.IsGlobalSearch, state.Memory)
		var accumulated string
		out, err := chatModel.StreamChat(ctx, messages, func(chunk model.Chunk) {
			accumulated += chunk.Delta
			if state.OnToken != nil {
				safeOnToken(state.OnToken, chunk.Delta)
			}
		})
		if err != nil {
			delta.Error = graph.ErrGenerationFailed.Error()
			return graph.NodeResult{Delta: delta}
		}

		answer := out.Text
		if answer == "" {
			answer = accumulated
		}
		recordCost(tracker, counter, modelName, question+state.Context, answer, &delta)
		delta.HasAnswer = true
		delta.Answer = answer
		return graph.NodeResult{Delta: delta}
	})
}

// recordCost counts input/output tokens and records the call against
// tracker, merging the tracker's running totals into delta.ContextMetrics.
// A no-op when tracker or counter is nil.
func recordCost(tracker *cost.Tracker, counter *tokenizer.Counter, modelName, input, output string, delta *graph.ChatGraphState) {
	if tracker == nil || counter == nil {
		return
	}
	tracker.RecordCall(modelName, counter.Count(input), counter.Count(output), graph.NodeGenerate)
	delta.ContextMetrics = tracker.Metrics()
}

func buildGenerateMessages(question, context string, isGlobalSearch bool, memory string) []model.Message {
	var system string
	if memory != "" {
		system = fmt.Sprintf("以下是之前对话的摘要，供参考：\n%s", memory)
	}
	scope := "本地知识库"
	if isGlobalSearch {
		scope = "全局检索"
	}
	user := fmt.Sprintf("检索范围：%s\n\n上下文：\n%s\n\n问题：%s", scope, context, question)

	messages := make([]model.Message, 0, 2)
	if system != "" {
		messages = append(messages, model.Message{Role: model.RoleSystem, Content: system})
	}
	messages = append(messages, model.Message{Role: model.RoleUser, Content: user})
	return messages
}

// streamSimulated emits text to onToken in fixed-size chunks with a fixed
// delay, simulating streaming for analyzer output that arrives whole.
func streamSimulated(state graph.ChatGraphState, text string) {
	if state.OnToken == nil {
		return
	}
	runes := []rune(text)
	for i := 0; i < len(runes); i += streamChunkSize {
		end := i + streamChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		safeOnToken(state.OnToken, string(runes[i:end]))
		time.Sleep(streamChunkDelay)
	}
}

// safeOnToken swallows a panicking onToken callback: log and continue,
// never fail the request.
func safeOnToken(onToken graph.TokenSink, chunk string) {
	defer func() { recover() }()
	onToken(chunk)
}
