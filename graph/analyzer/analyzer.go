// Package analyzer implements the Map-Reduce long-context analyzer: a
// chat-model-backed summarizer for text bodies too large to fit directly
// into a single prompt. Concurrency pattern grounded on
// Tangerg-lynx/ai/rag/pipeline.go's errgroup-with-indexed-results fan-out
// (retrieveByQuery/retrieveByQueries), adapted from parallel retrieval to
// parallel per-chunk analysis.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kbchat/ragchat-go/graph/model"
)

// Type selects the analysis the Map and Reduce prompts are tailored to.
type Type string

const (
	TypeSummary          Type = "summary"
	TypeEntityExtraction Type = "entity_extraction"
	TypeKeyPoints        Type = "key_points"
	TypeComprehensive    Type = "comprehensive"
)

const (
	chunkSize         = 4000
	defaultMaxChunks  = 10
	mapPromptTemplate = "你是一个专业的文档分析师。请对以下文档片段进行分析（片段 %d/%d）。\n分析要求：%s\n\n文档片段：\n---\n%s\n---"
	reducePromptTemplate = "你是一个专业的文档分析师。请根据以下对文档各部分的初步分析结果，生成一份最终的完整分析报告。\n分析类型：%s\n汇总要求：逻辑清晰，重点突出，消除重复信息。\n\n初步分析结果：\n---\n%s\n---"
)

var typeInstructions = map[Type]string{
	TypeSummary:          "提炼全文主旨与关键信息，生成简明摘要。",
	TypeEntityExtraction: "识别并列出文档中出现的人物、组织、地点、时间等关键实体。",
	TypeKeyPoints:        "提取文档中的核心观点和结论，以条目形式呈现。",
	TypeComprehensive:    "对文档内容进行全面分析，涵盖主旨、关键信息、结构和重要细节。",
}

var reduceLabel = map[Type]string{
	TypeSummary: "全文摘要",
}

const defaultReduceLabel = "综合分析报告"

// Options configures a single Analyze call.
type Options struct {
	Type      Type
	MaxChunks int
}

// Analyzer runs Map-Reduce summarization over oversized text bodies using a
// chat model for both the per-chunk Map prompts and the final Reduce
// prompt.
type Analyzer struct {
	chatModel model.ChatModel
}

// New wires an Analyzer to the chat model used for both phases.
func New(chatModel model.ChatModel) *Analyzer {
	return &Analyzer{chatModel: chatModel}
}

// Analyze splits text into fixed-size chunks (capped at opts.MaxChunks),
// analyzes each concurrently, and reduces the results into one report. A
// single chunk skips the Map/Reduce split entirely and returns the direct
// analysis.
func (a *Analyzer) Analyze(ctx context.Context, text string, opts Options) (string, error) {
	maxChunks := opts.MaxChunks
	if maxChunks <= 0 {
		maxChunks = defaultMaxChunks
	}
	instruction := typeInstructions[opts.Type]
	if instruction == "" {
		instruction = typeInstructions[TypeComprehensive]
	}

	chunks := splitChunks(text, chunkSize, maxChunks)
	if len(chunks) <= 1 {
		body := text
		if len(chunks) == 1 {
			body = chunks[0]
		}
		return a.mapChunk(ctx, body, 0, 1, instruction)
	}

	analyses, err := a.mapPhase(ctx, chunks, instruction)
	if err != nil {
		return "", fmt.Errorf("analyzer: map phase: %w", err)
	}

	return a.reducePhase(ctx, analyses, opts.Type)
}

func (a *Analyzer) mapPhase(ctx context.Context, chunks []string, instruction string) ([]string, error) {
	results := make([]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for idx, chunk := range chunks {
		idx, chunk := idx, chunk
		g.Go(func() error {
			out, err := a.mapChunk(gctx, chunk, idx, len(chunks), instruction)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", idx, err)
			}
			mu.Lock()
			results[idx] = out
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Analyzer) mapChunk(ctx context.Context, chunk string, idx, total int, instruction string) (string, error) {
	prompt := fmt.Sprintf(mapPromptTemplate, idx+1, total, instruction, chunk)
	out, err := a.chatModel.Chat(ctx, []model.Message{{Role: model.RoleUser, Content: prompt}})
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

func (a *Analyzer) reducePhase(ctx context.Context, analyses []string, analysisType Type) (string, error) {
	label := reduceLabel[analysisType]
	if label == "" {
		label = defaultReduceLabel
	}
	joined := strings.Join(analyses, "\n\n---\n\n")
	prompt := fmt.Sprintf(reducePromptTemplate, label, joined)

	out, err := a.chatModel.Chat(ctx, []model.Message{{Role: model.RoleUser, Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("analyzer: reduce phase: %w", err)
	}
	return out.Text, nil
}

// splitChunks partitions text into fixed-size rune windows, capped at
// maxChunks. The final chunk absorbs any remainder past maxChunks * size
// rather than silently dropping it.
func splitChunks(text string, size, maxChunks int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	for start := 0; start < len(runes); start += size {
		if len(chunks) == maxChunks-1 {
			chunks = append(chunks, string(runes[start:]))
			return chunks
		}
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
