package ragchat

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/kbchat/ragchat-go/graph"
	"github.com/kbchat/ragchat-go/graph/intent"
	"github.com/kbchat/ragchat-go/graph/model"
	"github.com/kbchat/ragchat-go/graph/nodes"
	"github.com/kbchat/ragchat-go/graph/retrieval"
)

// documentKeywordDetector implements intent.DocumentDetector with a small
// keyword heuristic over requests to produce a standalone document (a
// report, a summary write-up) rather than a conversational answer.
type documentKeywordDetector struct{}

var documentTriggers = []string{"生成一份", "写一份", "帮我写", "生成文档", "生成报告", "输出一份"}

func (documentKeywordDetector) Detect(question string) (bool, any) {
	for _, trigger := range documentTriggers {
		if strings.Contains(question, trigger) {
			return true, map[string]string{"trigger": trigger}
		}
	}
	return false, nil
}

// runeLanguageDetector implements nodes.LanguageDetector: text is
// considered to need translation when fewer than half its letters are CJK
// ideographs, a coarse but dependency-free heuristic sufficient to catch
// plainly non-Chinese input.
type runeLanguageDetector struct{}

func (runeLanguageDetector) Detect(text string) (string, bool) {
	var letters, cjk int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Han, r) {
			cjk++
		}
	}
	if letters == 0 {
		return "", false
	}
	if cjk*2 >= letters {
		return "", false
	}
	return "en", true
}

// chatTranslator implements nodes.Translator over a model.ChatModel.
type chatTranslator struct {
	chatModel model.ChatModel
}

func (t *chatTranslator) Translate(ctx context.Context, text, lang string) (string, error) {
	out, err := t.chatModel.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: "你是一名专业翻译，只输出翻译结果，不要添加任何解释。"},
		{Role: model.RoleUser, Content: fmt.Sprintf("将以下%s文本翻译成中文：\n%s", lang, text)},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Text), nil
}

// chatSuggestionGenerator implements nodes.SuggestionGenerator over a
// model.ChatModel, parsing one suggestion per line from the response.
type chatSuggestionGenerator struct {
	chatModel model.ChatModel
}

func (g *chatSuggestionGenerator) Generate(ctx context.Context, promptContext string, opts nodes.SuggestionOptions) ([]string, error) {
	out, err := g.chatModel.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: fmt.Sprintf("基于以下对话，生成 %d 个简短的、%s 语气的后续追问建议，每行一个，不要编号。", opts.Count, opts.Tone)},
		{Role: model.RoleUser, Content: promptContext},
	})
	if err != nil {
		return nil, err
	}
	return splitNonEmptyLines(out.Text, opts.Count), nil
}

func splitNonEmptyLines(text string, limit int) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. 、"))
		if line == "" {
			continue
		}
		out = append(out, line)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// chatDocumentGenerator implements nodes.DocumentGenerator over a
// model.StreamingChatModel.
type chatDocumentGenerator struct {
	chatModel model.StreamingChatModel
}

func (g *chatDocumentGenerator) StreamGenerate(ctx context.Context, question string, sources []graph.ChatSource, onChunk func(model.Chunk)) (model.ChatOut, error) {
	var context strings.Builder
	for i, s := range sources {
		if i > 0 {
			context.WriteString("\n\n")
		}
		context.WriteString(s.Content)
	}

	return g.chatModel.StreamChat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: "你是一名专业的文档撰写助手，请根据要求生成结构清晰、内容完整的文档。"},
		{Role: model.RoleUser, Content: fmt.Sprintf("参考材料：\n%s\n\n写作要求：%s", context.String(), question)},
	}, onChunk)
}

// chatMemoryUpdater implements nodes.MemoryUpdater over a model.ChatModel.
type chatMemoryUpdater struct {
	chatModel model.ChatModel
}

func (u *chatMemoryUpdater) Update(ctx context.Context, prevMemory, question, answer string) (string, error) {
	var system strings.Builder
	system.WriteString("你负责维护一段简短的对话记忆摘要，用于在后续对话中提供上下文。")
	if prevMemory != "" {
		fmt.Fprintf(&system, "\n已有摘要：\n%s", prevMemory)
	}
	out, err := u.chatModel.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: system.String()},
		{Role: model.RoleUser, Content: fmt.Sprintf("请将以下最新一轮对话合并进摘要，保持简洁：\n问：%s\n答：%s", question, answer)},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Text), nil
}

// kbSnapshotReader implements nodes.KBSnapshotReader over a
// retrieval.MemoryVectorStore's registered files.
type kbSnapshotReader struct {
	store *retrieval.MemoryVectorStore
}

func (r *kbSnapshotReader) ReadSnapshot(_ context.Context) (nodes.KBSnapshot, error) {
	files := r.store.Files()
	snapshot := nodes.KBSnapshot{Files: make([]nodes.KBFile, len(files))}
	tagSeen := make(map[string]bool)
	for i, f := range files {
		snapshot.Files[i] = nodes.KBFile{Name: f.Name, UpdatedAt: f.UpdatedAt, ChunkCount: f.ChunkCount, Tags: f.Tags}
		for _, tag := range f.Tags {
			if !tagSeen[tag] {
				tagSeen[tag] = true
				snapshot.AvailableTags = append(snapshot.AvailableTags, nodes.KBTag{ID: tag, Name: tag})
			}
		}
	}
	return snapshot, nil
}

var _ intent.DocumentDetector = documentKeywordDetector{}
var _ nodes.LanguageDetector = runeLanguageDetector{}
var _ nodes.Translator = (*chatTranslator)(nil)
var _ nodes.SuggestionGenerator = (*chatSuggestionGenerator)(nil)
var _ nodes.DocumentGenerator = (*chatDocumentGenerator)(nil)
var _ nodes.MemoryUpdater = (*chatMemoryUpdater)(nil)
var _ nodes.KBSnapshotReader = (*kbSnapshotReader)(nil)
