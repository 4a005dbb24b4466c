package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbchat/ragchat-go/graph"
)

type stubLangDetector struct {
	lang    string
	needed  bool
}

func (d stubLangDetector) Detect(_ string) (string, bool) { return d.lang, d.needed }

type stubTranslator struct {
	out string
	err error
}

func (t stubTranslator) Translate(_ context.Context, _, _ string) (string, error) { return t.out, t.err }

func TestTranslate_ChineseInputSkipsTranslation(t *testing.T) {
	node := NewTranslate(stubLangDetector{needed: false}, stubTranslator{})
	result := node.Run(context.Background(), graph.ChatGraphState{Question: "你好"})
	assert.Empty(t, result.Delta.TranslatedQuestion)
}

func TestTranslate_EnglishInputTranslates(t *testing.T) {
	node := NewTranslate(stubLangDetector{lang: "en", needed: true}, stubTranslator{out: "什么是 CAP？"})
	result := node.Run(context.Background(), graph.ChatGraphState{Question: "What is CAP?"})
	assert.Equal(t, "什么是 CAP？", result.Delta.TranslatedQuestion)
}

func TestTranslate_FailureLeavesStateUnchanged(t *testing.T) {
	node := NewTranslate(stubLangDetector{lang: "en", needed: true}, stubTranslator{err: assert.AnError})
	result := node.Run(context.Background(), graph.ChatGraphState{Question: "What is CAP?"})
	assert.Empty(t, result.Delta.TranslatedQuestion)
	assert.Empty(t, result.Delta.Error)
}
