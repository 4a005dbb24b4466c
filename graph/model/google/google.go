// Package google adapts Google's Gemini API to model.StreamingChatModel.
package google

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/kbchat/ragchat-go/graph/model"
)

// ChatModel implements model.StreamingChatModel for Gemini: per-call
// client construction, text-only parts conversion, and
// GenerateContentStream for StreamChat.
type ChatModel struct {
	apiKey    string
	modelName string
}

// NewChatModel creates a Gemini-backed ChatModel. An empty modelName
// defaults to "gemini-2.5-flash".
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &ChatModel{apiKey: apiKey, modelName: modelName}
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}
	if m.apiKey == "" {
		return model.ChatOut{}, errors.New("google: api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(m.apiKey))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google client: %w", err)
	}
	defer client.Close()

	genModel := client.GenerativeModel(m.modelName)
	resp, err := genModel.GenerateContent(ctx, convertMessages(messages)...)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google generate: %w", err)
	}
	return convertResponse(resp), nil
}

// StreamChat implements model.StreamingChatModel using
// GenerativeModel.GenerateContentStream.
func (m *ChatModel) StreamChat(ctx context.Context, messages []model.Message, onChunk func(model.Chunk)) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}
	if m.apiKey == "" {
		return model.ChatOut{}, errors.New("google: api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(m.apiKey))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google client: %w", err)
	}
	defer client.Close()

	genModel := client.GenerativeModel(m.modelName)
	iter := genModel.GenerateContentStream(ctx, convertMessages(messages)...)

	var text string
	for {
		resp, err := iter.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.ChatOut{}, fmt.Errorf("google stream: %w", err)
		}
		out := convertResponse(resp)
		if out.Text != "" {
			text += out.Text
			onChunk(model.Chunk{Delta: out.Text})
		}
	}
	onChunk(model.Chunk{Done: true})

	return model.ChatOut{Text: text}, nil
}

func convertMessages(messages []model.Message) []genai.Part {
	var parts []genai.Part
	for _, msg := range messages {
		if msg.Content != "" {
			parts = append(parts, genai.Text(msg.Content))
		}
	}
	return parts
}

func convertResponse(resp *genai.GenerateContentResponse) model.ChatOut {
	var out model.ChatOut
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out.Text += string(text)
			}
		}
	}
	return out
}
