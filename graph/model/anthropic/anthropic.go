// Package anthropic adapts Anthropic's Claude API to model.StreamingChatModel.
package anthropic

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kbchat/ragchat-go/graph/model"
)

// ChatModel implements model.StreamingChatModel for Claude: system-prompt
// extraction over the concrete SDK client, and a NewStreaming call for
// generate's token-by-token delivery.
type ChatModel struct {
	modelName string
	client    *anthropicsdk.Client
}

// NewChatModel creates a Claude-backed ChatModel. An empty modelName
// defaults to Claude Sonnet.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "claude-sonnet-4-5-20250929"
	}
	client := anthropicsdk.NewClient(option.WithAPIKey(apiKey))
	return &ChatModel{modelName: modelName, client: &client}
}

// Chat implements model.ChatModel.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	params := m.buildParams(messages)
	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("anthropic chat: %w", err)
	}
	return convertResponse(resp), nil
}

// StreamChat implements model.StreamingChatModel using the SDK's
// server-sent-event stream, converting text deltas into onChunk calls.
func (m *ChatModel) StreamChat(ctx context.Context, messages []model.Message, onChunk func(model.Chunk)) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	params := m.buildParams(messages)
	stream := m.client.Messages.NewStreaming(ctx, params)

	var text string
	var msg anthropicsdk.Message
	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return model.ChatOut{}, fmt.Errorf("anthropic stream accumulate: %w", err)
		}
		if delta, ok := event.AsAny().(anthropicsdk.ContentBlockDeltaEvent); ok {
			if textDelta, ok := delta.Delta.AsAny().(anthropicsdk.TextDelta); ok && textDelta.Text != "" {
				text += textDelta.Text
				onChunk(model.Chunk{Delta: textDelta.Text})
			}
		}
	}
	if err := stream.Err(); err != nil {
		return model.ChatOut{}, fmt.Errorf("anthropic stream: %w", err)
	}
	onChunk(model.Chunk{Done: true})

	return model.ChatOut{Text: text}, nil
}

func (m *ChatModel) buildParams(messages []model.Message) anthropicsdk.MessageNewParams {
	systemPrompt, conversation := extractSystemPrompt(messages)
	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(m.modelName),
		Messages:  convertMessages(conversation),
		MaxTokens: 4096,
	}
	if systemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: systemPrompt}}
	}
	return params
}

// extractSystemPrompt separates system messages (Anthropic takes them as a
// dedicated parameter, not as part of the message array).
func extractSystemPrompt(messages []model.Message) (string, []model.Message) {
	var systemPrompt string
	var rest []model.Message
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			if systemPrompt != "" {
				systemPrompt += "\n\n"
			}
			systemPrompt += msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return systemPrompt, rest
}

func convertMessages(messages []model.Message) []anthropicsdk.MessageParam {
	result := make([]anthropicsdk.MessageParam, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case model.RoleAssistant:
			result[i] = anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(msg.Content))
		default:
			result[i] = anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(msg.Content))
		}
	}
	return result
}

func convertResponse(resp *anthropicsdk.Message) model.ChatOut {
	var out model.ChatOut
	for _, block := range resp.Content {
		if b, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += b.Text
		}
	}
	return out
}
