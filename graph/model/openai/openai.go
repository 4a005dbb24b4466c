// Package openai adapts OpenAI's chat completions API to
// model.StreamingChatModel.
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kbchat/ragchat-go/graph/model"
)

// ChatModel implements model.StreamingChatModel for OpenAI chat completions,
// with a retry/backoff loop around calls and the SDK's server-sent-event
// stream for StreamChat.
type ChatModel struct {
	modelName  string
	client     openaisdk.Client
	maxRetries int
	retryDelay time.Duration
}

// NewChatModel creates an OpenAI-backed ChatModel with 3 retries and a 1s
// base backoff. An empty modelName defaults to "gpt-4o".
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	return &ChatModel{
		modelName:  modelName,
		client:     openaisdk.NewClient(option.WithAPIKey(apiKey)),
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// Chat implements model.ChatModel, retrying transient errors after
// retryDelay; on rate limits the delay grows linearly with the attempt.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	params := m.buildParams(messages)

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		resp, err := m.client.Chat.Completions.New(ctx, params)
		if err == nil {
			return convertResponse(resp), nil
		}
		lastErr = err
		if !isTransientError(err) {
			return model.ChatOut{}, err
		}
		if attempt >= m.maxRetries {
			break
		}
		delay := m.retryDelay
		if isRateLimitError(err) {
			delay *= time.Duration(attempt + 1)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return model.ChatOut{}, ctx.Err()
		}
	}
	return model.ChatOut{}, fmt.Errorf("openai chat failed after %d retries: %w", m.maxRetries, lastErr)
}

// StreamChat implements model.StreamingChatModel using the chat completions
// streaming endpoint.
func (m *ChatModel) StreamChat(ctx context.Context, messages []model.Message, onChunk func(model.Chunk)) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	params := m.buildParams(messages)
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)

	var text strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta != "" {
			text.WriteString(delta)
			onChunk(model.Chunk{Delta: delta})
		}
	}
	if err := stream.Err(); err != nil {
		return model.ChatOut{}, fmt.Errorf("openai stream: %w", err)
	}
	onChunk(model.Chunk{Done: true})

	return model.ChatOut{Text: text.String()}, nil
}

func (m *ChatModel) buildParams(messages []model.Message) openaisdk.ChatCompletionNewParams {
	return openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(m.modelName),
		Messages: convertMessages(messages),
	}
}

func convertMessages(messages []model.Message) []openaisdk.ChatCompletionMessageParamUnion {
	result := make([]openaisdk.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result[i] = openaisdk.SystemMessage(msg.Content)
		case model.RoleAssistant:
			result[i] = openaisdk.AssistantMessage(msg.Content)
		default:
			result[i] = openaisdk.UserMessage(msg.Content)
		}
	}
	return result
}

func convertResponse(resp *openaisdk.ChatCompletion) model.ChatOut {
	if len(resp.Choices) == 0 {
		return model.ChatOut{}
	}
	return model.ChatOut{Text: resp.Choices[0].Message.Content}
}

// isTransientError reports whether err looks like a retryable network or
// server-side failure.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "network", "connection", "temporary", "503", "502", "500"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return isRateLimitError(err)
}

func isRateLimitError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "rate limit")
}
