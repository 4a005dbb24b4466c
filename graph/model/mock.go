package model

import (
	"context"
	"sync"
)

// MockChatModel is a test double implementing StreamingChatModel: a
// response-queue/call-history recorder extended with a scripted chunk
// stream for StreamChat.
type MockChatModel struct {
	// Responses is the sequence of outputs returned in order; the last one
	// repeats once exhausted.
	Responses []ChatOut

	// Chunks, if set, is what StreamChat replays via onChunk before
	// returning the corresponding Responses entry. If nil, StreamChat
	// synthesizes a single chunk from the response text.
	Chunks [][]Chunk

	// Err, if set, is returned instead of a response.
	Err error

	Calls []MockChatCall

	mu        sync.Mutex
	callIndex int
}

// MockChatCall records one invocation of Chat or StreamChat.
type MockChatCall struct {
	Messages []Message
}

// Chat implements ChatModel.
func (m *MockChatModel) Chat(ctx context.Context, messages []Message) (ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return ChatOut{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockChatCall{Messages: messages})

	if m.Err != nil {
		return ChatOut{}, m.Err
	}
	return m.nextResponseLocked(), nil
}

// StreamChat implements StreamingChatModel.
func (m *MockChatModel) StreamChat(ctx context.Context, messages []Message, onChunk func(Chunk)) (ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return ChatOut{}, err
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, MockChatCall{Messages: messages})
	if m.Err != nil {
		err := m.Err
		m.mu.Unlock()
		return ChatOut{}, err
	}
	idx := m.advanceLocked()
	resp := m.responseAtLocked(idx)
	var chunks []Chunk
	if idx < len(m.Chunks) {
		chunks = m.Chunks[idx]
	} else {
		chunks = []Chunk{{Delta: resp.Text, Done: true}}
	}
	m.mu.Unlock()

	for _, c := range chunks {
		if ctx.Err() != nil {
			return ChatOut{}, ctx.Err()
		}
		onChunk(c)
	}
	return resp, nil
}

func (m *MockChatModel) nextResponseLocked() ChatOut {
	idx := m.advanceLocked()
	return m.responseAtLocked(idx)
}

// advanceLocked returns the response index to use for this call and moves
// callIndex forward, without repeating past the last configured response.
func (m *MockChatModel) advanceLocked() int {
	idx := m.callIndex
	if idx >= len(m.Responses) {
		if len(m.Responses) > 0 {
			idx = len(m.Responses) - 1
		}
	} else {
		m.callIndex++
	}
	return idx
}

func (m *MockChatModel) responseAtLocked(idx int) ChatOut {
	if len(m.Responses) == 0 {
		return ChatOut{}
	}
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return m.Responses[idx]
}
