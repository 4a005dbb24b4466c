// Package store implements conversation persistence: conversations,
// messages, and per-conversation compressed memory, behind a Store
// interface with sqlite/mysql/postgres/in-memory backends.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested conversation, message set, or
// memory row does not exist.
var ErrNotFound = errors.New("not found")

// Conversation mirrors the conversations table.
type Conversation struct {
	Key       string
	Label     string
	Timestamp time.Time
	CreatedAt time.Time
}

// Message mirrors the messages table. Sources is stored as JSON text in
// the underlying schema and decoded here.
type Message struct {
	ID              int64
	ConversationKey string
	Role            string
	Content         string
	Timestamp       time.Time
	Status          string
	Sources         []byte // raw JSON, decoded by callers that need ChatSource
}

// Store persists conversations, messages, and the compressed
// per-conversation memory string. Implementations must be safe for
// concurrent use; single-writer semantics are achieved via serialized
// access to prepared statements, not necessarily a single goroutine.
type Store interface {
	// EnsureConversation creates the conversation row if it does not exist.
	EnsureConversation(ctx context.Context, key, label string) error

	// AppendMessage inserts a new message row.
	AppendMessage(ctx context.Context, msg Message) (int64, error)

	// RecentMessages returns up to limit messages for a conversation, most
	// recent first (uses the (conversation_key, timestamp DESC) index).
	RecentMessages(ctx context.Context, conversationKey string, limit int) ([]Message, error)

	// LoadMemory returns the compressed memory string for a conversation.
	// Returns ErrNotFound if no row exists (callers treat this as nil
	// memory).
	LoadMemory(ctx context.Context, conversationKey string) (string, error)

	// UpsertMemory writes (inserting or replacing) the compressed memory
	// string for a conversation.
	UpsertMemory(ctx context.Context, conversationKey, memory string) error

	// Close releases underlying resources.
	Close() error
}
