package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single SQLite file: WAL mode,
// single-writer pool sizing, auto-migration on first use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at path
// and ensures its schema exists. path may be ":memory:".
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			key TEXT PRIMARY KEY,
			label TEXT,
			timestamp TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_key TEXT NOT NULL REFERENCES conversations(key) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			status TEXT,
			sources TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv ON messages(conversation_key)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_ts ON messages(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_ts ON messages(conversation_key, timestamp DESC)`,
		`CREATE TABLE IF NOT EXISTS conversation_memory (
			key TEXT PRIMARY KEY,
			content TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// EnsureConversation implements Store.
func (s *SQLiteStore) EnsureConversation(ctx context.Context, key, label string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (key, label, timestamp) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO NOTHING`, key, label, now)
	return err
}

// AppendMessage implements Store.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg Message) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_key, role, content, timestamp, status, sources)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ConversationKey, msg.Role, msg.Content, msg.Timestamp, msg.Status, string(msg.Sources))
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	return res.LastInsertId()
}

// RecentMessages implements Store.
func (s *SQLiteStore) RecentMessages(ctx context.Context, conversationKey string, limit int) ([]Message, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_key, role, content, timestamp, status, sources
		 FROM messages WHERE conversation_key = ?
		 ORDER BY timestamp DESC LIMIT ?`, conversationKey, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var sources string
		if err := rows.Scan(&m.ID, &m.ConversationKey, &m.Role, &m.Content, &m.Timestamp, &m.Status, &sources); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Sources = []byte(sources)
		out = append(out, m)
	}
	return out, rows.Err()
}

// LoadMemory implements Store.
func (s *SQLiteStore) LoadMemory(ctx context.Context, conversationKey string) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM conversation_memory WHERE key = ?`, conversationKey).Scan(&content)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load memory: %w", err)
	}
	return content, nil
}

// UpsertMemory implements Store.
func (s *SQLiteStore) UpsertMemory(ctx context.Context, conversationKey, memory string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_memory (key, content) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET content = excluded.content`, conversationKey, memory)
	return err
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	return nil
}
