package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxIface is the subset of *pgxpool.Pool this package calls. It matches
// pgxmock.PgxPoolIface's signatures exactly so tests can substitute a
// pgxmock pool in place of a live connection.
type pgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store against PostgreSQL via pgx/v5, using the
// same schema as SQLiteStore but pgx's native connection pool instead of
// database/sql.
type PostgresStore struct {
	pool pgxIface
}

// NewPostgresStore connects a pgxpool.Pool to dsn and ensures its schema
// exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.createTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreWithPool builds a PostgresStore over an already-open
// pool, used by tests to inject a pgxmock.PgxPoolIface.
func NewPostgresStoreWithPool(pool pgxIface) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			key TEXT PRIMARY KEY,
			label TEXT,
			timestamp TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			conversation_key TEXT NOT NULL REFERENCES conversations(key) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
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
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// EnsureConversation implements Store.
func (s *PostgresStore) EnsureConversation(ctx context.Context, key, label string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversations (key, label, timestamp) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO NOTHING`, key, label, time.Now())
	return err
}

// AppendMessage implements Store.
func (s *PostgresStore) AppendMessage(ctx context.Context, msg Message) (int64, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (conversation_key, role, content, timestamp, status, sources)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		msg.ConversationKey, msg.Role, msg.Content, msg.Timestamp, msg.Status, string(msg.Sources)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	return id, nil
}

// RecentMessages implements Store.
func (s *PostgresStore) RecentMessages(ctx context.Context, conversationKey string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_key, role, content, timestamp, status, sources
		 FROM messages WHERE conversation_key = $1
		 ORDER BY timestamp DESC LIMIT $2`, conversationKey, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var status, sources *string
		if err := rows.Scan(&m.ID, &m.ConversationKey, &m.Role, &m.Content, &m.Timestamp, &status, &sources); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if status != nil {
			m.Status = *status
		}
		if sources != nil {
			m.Sources = []byte(*sources)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LoadMemory implements Store.
func (s *PostgresStore) LoadMemory(ctx context.Context, conversationKey string) (string, error) {
	var content string
	err := s.pool.QueryRow(ctx,
		`SELECT content FROM conversation_memory WHERE key = $1`, conversationKey).Scan(&content)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("load memory: %w", err)
	}
	return content, nil
}

// UpsertMemory implements Store.
func (s *PostgresStore) UpsertMemory(ctx context.Context, conversationKey, memory string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversation_memory (key, content) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET content = excluded.content`, conversationKey, memory)
	return err
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
