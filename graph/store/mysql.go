package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore implements Store against a MySQL/MariaDB database, using the
// same schema as SQLiteStore but MySQL's upsert syntax (ON DUPLICATE KEY
// UPDATE) and placeholder style.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a connection pool against dsn (a go-sql-driver/mysql
// DSN, e.g. "user:pass@tcp(host:3306)/dbname?parseTime=true") and ensures
// its schema exists. parseTime=true is required in the DSN so TIMESTAMP
// columns scan into time.Time.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			` + "`key`" + ` VARCHAR(191) PRIMARY KEY,
			label TEXT,
			timestamp TIMESTAMP NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS messages (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			conversation_key VARCHAR(191) NOT NULL,
			role VARCHAR(32) NOT NULL,
			content MEDIUMTEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			status VARCHAR(64),
			sources MEDIUMTEXT,
			INDEX idx_messages_conv (conversation_key),
			INDEX idx_messages_ts (timestamp),
			INDEX idx_messages_conv_ts (conversation_key, timestamp DESC),
			FOREIGN KEY (conversation_key) REFERENCES conversations(` + "`key`" + `) ON DELETE CASCADE
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS conversation_memory (
			` + "`key`" + ` VARCHAR(191) PRIMARY KEY,
			content MEDIUMTEXT NOT NULL
		) ENGINE=InnoDB`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// EnsureConversation implements Store.
func (s *MySQLStore) EnsureConversation(ctx context.Context, key, label string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO conversations (`key`, label, timestamp) VALUES (?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE `key` = `key`", key, label, time.Now())
	return err
}

// AppendMessage implements Store.
func (s *MySQLStore) AppendMessage(ctx context.Context, msg Message) (int64, error) {
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
func (s *MySQLStore) RecentMessages(ctx context.Context, conversationKey string, limit int) ([]Message, error) {
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
		var sources sql.NullString
		var status sql.NullString
		if err := rows.Scan(&m.ID, &m.ConversationKey, &m.Role, &m.Content, &m.Timestamp, &status, &sources); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Status = status.String
		m.Sources = []byte(sources.String)
		out = append(out, m)
	}
	return out, rows.Err()
}

// LoadMemory implements Store.
func (s *MySQLStore) LoadMemory(ctx context.Context, conversationKey string) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		"SELECT content FROM conversation_memory WHERE `key` = ?", conversationKey).Scan(&content)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load memory: %w", err)
	}
	return content, nil
}

// UpsertMemory implements Store.
func (s *MySQLStore) UpsertMemory(ctx context.Context, conversationKey, memory string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO conversation_memory (`key`, content) VALUES (?, ?) "+
			"ON DUPLICATE KEY UPDATE content = VALUES(content)", conversationKey, memory)
	return err
}

// Close implements Store.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
