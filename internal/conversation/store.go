// Package conversation is the append-only transcript sink. Turns are never
// updated or deleted; the pipeline appends a user turn and an assistant turn
// per processed command.
package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"jarvislive/internal/models"
)

// Store wraps the SQLite conversation database.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the conversation database at path.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer keeps the append-only log ordered.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Conversation store opened")
	return &Store{db: db}, nil
}

// Initialize creates the turns table if it does not exist.
func (s *Store) Initialize() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS conversation_turns (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id  TEXT NOT NULL,
		role        TEXT NOT NULL,
		content     TEXT NOT NULL,
		metadata    TEXT,
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON conversation_turns(session_id, id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// AppendTurn appends one turn. Role is "user" or "assistant"; metadata is
// optional.
func (s *Store) AppendTurn(ctx context.Context, sessionID, role, content string, metadata map[string]string) error {
	var meta sql.NullString
	if len(metadata) > 0 {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to encode turn metadata: %w", err)
		}
		meta = sql.NullString{String: string(encoded), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_turns (session_id, role, content, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, role, content, meta, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit most recent turns for a session, oldest
// first.
func (s *Store) RecentTurns(ctx context.Context, sessionID string, limit int) ([]models.ConversationTurn, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, metadata, created_at
		 FROM conversation_turns WHERE session_id = ?
		 ORDER BY id DESC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var (
			turn models.ConversationTurn
			meta sql.NullString
		)
		if err := rows.Scan(&turn.ID, &turn.SessionID, &turn.Role, &turn.Content, &meta, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		if meta.Valid {
			if err := json.Unmarshal([]byte(meta.String), &turn.Metadata); err != nil {
				log.Printf("⚠️  Skipping malformed metadata on turn %d: %v", turn.ID, err)
			}
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}

	// Reverse to oldest-first for natural reading order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
