package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	state      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);`

// SQLiteStore persists sessions in a local SQLite database so conversations
// survive process restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and ensures
// the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("session: sqlite path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent Puts.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get loads and decodes the stored state.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*State, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, ErrInvalidSessionID
	}
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM sessions WHERE id = ?`, trimmed).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	var state State
	if err := json.Unmarshal(blob, &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", trimmed, err)
	}
	return &state, nil
}

// Put serializes state and upserts it.
func (s *SQLiteStore) Put(ctx context.Context, state *State) error {
	if state == nil || strings.TrimSpace(state.ID) == "" {
		return ErrInvalidSessionID
	}
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", state.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, state, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		state.ID, blob, state.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("store session %s: %w", state.ID, err)
	}
	return nil
}

// Delete removes the session row. Unknown ids are a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return ErrInvalidSessionID
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = ?`, trimmed); err != nil {
		return fmt.Errorf("delete session %s: %w", trimmed, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
