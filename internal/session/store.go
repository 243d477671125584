package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ziadkadry99/pneumabot/internal/db"
)

// Store persists conversations. Implementations hand out copies, so a
// caller may mutate what Get returns without affecting the stored state.
type Store interface {
	Get(ctx context.Context, id string) (*Context, bool, error)
	Put(ctx context.Context, id string, c *Context) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps conversations in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Context
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Context)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Context, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.sessions[id]
	if !ok {
		return nil, false, nil
	}
	return c.Clone(), true, nil
}

func (s *MemoryStore) Put(_ context.Context, id string, c *Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = c.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// SQLiteStore keeps JSON snapshots in the chat_sessions table so
// conversations survive a restart.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a store over d.
func NewSQLiteStore(d *db.DB) *SQLiteStore {
	return &SQLiteStore{db: d}
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Context, bool, error) {
	var snapshot string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM chat_sessions WHERE id = ?`, id).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading session %s: %w", id, err)
	}
	var c Context
	if err := json.Unmarshal([]byte(snapshot), &c); err != nil {
		return nil, false, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &c, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, id string, c *Context) error {
	snapshot, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", id, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO chat_sessions (id, snapshot, updated_at) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		id, string(snapshot), c.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving session %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}
