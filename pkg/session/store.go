package session

import (
	"context"
	"strings"
	"sync"
)

// Store persists conversation state keyed by session id. Implementations must
// be safe for concurrent use; Get returns ErrNotFound for unknown ids.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Put(ctx context.Context, state *State) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// MemoryStore keeps sessions in-process. It is the default for single-node
// deployments and the store used by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*State),
	}
}

// Get returns a deep copy of the stored state.
func (m *MemoryStore) Get(_ context.Context, id string) (*State, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, ErrInvalidSessionID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[trimmed]
	if !ok {
		return nil, ErrNotFound
	}
	return state.Clone(), nil
}

// Put stores a deep copy of state, replacing any previous version.
func (m *MemoryStore) Put(_ context.Context, state *State) error {
	if state == nil || strings.TrimSpace(state.ID) == "" {
		return ErrInvalidSessionID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[state.ID] = state.Clone()
	return nil
}

// Delete removes the session. Deleting an unknown id is a no-op.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return ErrInvalidSessionID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, trimmed)
	return nil
}

// Close releases held sessions.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*State)
	return nil
}

var _ Store = (*MemoryStore)(nil)
