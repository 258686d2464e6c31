package session

import (
	"sync"

	"github.com/weavehq/weave/core"
)

// MemoryStore is a volatile Store keeping sessions in a process-local map.
// It is safe for concurrent access and best suited for tests or ephemeral
// demo setups. Sessions are cloned on both save and load so callers never
// share internals with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewMemoryStore constructs an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*core.Session)}
}

// Load implements Store.
func (s *MemoryStore) Load(workspace string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[workspace]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Save implements Store.
func (s *MemoryStore) Save(sess *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.WorkspaceName] = sess.Clone()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(workspace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, workspace)
	return nil
}
