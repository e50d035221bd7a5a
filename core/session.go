package core

import (
	"sync"
	"time"
)

// Session holds mutable key/value state shared across the agents of one run
// tree. All methods are safe for concurrent use so parallel branches can read
// and write without external locking.
type Session struct {
	id      string
	mu      sync.RWMutex
	state   map[string]any
	created time.Time
	updated time.Time
}

// NewSession creates an empty session with the given identifier.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		id:      id,
		state:   make(map[string]any),
		created: now,
		updated: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Get returns the value stored under key and whether it exists.
func (s *Session) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state[key]
	return v, ok
}

// Set stores a value under key, replacing any previous value.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = value
	s.updated = time.Now()
}

// Delete removes a key from the state. Removing an absent key is a no-op.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, key)
	s.updated = time.Now()
}

// Snapshot returns a shallow copy of the current state for safe iteration.
func (s *Session) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]any, len(s.state))
	for k, v := range s.state {
		snapshot[k] = v
	}
	return snapshot
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.created }

// UpdatedAt returns the time of the most recent state mutation.
func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}
