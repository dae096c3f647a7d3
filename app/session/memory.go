package session

import (
	"context"
	"sync"
	"time"

	"github.com/m3rciful/geobot/app/dialog"
)

// Memory is an in-process backend for development and tests.
// Sessions idle for longer than ttl are treated as absent.
type Memory struct {
	mu       sync.RWMutex
	sessions map[int64]*dialog.Session
	ttl      time.Duration
	now      func() time.Time
}

// MemoryOption configures the memory backend.
type MemoryOption func(*Memory)

// WithMemoryTTL expires sessions that were not updated within ttl. Zero disables expiry.
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory constructs an empty memory backend.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		sessions: make(map[int64]*dialog.Session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) expired(s *dialog.Session) bool {
	return m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl
}

// Load returns a copy of the stored session.
func (m *Memory) Load(_ context.Context, id int64) (*dialog.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, dialog.ErrNoSession
	}
	if !m.expired(s) {
		return s.Clone(), nil
	}

	// A Save may have replaced the entry since the read lock was dropped.
	m.mu.Lock()
	cur, ok := m.sessions[id]
	if ok && cur == s {
		delete(m.sessions, id)
		ok = false
	}
	m.mu.Unlock()

	if !ok || m.expired(cur) {
		return nil, dialog.ErrNoSession
	}
	return cur.Clone(), nil
}

// Save stores a copy of s.
func (m *Memory) Save(_ context.Context, s *dialog.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

// Delete removes the session.
func (m *Memory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// List returns ids of live sessions and prunes expired ones.
func (m *Memory) List(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.sessions))
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
