package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/m3rciful/geobot/app/dialog"
	"github.com/m3rciful/geobot/core/logger"
)

const component = "session"

// Backend persists sessions. Load returns dialog.ErrNoSession for unknown or expired ids.
type Backend interface {
	Load(ctx context.Context, id int64) (*dialog.Session, error)
	Save(ctx context.Context, s *dialog.Session) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]int64, error)
}

// lockEntry holds the per-session locks and the reference count.
type lockEntry struct {
	mu     sync.Mutex // serializes transitions
	commit sync.Mutex // orders commits against discard and reset
	refs   int
	epoch  uint64
	cancel context.CancelFunc
}

// Manager serializes access to sessions. Lock entries are reference
// counted and dropped once no caller holds them.
type Manager struct {
	backend Backend

	mu    sync.Mutex
	locks map[int64]*lockEntry
}

// NewManager creates a manager on top of the given backend.
func NewManager(backend Backend) *Manager {
	return &Manager{
		backend: backend,
		locks:   make(map[int64]*lockEntry),
	}
}

func (m *Manager) acquire(id int64) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// preempt invalidates every transition that started before it. Caller holds entry.commit.
func (entry *lockEntry) preempt() {
	entry.epoch++
	if entry.cancel != nil {
		entry.cancel()
		entry.cancel = nil
	}
}

func (entry *lockEntry) current() uint64 {
	entry.commit.Lock()
	defer entry.commit.Unlock()
	return entry.epoch
}

// Apply runs fn against the stored session and saves its result.
// Transitions of one session never overlap. If the session is discarded
// or reset after the call was issued, the result is dropped and
// dialog.ErrSessionDiscarded is returned. The then hooks run after a
// successful save, before any later commit of the same session.
func (m *Manager) Apply(ctx context.Context, id int64, fn func(context.Context, *dialog.Session) (*dialog.Session, error), then ...func()) error {
	entry := m.acquire(id)
	defer m.release(id)

	epoch := entry.current()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	entry.commit.Lock()
	if entry.epoch != epoch {
		entry.commit.Unlock()
		return dialog.ErrSessionDiscarded
	}
	entry.cancel = cancel
	entry.commit.Unlock()

	cur, err := m.backend.Load(runCtx, id)
	if err == nil {
		var next *dialog.Session
		next, err = fn(runCtx, cur)
		if err == nil {
			return m.commit(ctx, entry, epoch, next, then)
		}
	}

	entry.commit.Lock()
	defer entry.commit.Unlock()
	if entry.epoch != epoch {
		return dialog.ErrSessionDiscarded
	}
	entry.cancel = nil
	if errors.Is(err, dialog.ErrNoSession) {
		return err
	}
	return fmt.Errorf("session %d: %w", id, err)
}

func (m *Manager) commit(ctx context.Context, entry *lockEntry, epoch uint64, next *dialog.Session, then []func()) error {
	entry.commit.Lock()
	defer entry.commit.Unlock()

	if entry.epoch != epoch {
		return dialog.ErrSessionDiscarded
	}
	entry.cancel = nil
	if next != nil {
		if err := m.backend.Save(ctx, next); err != nil {
			return fmt.Errorf("session %d: save: %w", next.ID, err)
		}
	}
	runHooks(then)
	return nil
}

func runHooks(hooks []func()) {
	for _, fn := range hooks {
		if fn != nil {
			fn()
		}
	}
}

// Reset stores s as the new session, dropping any in-flight transition.
// The then hooks run after the save, before any later commit of the session.
func (m *Manager) Reset(ctx context.Context, s *dialog.Session, then ...func()) error {
	entry := m.acquire(s.ID)
	defer m.release(s.ID)

	entry.commit.Lock()
	defer entry.commit.Unlock()

	entry.preempt()
	if err := m.backend.Save(ctx, s); err != nil {
		return fmt.Errorf("session %d: reset: %w", s.ID, err)
	}
	logger.Debug(ctx, component, "session.reset", slog.Int64("session_id", s.ID))
	runHooks(then)
	return nil
}

// Discard removes the session and returns the last committed value.
// In-flight transitions are cancelled and their results dropped.
func (m *Manager) Discard(ctx context.Context, id int64) (*dialog.Session, error) {
	entry := m.acquire(id)
	defer m.release(id)

	entry.commit.Lock()
	defer entry.commit.Unlock()

	entry.preempt()
	prev, err := m.backend.Load(ctx, id)
	if err != nil {
		if errors.Is(err, dialog.ErrNoSession) {
			return nil, err
		}
		return nil, fmt.Errorf("session %d: load: %w", id, err)
	}
	if err := m.backend.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("session %d: delete: %w", id, err)
	}
	logger.Debug(ctx, component, "session.discard",
		slog.Int64("session_id", id),
		slog.String("state", string(prev.State)),
	)
	return prev, nil
}

// Exists reports whether a session is stored for id.
func (m *Manager) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := m.backend.Load(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, dialog.ErrNoSession):
		return false, nil
	}
	return false, err
}

// Get returns a copy of the stored session.
func (m *Manager) Get(ctx context.Context, id int64) (*dialog.Session, error) {
	return m.backend.Load(ctx, id)
}

// Count returns the number of live sessions.
func (m *Manager) Count(ctx context.Context) (int, error) {
	ids, err := m.backend.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
