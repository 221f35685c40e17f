package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/eleven-am/sight-backend/internal/shared"
)

// Manager owns the live sessions. One Session per connected wearer;
// the redis Store carries the durable record alongside.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	deps   Deps
	store  *Store
	logger *slog.Logger
}

func NewManager(deps Deps, store *Store, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		deps:     deps,
		store:    store,
		logger:   logger.With("component", "session_manager"),
	}
}

func (m *Manager) Create(ctx context.Context) (*Session, error) {
	rec := &Record{}
	if m.store != nil {
		if err := m.store.CreateRecord(ctx, rec); err != nil {
			return nil, err
		}
	} else {
		rec.ID = shared.NewID("sess_")
	}

	sess := New(rec.ID, m.deps, m.logger)

	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", sess.ID())
	return sess, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return sess, nil
}

// Remove closes the session and drops it. The redis record is marked
// ended rather than deleted so recent activity stays inspectable.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return shared.ErrNotFound
	}

	sess.Close(ctx)
	if m.store != nil {
		if err := m.store.EndRecord(ctx, id); err != nil {
			m.logger.Warn("record update failed", "session_id", id, "error", err)
		}
	}
	return nil
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll tears down every live session, for shutdown.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close(ctx)
	}
}

// Touch records utterance activity on the durable record. Failures are
// logged, not surfaced; the spoken path never blocks on bookkeeping.
func (m *Manager) Touch(ctx context.Context, id string) {
	if m.store == nil {
		return
	}
	if err := m.store.Touch(ctx, id); err != nil {
		m.logger.Debug("record touch failed", "session_id", id, "error", err)
	}
}

// BindDocument mirrors a document attach onto the durable record.
func (m *Manager) BindDocument(ctx context.Context, id, documentID string) {
	if m.store == nil {
		return
	}
	if err := m.store.BindDocument(ctx, id, documentID); err != nil {
		m.logger.Debug("record bind failed", "session_id", id, "error", err)
	}
}
