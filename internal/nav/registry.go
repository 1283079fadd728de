package nav

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSessionNotFound is returned when a session id is not registered.
var ErrSessionNotFound = errors.New("session not found")

// Factory builds a session for a freshly allocated id.
type Factory func(id string) *Session

// Registry holds the live navigation sessions of connected clients.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  Factory
	logger   zerolog.Logger
}

// NewRegistry creates a session registry.
func NewRegistry(factory Factory, logger zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
		logger:   logger,
	}
}

// Create allocates an id, builds a session, and registers it.
func (r *Registry) Create() *Session {
	id := "ses_" + uuid.New().String()
	session := r.factory(id)

	r.mu.Lock()
	r.sessions[id] = session
	count := len(r.sessions)
	r.mu.Unlock()

	r.logger.Info().Str("session_id", id).Int("active_sessions", count).Msg("session created")
	return session
}

// Get returns a registered session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Remove closes and unregisters a session. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		session.Close()
		r.logger.Info().Str("session_id", id).Msg("session removed")
	}
}

// Count returns the number of active sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close closes and removes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
