package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/querybot/querybot/internal/observability"
)

// Registry maps session IDs to sessions for servers that host many callers.
type Registry struct {
	mu       sync.RWMutex
	deps     Dependencies
	sessions map[string]*Session
}

func NewRegistry(deps Dependencies) *Registry {
	return &Registry{deps: deps, sessions: make(map[string]*Session)}
}

func (r *Registry) Create() *Session {
	s := New(uuid.NewString(), r.deps)
	r.mu.Lock()
	r.sessions[s.ID()] = s
	count := len(r.sessions)
	r.mu.Unlock()
	observability.SetActiveSessions(count)
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	count := len(r.sessions)
	r.mu.Unlock()
	observability.SetActiveSessions(count)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
