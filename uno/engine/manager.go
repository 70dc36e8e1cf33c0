package engine

import (
	"sync"

	"unoserver/models"
)

// Manager owns the live sessions keyed by room code. The outer RWMutex
// only guards the map; each session carries its own mutex, so rooms
// mutate fully in parallel with each other.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*models.Session)}
}

// Get returns the session for a room, creating a lobby-state one on
// first use.
func (m *Manager) Get(room string) *models.Session {
	m.mu.RLock()
	s, ok := m.sessions[room]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[room]; ok {
		return s
	}
	s = models.NewSession(room)
	m.sessions[room] = s
	return s
}

// Lookup returns the session if it exists, without creating one.
func (m *Manager) Lookup(room string) *models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[room]
}

// Drop forgets a room's session, e.g. once its last member left.
func (m *Manager) Drop(room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, room)
}
