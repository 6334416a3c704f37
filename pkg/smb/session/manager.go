package session

import (
	"sync"
	"sync/atomic"
)

// Manager is the server-wide session registry.
//
// It is the single source of truth for session lifecycle: handlers create a
// session when the challenge leg starts, look it up on the authenticate
// leg, and delete it on logoff or connection teardown. All methods are safe
// for concurrent use.
type Manager struct {
	sessions      sync.Map // sessionID -> *Session
	nextSessionID atomic.Uint64
}

// NewManager creates a registry holding only the anonymous pre-auth
// session (ID 0), which carries the handshake state of requests that
// arrive before authentication completes.
func NewManager() *Manager {
	m := &Manager{}
	m.nextSessionID.Store(1)
	m.sessions.Store(uint64(0), NewSession(0))
	return m
}

// CreateSession allocates a fresh session ID, registers a session under
// it, and returns the session.
func (m *Manager) CreateSession() *Session {
	id := m.nextSessionID.Add(1)
	s := NewSession(id)
	m.sessions.Store(id, s)
	return s
}

// GetSession retrieves a session by ID.
func (m *Manager) GetSession(id uint64) (*Session, bool) {
	v, ok := m.sessions.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// StoreSession registers an externally built session, e.g. one whose ID
// was reserved before the handshake finished.
func (m *Manager) StoreSession(s *Session) {
	m.sessions.Store(s.SessionID, s)
}

// GetOrCreateSession returns the session for id, registering an empty one
// if a request references a session still being set up. LoadOrStore keeps
// concurrent callers from racing into two sessions under one ID.
func (m *Manager) GetOrCreateSession(id uint64) *Session {
	if s, ok := m.GetSession(id); ok {
		return s
	}
	s := NewSession(id)
	actual, loaded := m.sessions.LoadOrStore(id, s)
	if loaded {
		return actual.(*Session)
	}
	return s
}

// GenerateSessionID reserves a session ID without registering a session.
func (m *Manager) GenerateSessionID() uint64 {
	return m.nextSessionID.Add(1)
}

// DeleteSession erases a session's key material and removes it. The
// anonymous session (ID 0) is never deleted.
func (m *Manager) DeleteSession(id uint64) {
	if id == 0 {
		return
	}
	if v, ok := m.sessions.LoadAndDelete(id); ok {
		v.(*Session).Destroy()
	}
}

// Count returns the number of registered sessions, the anonymous session
// included.
func (m *Manager) Count() int {
	n := 0
	m.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
