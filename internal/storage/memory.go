package storage

import (
	"log"
	"sync"
	"time"

	"github.com/VikramTex/filedesk-backend/internal/models"
)

// DefaultSessionTTL bounds how long an abandoned conversation lingers.
const DefaultSessionTTL = 30 * time.Minute

// MemorySessionStore holds all sessions in memory. State is volatile and
// lost on restart, which is acceptable: a session only spans a few turns.
//
// Known hazard: two near-simultaneous messages from the same sender can
// interleave reads and writes of the same session. The store itself is
// safe for concurrent use; the conversation layer does not coordinate
// beyond that.
type MemorySessionStore struct {
	sessions map[string]*models.Session
	mu       sync.RWMutex
	ttl      time.Duration
	done     chan struct{}
}

// NewMemorySessionStore creates an in-memory session store and starts its
// cleanup routine.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &MemorySessionStore{
		sessions: make(map[string]*models.Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go s.cleanupExpiredSessions()
	return s
}

// Get returns the active session for phone, if any. Expired sessions are
// treated as absent.
func (s *MemorySessionStore) Get(phone string) (*models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[phone]
	if !exists || time.Now().After(session.ExpiresAt) {
		return nil, false
	}
	return session, true
}

// Put stores the session for phone, stamping creation and expiry times.
func (s *MemorySessionStore) Put(phone string, session *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	session.Phone = phone
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.ExpiresAt = now.Add(s.ttl)
	s.sessions[phone] = session
}

// Delete removes the session for phone, if present.
func (s *MemorySessionStore) Delete(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, phone)
}

// ActiveCount returns the number of unexpired sessions (for monitoring).
func (s *MemorySessionStore) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	now := time.Now()
	for _, session := range s.sessions {
		if now.Before(session.ExpiresAt) {
			count++
		}
	}
	return count
}

// Stop terminates the cleanup routine.
func (s *MemorySessionStore) Stop() {
	close(s.done)
}

// cleanupExpiredSessions runs periodically to drop expired sessions.
func (s *MemorySessionStore) cleanupExpiredSessions() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := time.Now()
			for phone, session := range s.sessions {
				if now.After(session.ExpiresAt) {
					delete(s.sessions, phone)
					log.Printf("Cleaned up expired session for %s", phone)
				}
			}
			s.mu.Unlock()
		}
	}
}
