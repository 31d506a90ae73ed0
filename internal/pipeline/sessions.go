package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/maillink/internal/review"
)

// SessionStore keeps review sessions between HTTP requests. A session is
// dropped once it has been idle longer than the TTL.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
}

type sessionEntry struct {
	session *review.Session
	touched time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
	}
}

func (s *SessionStore) Put(sess *review.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = &sessionEntry{session: sess, touched: time.Now()}
}

// Get returns a session and marks it as used.
func (s *SessionStore) Get(id string) *review.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil
	}
	e.touched = time.Now()
	return e.session
}

// Delete removes a session and reports whether it existed.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes idle sessions.
func (s *SessionStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, e := range s.sessions {
		if now.Sub(e.touched) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
