package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/stepauth/session"
)

// SessionStore implements session.Store with an in-process map.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*session.Session)}
}

func (s *SessionStore) Create(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.Token == "" {
		return session.ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *sess
	s.sessions[sess.Token] = &clone
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	clone := *sess
	return &clone, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var deleted int64
	for token, sess := range s.sessions {
		if sess.IsExpired(now) {
			delete(s.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}
