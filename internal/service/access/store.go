package access

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/audiosessions/backend/internal/model/access"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps client sessions keyed by their opaque token.
type SessionStore interface {
	Create(ctx context.Context, session access.Session) error
	Get(ctx context.Context, token string) (access.Session, error)
	// Delete removes a session. Unknown tokens are not an error.
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes every session expired at now and returns how many were dropped.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	Count(ctx context.Context) (int, error)
}

// MemoryStore implements SessionStore with a map guarded by a RWMutex.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]access.Session
}

// NewMemoryStore returns an empty in-process session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]access.Session)}
}

func (s *MemoryStore) Create(_ context.Context, session access.Session) error {
	if session.Token == "" {
		return errors.New("session token is required")
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (access.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return access.Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}
