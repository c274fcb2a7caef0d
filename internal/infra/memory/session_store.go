package memory

import (
	"context"
	"sync"
	"time"

	"quizdesk/internal/domain"
	"quizdesk/internal/session"
)

// sweepInterval bounds how often Save scans for expired records.
const sweepInterval = time.Minute

// SessionStore is an in-memory implementation of session.Store. Expired
// records are dropped when read and by a periodic sweep on Save, so records
// whose cookie never comes back do not accumulate.
type SessionStore struct {
	mu       sync.RWMutex
	now      func() time.Time
	sessions map[string]session.Data
	swept    time.Time
}

func NewSessionStore() *SessionStore {
	return NewSessionStoreWithClock(time.Now)
}

// NewSessionStoreWithClock allows deterministic expiry in tests.
func NewSessionStoreWithClock(now func() time.Time) *SessionStore {
	return &SessionStore{
		now:      now,
		sessions: make(map[string]session.Data),
	}
}

func (s *SessionStore) Get(_ context.Context, id string) (session.Data, error) {
	s.mu.RLock()
	data, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return session.Data{}, domain.ErrSessionNotFound
	}
	if !data.ExpiresAt.After(s.now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return session.Data{}, domain.ErrSessionNotFound
	}
	data.Flashes = append([]string(nil), data.Flashes...)
	return data, nil
}

func (s *SessionStore) Save(_ context.Context, data session.Data) error {
	data.Flashes = append([]string(nil), data.Flashes...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
	s.sessions[data.ID] = data
	return nil
}

// sweepLocked drops expired records, at most once per sweepInterval.
func (s *SessionStore) sweepLocked(now time.Time) {
	if now.Sub(s.swept) < sweepInterval {
		return
	}
	for id, data := range s.sessions {
		if !data.ExpiresAt.After(now) {
			delete(s.sessions, id)
		}
	}
	s.swept = now
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
