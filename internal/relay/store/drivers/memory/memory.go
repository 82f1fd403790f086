package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/geohop/internal/relay/domain"
	"github.com/aussiebroadwan/geohop/internal/relay/store"
)

var _ store.Sessions = (*Store)(nil)

// Store keeps sessions in a mutex guarded map. Contents are lost on restart.
type Store struct {
	// Now is the clock used for expiry checks. Defaults to time.Now.
	Now func() time.Time

	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func New() *Store {
	return &Store{Now: time.Now, sessions: make(map[string]domain.Session)}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Store) Put(_ context.Context, sess domain.Session) error {
	if !sess.ExpiresAt.After(s.now()) {
		return store.ErrExpired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *Store) Get(_ context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || sess.Expired(s.now()) {
		return domain.Session{}, store.ErrNotFound
	}
	return sess, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *Store) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, sess := range s.sessions {
		if !sess.Expired(now) {
			n++
		}
	}
	return n, nil
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }
