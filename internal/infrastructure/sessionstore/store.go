// Package sessionstore keeps the open feeder sessions in memory.
package sessionstore

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hapkiduki/stone-feeder/internal/domain/entity"
)

// ErrSessionNotFound is returned for unknown, expired or closed sessions.
var ErrSessionNotFound = errors.New("session not found")

// Defaults applied by New.
const (
	DefaultTTL         = 12 * time.Hour
	DefaultMaxSessions = 1000
)

// Store holds sessions between login and logout. Sessions expire after a
// TTL, and when the store is full the oldest session is evicted to make
// room. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*entity.Session

	ttl         time.Duration
	maxSessions int
	now         func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets how long a session stays valid after login.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithMaxSessions caps the number of open sessions.
func WithMaxSessions(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		sessions:    make(map[uuid.UUID]*entity.Session),
		ttl:         DefaultTTL,
		maxSessions: DefaultMaxSessions,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Open creates a session for a backend token and keeps it until Close or expiry.
func (s *Store) Open(token, user string) (*entity.Session, error) {
	sess, err := entity.NewSession(token, user)
	if err != nil {
		return nil, err
	}
	sess.CreatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.maxSessions {
		s.pruneLocked()
	}
	for len(s.sessions) >= s.maxSessions {
		s.evictOldestLocked()
	}
	s.sessions[sess.ID] = sess
	return sess, nil
}

// Get returns the session with the given id, which is usually read from a cookie.
func (s *Store) Get(id string) (*entity.Session, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	if s.expired(sess) {
		s.Close(key)
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Close destroys a session. Closing an unknown session is not an error.
func (s *Store) Close(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Prune drops every expired session and returns how many were removed.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked()
}

// Len returns the number of stored sessions, expired ones included until pruned.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) expired(sess *entity.Session) bool {
	return !s.now().Before(sess.CreatedAt.Add(s.ttl))
}

func (s *Store) pruneLocked() int {
	n := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Store) evictOldestLocked() {
	var (
		oldest uuid.UUID
		at     time.Time
		found  bool
	)
	for id, sess := range s.sessions {
		if !found || sess.CreatedAt.Before(at) {
			oldest, at, found = id, sess.CreatedAt, true
		}
	}
	if found {
		delete(s.sessions, oldest)
	}
}
