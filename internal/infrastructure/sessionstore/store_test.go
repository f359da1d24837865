package sessionstore

import (
	"sync"
	"testing"
	"time"

	"github.com/hapkiduki/stone-feeder/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Lifecycle(t *testing.T) {
	s := New()

	sess, err := s.Open(" tok ", "admin")
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.Token)
	assert.Equal(t, 1, s.Len())

	got, err := s.Get(sess.ID.String())
	require.NoError(t, err)
	assert.Same(t, sess, got)

	s.Close(sess.ID)
	_, err = s.Get(sess.ID.String())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, s.Len())

	s.Close(sess.ID)
}

func TestStore_OpenRequiresToken(t *testing.T) {
	_, err := New().Open("  ", "admin")
	assert.ErrorIs(t, err, entity.ErrEmptyToken)
}

func TestStore_GetInvalidID(t *testing.T) {
	_, err := New().Get("not-a-uuid")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_ConcurrentOpen(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Open("tok", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(c *clock, opts ...Option) *Store {
	s := New(opts...)
	s.now = c.now
	return s
}

func TestStore_SessionsExpire(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	s := newTestStore(c, WithTTL(time.Hour))

	sess, err := s.Open("tok", "")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, s.TTL())

	c.advance(59 * time.Minute)
	_, err = s.Get(sess.ID.String())
	require.NoError(t, err)

	c.advance(time.Minute)
	_, err = s.Get(sess.ID.String())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, s.Len(), "expired session is dropped on read")
}

func TestStore_Prune(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	s := newTestStore(c, WithTTL(time.Hour))

	for i := 0; i < 3; i++ {
		_, err := s.Open("old", "")
		require.NoError(t, err)
	}
	c.advance(2 * time.Hour)
	_, err := s.Open("fresh", "")
	require.NoError(t, err)

	assert.Equal(t, 3, s.Prune())
	assert.Equal(t, 1, s.Len())
}

func TestStore_MaxSessionsEvictsOldest(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	s := newTestStore(c, WithMaxSessions(2))

	first, err := s.Open("a", "")
	require.NoError(t, err)
	c.advance(time.Second)
	second, err := s.Open("b", "")
	require.NoError(t, err)
	c.advance(time.Second)
	third, err := s.Open("c", "")
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	_, err = s.Get(first.ID.String())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Get(second.ID.String())
	assert.NoError(t, err)
	_, err = s.Get(third.ID.String())
	assert.NoError(t, err)
}

func TestStore_FloodStaysBounded(t *testing.T) {
	s := New(WithMaxSessions(10))
	for i := 0; i < 500; i++ {
		_, err := s.Open("tok", "")
		require.NoError(t, err)
	}
	assert.Equal(t, 10, s.Len())
}
