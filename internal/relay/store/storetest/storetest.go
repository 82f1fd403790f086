// Package storetest holds behaviour tests every Sessions driver must pass.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/geohop/internal/relay/domain"
	"github.com/aussiebroadwan/geohop/internal/relay/store"
	"github.com/stretchr/testify/require"
)

// Clock is a settable time source shared between a test and a driver.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Factory returns a fresh, empty store reading time from clock.
type Factory func(t *testing.T, clock *Clock) store.Sessions

// Run exercises a Sessions driver.
func Run(t *testing.T, newStore Factory) {
	t.Run("put and get", func(t *testing.T) {
		clock := NewClock()
		s := newStore(t, clock)
		ctx := context.Background()

		want := Session("s1", clock.Now().Add(5*time.Minute))
		require.NoError(t, s.Put(ctx, want))

		got, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		require.Equal(t, want.ID, got.ID)
		require.Equal(t, want.Token, got.Token)
		require.Equal(t, want.Region, got.Region)
		require.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

		_, err = s.Get(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("put replaces", func(t *testing.T) {
		clock := NewClock()
		s := newStore(t, clock)
		ctx := context.Background()

		first := Session("s1", clock.Now().Add(time.Minute))
		require.NoError(t, s.Put(ctx, first))

		second := first
		second.Token = "rotated"
		second.ExpiresAt = clock.Now().Add(10 * time.Minute)
		require.NoError(t, s.Put(ctx, second))

		got, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		require.Equal(t, "rotated", got.Token)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("rejects expired", func(t *testing.T) {
		clock := NewClock()
		s := newStore(t, clock)

		err := s.Put(context.Background(), Session("old", clock.Now().Add(-time.Second)))
		require.ErrorIs(t, err, store.ErrExpired)
	})

	t.Run("expiry and sweep", func(t *testing.T) {
		clock := NewClock()
		s := newStore(t, clock)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, Session("short", clock.Now().Add(time.Minute))))
		require.NoError(t, s.Put(ctx, Session("long", clock.Now().Add(time.Hour))))

		n, err := s.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, n)

		clock.Advance(5 * time.Minute)

		_, err = s.Get(ctx, "short")
		require.ErrorIs(t, err, store.ErrNotFound)
		n, err = s.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		removed, err := s.DeleteExpired(ctx, clock.Now())
		require.NoError(t, err)
		require.Equal(t, 1, removed)

		removed, err = s.DeleteExpired(ctx, clock.Now())
		require.NoError(t, err)
		require.Zero(t, removed)

		_, err = s.Get(ctx, "long")
		require.NoError(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		clock := NewClock()
		s := newStore(t, clock)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, Session("s1", clock.Now().Add(time.Minute))))
		require.NoError(t, s.Delete(ctx, "s1"))
		require.NoError(t, s.Delete(ctx, "s1"))

		_, err := s.Get(ctx, "s1")
		require.ErrorIs(t, err, store.ErrNotFound)
		require.NoError(t, s.Ping(ctx))
	})
}

// Session builds a test session expiring at expires.
func Session(id string, expires time.Time) domain.Session {
	return domain.Session{
		ID:        id,
		Token:     "tok-" + id,
		Region:    "US",
		Endpoint:  "http://relay.test",
		ClientIP:  "198.51.100.10",
		CreatedAt: expires.Add(-5 * time.Minute),
		ExpiresAt: expires,
	}
}
