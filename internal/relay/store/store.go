package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/geohop/internal/relay/domain"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrExpired  = errors.New("store: session already expired")
)

// Sessions is the relay's session table keyed by session id. Drivers
// (memory, redis) implement it. Expired sessions are never returned by Get
// or counted, even before DeleteExpired has removed them.
type Sessions interface {
	// Put inserts or replaces a session. A session whose expiry is not in
	// the future is rejected with ErrExpired.
	Put(ctx context.Context, s domain.Session) error

	// Get returns a live session or ErrNotFound.
	Get(ctx context.Context, id string) (domain.Session, error)

	Delete(ctx context.Context, id string) error

	// DeleteExpired removes every session expired at now and returns how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	// Count returns the number of live sessions.
	Count(ctx context.Context) (int, error)

	Ping(ctx context.Context) error
	Close() error
}
