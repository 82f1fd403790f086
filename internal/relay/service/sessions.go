package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/geohop/internal/metrics"
	"github.com/aussiebroadwan/geohop/internal/relay/domain"
	"github.com/aussiebroadwan/geohop/internal/relay/store"
	"github.com/aussiebroadwan/geohop/pkg/tokenx"
)

var (
	// ErrInvalidToken wraps the tokenx validation error of a rejected
	// handshake.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrUnauthorized covers every reason a proxied request is refused:
	// unknown or expired session, or a token that does not belong to it.
	ErrUnauthorized = errors.New("unauthorized session")
)

// SessionService registers handshakes and authorizes proxied requests.
//
// Tokens are only checked structurally (expiry and session id); their
// signing secret is never shared with the relay.
type SessionService struct {
	Store  store.Sessions
	Region string

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Register validates token for sessionID and records the session until the
// token expires. Registering an existing session id replaces its token.
func (s *SessionService) Register(ctx context.Context, token, sessionID, clientIP string) (domain.Session, error) {
	now := s.now()

	claims, err := tokenx.ValidateAt(token, sessionID, now)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	sess := domain.Session{
		ID:        sessionID,
		Token:     token,
		Region:    claims.Region,
		Endpoint:  claims.Endpoint,
		ClientIP:  clientIP,
		CreatedAt: now,
		ExpiresAt: claims.ExpiresAtTime(),
	}
	if prev, err := s.Store.Get(ctx, sessionID); err == nil {
		sess.CreatedAt = prev.CreatedAt
	}

	if err := s.Store.Put(ctx, sess); err != nil {
		if errors.Is(err, store.ErrExpired) {
			return domain.Session{}, fmt.Errorf("%w: %w", ErrInvalidToken, tokenx.ErrExpired)
		}
		return domain.Session{}, fmt.Errorf("store session: %w", err)
	}

	s.refreshGauge(ctx)
	return sess, nil
}

// Authorize resolves the session a proxied request claims. A token other
// than the registered one is accepted when it is a valid, later-expiring
// token for the same session id, i.e. a client side refresh, and the session
// is re-bound to it.
func (s *SessionService) Authorize(ctx context.Context, sessionID, token string) (domain.Session, error) {
	if sessionID == "" || token == "" {
		return domain.Session{}, fmt.Errorf("%w: missing session id or token", ErrUnauthorized)
	}

	sess, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, fmt.Errorf("%w: unknown or expired session", ErrUnauthorized)
		}
		return domain.Session{}, err
	}
	if sess.Token == token {
		return sess, nil
	}

	claims, err := tokenx.ValidateAt(token, sessionID, s.now())
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if !claims.ExpiresAtTime().After(sess.ExpiresAt) {
		return domain.Session{}, fmt.Errorf("%w: token does not match session", ErrUnauthorized)
	}

	sess.Token = token
	sess.ExpiresAt = claims.ExpiresAtTime()
	if err := s.Store.Put(ctx, sess); err != nil {
		return domain.Session{}, fmt.Errorf("rebind session: %w", err)
	}
	return sess, nil
}

// ActiveSessions returns the number of live sessions.
func (s *SessionService) ActiveSessions(ctx context.Context) (int, error) {
	return s.Store.Count(ctx)
}

func (s *SessionService) refreshGauge(ctx context.Context) {
	if n, err := s.Store.Count(ctx); err == nil {
		metrics.RelayActiveSessions.Set(float64(n))
	}
}
