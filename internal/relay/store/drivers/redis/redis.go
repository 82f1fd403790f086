package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/geohop/internal/relay/domain"
	"github.com/aussiebroadwan/geohop/internal/relay/store"
	"github.com/redis/go-redis/v9"
)

var _ store.Sessions = (*Store)(nil)

// Keys:
//
//	relay:session:{id}  JSON session, TTL = time left until expiry
//	relay:sessions      sorted set of ids scored by expiry (unix ms)
const (
	sessionPrefix = "relay:session:"
	expiryIndex   = "relay:sessions"
)

// Store keeps sessions in redis so several relay processes can share them.
type Store struct {
	rdb *redis.Client

	// Now is the clock used for expiry checks. Defaults to time.Now.
	Now func() time.Time
}

// New connects to addr and pings it.
func New(ctx context.Context, addr string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewWithClient(rdb), nil
}

// NewWithClient wraps an existing client. Close closes it.
func NewWithClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, Now: time.Now}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func sessionKey(id string) string { return sessionPrefix + id }

func score(t time.Time) float64 { return float64(t.UnixMilli()) }

func (s *Store) Put(ctx context.Context, sess domain.Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return store.ErrExpired
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sess.ID), data, ttl)
		pipe.ZAdd(ctx, expiryIndex, redis.Z{Score: score(sess.ExpiresAt), Member: sess.ID})
		return nil
	})
	return err
}

func (s *Store) Get(ctx context.Context, id string) (domain.Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, store.ErrNotFound
		}
		return domain.Session{}, err
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.Expired(s.now()) {
		return domain.Session{}, store.ErrNotFound
	}
	return sess, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		pipe.ZRem(ctx, expiryIndex, id)
		return nil
	})
	return err
}

func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	// Scores are whole milliseconds.
	limit := "(" + strconv.FormatInt(now.UnixMilli(), 10)

	ids, err := s.rdb.ZRangeByScore(ctx, expiryIndex, &redis.ZRangeBy{Min: "-inf", Max: limit}).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	members := make([]any, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
		members[i] = id
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, expiryIndex, members...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.rdb.ZCount(ctx, expiryIndex, strconv.FormatInt(s.now().UnixMilli(), 10), "+inf").Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error { return s.rdb.Close() }
