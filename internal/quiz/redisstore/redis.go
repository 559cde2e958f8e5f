package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

// Store keeps serialized quiz sessions in Redis with a sliding TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore connects to addr. A non-positive ttl falls back to 24h.
func NewStore(addr, password string, db int, ttl time.Duration) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewStoreWithClient(rdb, ttl)
}

func NewStoreWithClient(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

func (s *Store) Close() error { return s.rdb.Close() }

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:quiz_state", sessionID)
}

func (s *Store) Get(ctx context.Context, sessionID string) ([]byte, bool, error) {
	payload, err := s.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

func (s *Store) Set(ctx context.Context, sessionID string, payload []byte) error {
	return s.rdb.Set(ctx, sessionKey(sessionID), payload, s.ttl).Err()
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionKey(sessionID)).Err()
}
