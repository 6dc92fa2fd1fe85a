package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "peopledesk:session:"

// RedisStore persists session blobs in Redis with a TTL per key.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client redis.UniversalClient) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("session: redis client is required")
	}
	return &RedisStore{client: client}, nil
}

// OpenRedisStore dials addr with library defaults.
func OpenRedisStore(addr string) (*RedisStore, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("session: redis address is required")
	}
	return NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}))
}

func sessionKey(sid string) string { return keyPrefix + sid }

func (s *RedisStore) Save(ctx context.Context, sid string, blob []byte, ttl time.Duration) error {
	if strings.TrimSpace(sid) == "" {
		return errors.New("session: sid is required")
	}
	if err := s.client.Set(ctx, sessionKey(sid), blob, ttl).Err(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, sid string) ([]byte, error) {
	data, err := s.client.Get(ctx, sessionKey(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	return data, nil
}

func (s *RedisStore) Delete(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, sessionKey(sid)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
