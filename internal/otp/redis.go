package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "otp:"

// RedisStore keeps codes in Redis, relying on key expiry for the TTL. It lets several
// server instances share pending codes.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps a Redis client. An empty prefix defaults to "otp:".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(email string) string {
	return s.prefix + email
}

// SaveCode replaces any pending code for the email.
func (s *RedisStore) SaveCode(ctx context.Context, email, hash string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(email), hash, ttl).Err(); err != nil {
		return fmt.Errorf("otp: save code: %w", err)
	}
	return nil
}

// LoadCode returns the pending hash for the email, if any.
func (s *RedisStore) LoadCode(ctx context.Context, email string) (string, bool, error) {
	hash, err := s.client.Get(ctx, s.key(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("otp: load code: %w", err)
	}
	return hash, true, nil
}

// DeleteCode removes the pending code. DEL is atomic, so only one caller observes true.
func (s *RedisStore) DeleteCode(ctx context.Context, email string) (bool, error) {
	removed, err := s.client.Del(ctx, s.key(email)).Result()
	if err != nil {
		return false, fmt.Errorf("otp: delete code: %w", err)
	}
	return removed > 0, nil
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
