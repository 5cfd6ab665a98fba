package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/wuzamanfou/smart-brain-api/internal/core/domain"
)

// RedisSessionStore implements domain.SessionStore on top of go-redis.
//
// Keys are the raw token strings; values are the user id. Atomicity of
// SetIfAbsent is delegated to Redis SET NX — no client-side locking.
type RedisSessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// SetIfAbsent creates the entry only when the token is not already present.
func (s *RedisSessionStore) SetIfAbsent(ctx context.Context, token, userID string, ttl time.Duration) (bool, error) {
	created, err := s.client.SetNX(ctx, token, userID, ttl).Result()
	if err != nil {
		return false, unavailable("setnx", err)
	}
	return created, nil
}

// Get returns the user id bound to the token.
func (s *RedisSessionStore) Get(ctx context.Context, token string) (string, error) {
	val, err := s.client.Get(ctx, token).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrSessionNotFound
	}
	if err != nil {
		return "", unavailable("get", err)
	}
	return val, nil
}

// Exists reports whether the token has a live entry.
func (s *RedisSessionStore) Exists(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, token).Result()
	if err != nil {
		return false, unavailable("exists", err)
	}
	return n > 0, nil
}

// Delete removes the entry. Returns true when a record was removed.
func (s *RedisSessionStore) Delete(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Del(ctx, token).Result()
	if err != nil {
		return false, unavailable("del", err)
	}
	return n > 0, nil
}

// HealthCheck round-trips a sentinel value to confirm connectivity. The key
// is unique per probe so concurrent probes cannot observe each other.
func (s *RedisSessionStore) HealthCheck(ctx context.Context) error {
	key := "health-check:" + uuid.NewString()

	if err := s.client.Set(ctx, key, "ok", time.Minute).Err(); err != nil {
		return unavailable("health set", err)
	}

	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return unavailable("health get", err)
	}
	if val != "ok" {
		return fmt.Errorf("health check: unexpected value %q", val)
	}

	_, _ = s.client.Del(ctx, key).Result()
	return nil
}

// unavailable marks a transport failure so callers can match it with
// errors.Is(err, domain.ErrStoreUnavailable).
func unavailable(op string, err error) error {
	return fmt.Errorf("redis %s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
