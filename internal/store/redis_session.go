package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/newshub/apiserver/types"
	"github.com/redis/go-redis/v9"
)

// RedisSessionRepository stores sessions in Redis, relying on key expiry.
type RedisSessionRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{
		client: client,
		prefix: "session:",
	}
}

func (r *RedisSessionRepository) key(token string) string {
	return r.prefix + token
}

func (r *RedisSessionRepository) Create(ctx context.Context, s types.Session) error {
	if s.Token == "" || s.UserID == "" {
		return errors.New("session: missing token or user id")
	}
	return r.put(ctx, s)
}

func (r *RedisSessionRepository) Get(ctx context.Context, token string) (types.Session, error) {
	val, err := r.client.Get(ctx, r.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.Session{}, ErrNotFound
	}
	if err != nil {
		return types.Session{}, err
	}

	var s types.Session
	if err := json.Unmarshal(val, &s); err != nil {
		return types.Session{}, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	return s, nil
}

func (r *RedisSessionRepository) Touch(ctx context.Context, token string, expiresAt time.Time) error {
	s, err := r.Get(ctx, token)
	if err != nil {
		return err
	}
	s.ExpiresAt = expiresAt
	return r.put(ctx, s)
}

func (r *RedisSessionRepository) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.key(token)).Err()
}

// DeleteExpired is a no-op: Redis evicts expired keys itself.
func (r *RedisSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func (r *RedisSessionRepository) put(ctx context.Context, s types.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return r.client.Del(ctx, r.key(s.Token)).Err()
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}
	return r.client.Set(ctx, r.key(s.Token), data, ttl).Err()
}
