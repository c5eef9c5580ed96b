package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ideaprint:dedupe:"

// RedisStore backs the Store contract with Redis. SET NX is the atomic
// claim; expiry is delegated to Redis key TTLs, so CleanupExpired has
// nothing to do.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore wraps an existing client. A non-positive ttl falls
// back to DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

// OpenRedisStore connects to addr and verifies the connection with a
// ping before returning the store.
func OpenRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("dedupe: connecting to redis at %s: %w", addr, err)
	}
	return NewRedisStore(client, ttl), nil
}

func (s *RedisStore) CheckAndMark(ctx context.Context, id string) (bool, error) {
	isNew, err := s.client.SetNX(ctx, redisKeyPrefix+id, s.now().Unix(), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe: claiming %s: %w", id, err)
	}
	return isNew, nil
}

func (s *RedisStore) IsDuplicate(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe: looking up %s: %w", id, err)
	}
	return n > 0, nil
}

func (s *RedisStore) MarkProcessed(ctx context.Context, id string) error {
	if err := s.client.Set(ctx, redisKeyPrefix+id, s.now().Unix(), s.ttl).Err(); err != nil {
		return fmt.Errorf("dedupe: marking %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Unmark(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("dedupe: unmarking %s: %w", id, err)
	}
	return nil
}

// CleanupExpired is a no-op: Redis evicts expired keys on its own.
func (s *RedisStore) CleanupExpired(context.Context) (int, error) {
	return 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
