package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skillbridge-backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds the pending marker,
// so a late Release never erases a completed result.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// NewRedisClient dials addr and pings it once.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	logger.ExternalServiceCall("redis", "SETNX", "key", key)
	ok, err := s.rdb.SetNX(ctx, key, pendingMarker, PendingLease).Result()
	logger.ExternalServiceResult("redis", "SETNX", err, "reserved", ok)
	if err != nil {
		return "", false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return "", true, nil
	}

	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired or released between SETNX and GET.
		return "", false, ErrInFlight
	}
	if err != nil {
		return "", false, fmt.Errorf("read idempotency key: %w", err)
	}
	if val == pendingMarker {
		return "", false, ErrInFlight
	}
	return val, false, nil
}

func (s *RedisStore) Complete(ctx context.Context, key, result string) error {
	logger.ExternalServiceCall("redis", "SET", "key", key)
	err := s.rdb.Set(ctx, key, result, s.ttl).Err()
	logger.ExternalServiceResult("redis", "SET", err)
	return err
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	err := releaseScript.Run(ctx, s.rdb, []string{key}, pendingMarker).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
