package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ecom/inventory/internal/domain/inventory"
	"github.com/ecom/inventory/internal/domain/shared"
)

// releaseScript deletes the lock key only when it still holds the caller's
// token, so an expired lease taken over by another holder is never released
// by the previous owner.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisLockService implements inventory.LockService with Redis lease locks.
// A lock is a SETNX key holding a random token; it expires after its TTL so
// a crashed holder cannot block a SKU forever.
type RedisLockService struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisLockService creates a lock service on an existing Redis client
func NewRedisLockService(client *redis.Client) *RedisLockService {
	return &RedisLockService{
		client:    client,
		keyPrefix: "inventory:lock:",
	}
}

// Acquire takes the lock named key for at most ttl. The returned token is
// required to release the lock.
func (s *RedisLockService) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to acquire lock %q: %w", key, err)
	}
	if !ok {
		return "", fmt.Errorf("lock %q: %w", key, shared.ErrLockBusy)
	}
	return token, nil
}

// Release frees the lock if token still owns it. Returns false when the
// lease had already expired or was taken over.
func (s *RedisLockService) Release(ctx context.Context, key string, token string) (bool, error) {
	deleted, err := releaseScript.Run(ctx, s.client, []string{s.keyPrefix + key}, token).Int()
	if err != nil {
		return false, fmt.Errorf("failed to release lock %q: %w", key, err)
	}
	return deleted == 1, nil
}

// WithLock acquires key, runs fn, and releases on every exit path
func (s *RedisLockService) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	token, err := s.Acquire(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer s.Release(ctx, key, token)

	return fn(ctx)
}

// Ensure RedisLockService implements LockService
var _ inventory.LockService = (*RedisLockService)(nil)
