package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecom/inventory/internal/domain/shared"
)

// RedisDedupStore implements shared.IdempotencyStore using Redis. The state
// is shared across replicas, so an order event is applied by at most one
// consumer instance within the TTL window.
type RedisDedupStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDedupStore creates a dedup store on an existing Redis client
func NewRedisDedupStore(client *redis.Client) *RedisDedupStore {
	return &RedisDedupStore{
		client:    client,
		keyPrefix: "inventory:dedup:",
	}
}

// DedupKey builds the identity of one order-event application. The kind is
// the logical operation (reserve, release, deduct), not the raw event name,
// so renamed upstream events with the same meaning still deduplicate.
func DedupKey(orderID, kind string) string {
	return orderID + ":" + kind
}

// MarkProcessed marks an event as processed with a TTL. Returns true if the
// event was newly marked, false if it was already processed. SETNX makes
// the check-and-set atomic across replicas.
func (s *RedisDedupStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+eventID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark event as processed: %w", err)
	}
	return ok, nil
}

// Close closes the underlying Redis client
func (s *RedisDedupStore) Close() error {
	return s.client.Close()
}

// Ensure RedisDedupStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*RedisDedupStore)(nil)
