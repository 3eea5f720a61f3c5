package shared

import (
	"context"
	"time"
)

// IdempotencyStore tracks which events have already been applied so that
// at-least-once transports can be consumed safely.
type IdempotencyStore interface {
	// MarkProcessed atomically records an event as processed with a TTL.
	// Returns true if the event was newly marked, false if it was already
	// processed by this or another replica.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
}
