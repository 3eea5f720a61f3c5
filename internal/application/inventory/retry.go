package inventory

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds the retry-with-backoff variants of the single-item
// operations. The delay doubles per attempt and is capped at MaxDelay.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy matches the documented defaults: three attempts with
// exponential backoff capped at five seconds
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  3,
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  5 * time.Second,
	}
}

// ReserveWithRetry re-invokes Reserve on transient failures
func (s *StockService) ReserveWithRetry(ctx context.Context, orderID, sku string, quantity int64) *OperationResult {
	return s.withRetry(ctx, "reserve", sku, func(ctx context.Context) *OperationResult {
		return s.Reserve(ctx, orderID, sku, quantity)
	})
}

// ReleaseWithRetry re-invokes Release on transient failures
func (s *StockService) ReleaseWithRetry(ctx context.Context, orderID, sku string, quantity int64, reason string) *OperationResult {
	return s.withRetry(ctx, "release", sku, func(ctx context.Context) *OperationResult {
		return s.Release(ctx, orderID, sku, quantity, reason)
	})
}

// DeductWithRetry re-invokes Deduct on transient failures. Used by callers
// that require higher assurance, such as delivery confirmation.
func (s *StockService) DeductWithRetry(ctx context.Context, orderID, sku string, quantity int64) *OperationResult {
	return s.withRetry(ctx, "deduct", sku, func(ctx context.Context) *OperationResult {
		return s.Deduct(ctx, orderID, sku, quantity)
	})
}

// withRetry runs op until it succeeds, fails non-transiently, or the
// attempt budget runs out. Retries go through the full path again: the
// lock and the store predicate are never bypassed.
func (s *StockService) withRetry(ctx context.Context, op, sku string, fn func(ctx context.Context) *OperationResult) *OperationResult {
	delay := s.retry.BaseDelay
	var result *OperationResult
	for attempt := 1; ; attempt++ {
		result = fn(ctx)
		if result.Success || !result.Retryable() || attempt >= s.retry.Attempts {
			return result
		}

		s.logger.Debug("retrying stock operation",
			zap.String("op", op),
			zap.String("sku", sku),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.String("code", result.Code),
		)

		select {
		case <-ctx.Done():
			return result
		case <-time.After(delay):
		}

		delay *= 2
		if delay > s.retry.MaxDelay {
			delay = s.retry.MaxDelay
		}
	}
}
