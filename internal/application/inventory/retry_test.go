package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()
	assert.Equal(t, 3, policy.Attempts)
	assert.Equal(t, 5*time.Second, policy.MaxDelay)
}

func TestReserveWithRetry_RecoversFromLockBusy(t *testing.T) {
	f := newFixture()
	f.items.seed("A", 10)
	f.locks.busy["A"] = true

	// free the lock after the first failed attempt
	go func() {
		time.Sleep(2 * time.Millisecond)
		f.locks.mu.Lock()
		f.locks.busy["A"] = false
		f.locks.mu.Unlock()
	}()

	result := f.service.ReserveWithRetry(context.Background(), "O1", "A", 1)
	require.True(t, result.Success)
	assert.Equal(t, int64(1), f.items.snapshot("A").Reserved)
}

func TestReserveWithRetry_ExhaustsAttempts(t *testing.T) {
	f := newFixture()
	f.items.seed("A", 10)
	f.locks.busy["A"] = true

	result := f.service.ReserveWithRetry(context.Background(), "O1", "A", 1)
	require.False(t, result.Success)
	assert.Equal(t, CodeLockBusy, result.Code)
}

func TestDeductWithRetry_BusinessErrorNotRetried(t *testing.T) {
	f := newFixture()
	f.items.seed("A", 10)

	// no reservation: InsufficientReserved is terminal, a retry would not help
	result := f.service.DeductWithRetry(context.Background(), "O1", "A", 2)
	require.False(t, result.Success)
	assert.Equal(t, CodeInsufficientReserved, result.Code)
	// the lock was only taken once
	assert.Equal(t, []string{"A"}, f.locks.acquired)
}

func TestReleaseWithRetry_CancelledContextStops(t *testing.T) {
	f := newFixture()
	f.items.seed("A", 10)
	f.locks.busy["A"] = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := f.service.ReleaseWithRetry(ctx, "O1", "A", 1, "order_cancelled")
	require.False(t, result.Success)
}
