package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDedupStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryDedupStore()
	defer store.Close()

	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "order-1:reserve", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := store.MarkProcessed(ctx, "order-1:reserve", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	// A different kind for the same order is a distinct event
	other, err := store.MarkProcessed(ctx, "order-1:deduct", time.Minute)
	require.NoError(t, err)
	assert.True(t, other)
}

func TestInMemoryDedupStore_Expiry(t *testing.T) {
	store := NewInMemoryDedupStore()
	defer store.Close()

	ctx := context.Background()

	marked, err := store.MarkProcessed(ctx, "order-2:release", 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, marked)

	time.Sleep(20 * time.Millisecond)

	// Expired entry may be re-marked
	again, err := store.MarkProcessed(ctx, "order-2:release", time.Minute)
	require.NoError(t, err)
	assert.True(t, again)
}

func TestInMemoryDedupStore_ConcurrentMark(t *testing.T) {
	store := NewInMemoryDedupStore()
	defer store.Close()

	const goroutines = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			marked, err := store.MarkProcessed(context.Background(), "order-4:deduct", time.Minute)
			require.NoError(t, err)
			if marked {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestInMemoryDedupStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryDedupStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestDedupKey(t *testing.T) {
	assert.Equal(t, "order-1:reserve", DedupKey("order-1", "reserve"))
}
