package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCounter_AcquireUntilExhausted(t *testing.T) {
	c := NewMemoryCounter(3, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		remaining, ok, err := c.Acquire(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 2-i, remaining)
	}

	_, ok, err := c.Acquire(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCounter_CallersAreIndependent(t *testing.T) {
	c := NewMemoryCounter(1, time.Hour)
	ctx := context.Background()

	_, ok, _ := c.Acquire(ctx, "alice")
	assert.True(t, ok)
	_, ok, _ = c.Acquire(ctx, "alice")
	assert.False(t, ok)

	_, ok, _ = c.Acquire(ctx, "bob")
	assert.True(t, ok)
}

func TestMemoryCounter_WindowResets(t *testing.T) {
	c := NewMemoryCounter(1, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	ctx := context.Background()

	_, ok, _ := c.Acquire(ctx, "alice")
	assert.True(t, ok)
	_, ok, _ = c.Acquire(ctx, "alice")
	assert.False(t, ok)

	now = now.Add(time.Minute + time.Second)

	remaining, ok, _ := c.Acquire(ctx, "alice")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)
}

func TestMemoryCounter_Remaining(t *testing.T) {
	c := NewMemoryCounter(5, time.Hour)
	ctx := context.Background()

	remaining, err := c.Remaining(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)

	c.Acquire(ctx, "alice")

	remaining, err = c.Remaining(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
}

// Two concurrent requests may never both win the last unit of capacity.
func TestMemoryCounter_ConcurrentAcquireIsAtomic(t *testing.T) {
	const limit = 50
	const attempts = 200

	c := NewMemoryCounter(limit, time.Hour)
	ctx := context.Background()

	var granted int64
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := c.Acquire(ctx, "alice"); ok {
				atomic.AddInt64(&granted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), granted)
}
