package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Counter is the per-caller fixed-window request quota. Acquire must be
// atomic: two concurrent requests may never both succeed when only one
// unit of capacity remains.
type Counter interface {
	// Acquire consumes one unit for the caller. It returns the capacity
	// remaining after the acquisition and whether the request is allowed.
	Acquire(ctx context.Context, callerID string) (remaining int, ok bool, err error)

	// Remaining reports the capacity left for the caller without consuming.
	Remaining(ctx context.Context, callerID string) (int, error)
}

type window struct {
	count   int
	startAt time.Time
}

// MemoryCounter is an in-process fixed-window counter, suitable for a
// single-instance deployment and for tests.
type MemoryCounter struct {
	limit   int
	windowD time.Duration
	mu      sync.Mutex
	callers map[string]*window
	now     func() time.Time
}

// NewMemoryCounter creates a counter allowing limit requests per window.
func NewMemoryCounter(limit int, windowD time.Duration) *MemoryCounter {
	return &MemoryCounter{
		limit:   limit,
		windowD: windowD,
		callers: make(map[string]*window),
		now:     time.Now,
	}
}

var _ Counter = (*MemoryCounter)(nil)

// Acquire consumes one unit under the lock; decrement-and-check is atomic.
func (c *MemoryCounter) Acquire(_ context.Context, callerID string) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := c.current(callerID)
	if w.count >= c.limit {
		return 0, false, nil
	}

	w.count++
	return c.limit - w.count, true, nil
}

// Remaining reports capacity left in the caller's current window.
func (c *MemoryCounter) Remaining(_ context.Context, callerID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := c.current(callerID)
	return c.limit - w.count, nil
}

// current returns the caller's window, resetting it when elapsed.
func (c *MemoryCounter) current(callerID string) *window {
	now := c.now()

	w, ok := c.callers[callerID]
	if !ok || now.Sub(w.startAt) >= c.windowD {
		w = &window{startAt: now}
		c.callers[callerID] = w
	}
	return w
}
