package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dexter/pkg/errors"
)

// Lua script for an atomic fixed-window acquire.
// KEYS[1] = window counter key
// ARGV[1] = limit
// ARGV[2] = window length in seconds
// Returns remaining capacity after acquire, or -1 when denied.
const luaFixedWindowScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local count = tonumber(redis.call('GET', key) or '0')
if count >= limit then
    return -1
end

count = redis.call('INCR', key)
if count == 1 then
    redis.call('EXPIRE', key, window)
end

return limit - count
`

// RedisCounter is a distributed fixed-window counter shared by all
// instances of the service.
type RedisCounter struct {
	client  *redis.Client
	limit   int
	windowD time.Duration
	script  *redis.Script
}

// NewRedisCounter creates a distributed counter allowing limit requests
// per window.
func NewRedisCounter(client *redis.Client, limit int, windowD time.Duration) *RedisCounter {
	return &RedisCounter{
		client:  client,
		limit:   limit,
		windowD: windowD,
		script:  redis.NewScript(luaFixedWindowScript),
	}
}

var _ Counter = (*RedisCounter)(nil)

func (c *RedisCounter) key(callerID string) string {
	// Window index in the key makes resets implicit.
	idx := time.Now().Unix() / int64(c.windowD.Seconds())
	return fmt.Sprintf("chat_quota:%s:%d", callerID, idx)
}

// Acquire atomically consumes one unit via the Lua script.
func (c *RedisCounter) Acquire(ctx context.Context, callerID string) (int, bool, error) {
	remaining, err := c.script.Run(ctx, c.client, []string{c.key(callerID)}, c.limit, int(c.windowD.Seconds())).Int()
	if err != nil {
		return 0, false, errors.Wrap(err, "rate limit acquire")
	}

	if remaining < 0 {
		return 0, false, nil
	}
	return remaining, true, nil
}

// Remaining reports capacity left in the caller's current window.
func (c *RedisCounter) Remaining(ctx context.Context, callerID string) (int, error) {
	count, err := c.client.Get(ctx, c.key(callerID)).Int()
	if err == redis.Nil {
		return c.limit, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "rate limit remaining")
	}

	remaining := c.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
