package redis

import (
	"context"
	"strconv"
	"time"
)

// Set stores value; a zero ttl keeps it until deleted.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.cmd == nil {
		return ErrNotInitialized
	}
	return c.cmd.Set(ctx, key, value, ttl).Err()
}

// Get returns redis.Nil for a missing key; check it with IsNil.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.cmd == nil {
		return "", ErrNotInitialized
	}
	return c.cmd.Get(ctx, key).Result()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c.cmd == nil {
		return false, ErrNotInitialized
	}
	return c.cmd.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.cmd == nil {
		return ErrNotInitialized
	}
	if len(keys) == 0 {
		return nil
	}
	return c.cmd.Del(ctx, keys...).Err()
}

// FixedWindowAllow counts a hit for scope in the current window. The window
// start is part of the key, so a counter whose expiry was lost still stops
// counting once the window rolls over.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if c.cmd == nil {
		return false, 0, ErrNotInitialized
	}
	if window <= 0 {
		window = time.Minute
	}
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	start := now().Truncate(window).Unix()
	key := c.RateLimitKey(scope, strconv.FormatInt(start, 10))

	count, err := c.cmd.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := c.cmd.Expire(ctx, key, window).Err(); err != nil {
			return true, count, err
		}
	}
	return count <= limit, count, nil
}
