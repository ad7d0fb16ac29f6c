package persistence

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"
)

// RedisCursor hands out monotonically increasing sequence numbers via
// INCR. Redis serializes the increment, which is what keeps concurrent
// round-robin picks from landing on the same member.
type RedisCursor struct {
	client *goredis.Client
}

// NewRedisCursor builds the cursor store.
func NewRedisCursor(client *goredis.Client) *RedisCursor {
	return &RedisCursor{client: client}
}

// Next returns the next sequence value for key.
func (c *RedisCursor) Next(ctx context.Context, key string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, errors.New("cursor store not configured")
	}
	return c.client.Incr(ctx, key).Result()
}
