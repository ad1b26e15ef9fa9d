// Package cache talks to the usage-limiter's shared redis. keywarden only
// ever evicts and broadcasts; the limiter owns reads and refills.
package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const (
	// InvalidationChannel carries key IDs whose cached limiter state must be
	// revalidated. Every limiter node subscribes to it.
	InvalidationChannel = "usagelimit:invalidation"

	keyPrefix = "usagelimit:"
)

type UsageCache struct {
	client *redis.Client
}

func NewUsageCache(addr string, password string, db int) *UsageCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &UsageCache{client: rdb}
}

// Revalidate drops the shared cached entry for the key and tells all limiter
// nodes to refetch. Propagation to other regions is eventual; the limiter's
// own refresh interval bounds the staleness window.
func (c *UsageCache) Revalidate(ctx context.Context, keyID string) error {
	if err := c.client.Del(ctx, keyPrefix+keyID).Err(); err != nil {
		return err
	}
	return c.client.Publish(ctx, InvalidationChannel, keyID).Err()
}

func (c *UsageCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Subscribe returns a channel that receives invalidated key IDs.
func (c *UsageCache) Subscribe(ctx context.Context) <-chan *redis.Message {
	pubsub := c.client.Subscribe(ctx, InvalidationChannel)
	return pubsub.Channel()
}
