package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// InsightsCache fronts the insights column of completed documents. The
// pipeline invalidates an entry whenever the document reaches a terminal
// state, so stale analysis is never served after reprocessing.
type InsightsCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewInsightsCache(client *redisv9.Client, ttl time.Duration) *InsightsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &InsightsCache{client: client, ttl: ttl}
}

func (c *InsightsCache) Get(ctx context.Context, documentID string) (string, bool, error) {
	raw, err := c.client.Get(ctx, c.key(documentID)).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get insights failed: %w", err)
	}
	return raw, true, nil
}

func (c *InsightsCache) Set(ctx context.Context, documentID, insights string) error {
	if err := c.client.Set(ctx, c.key(documentID), insights, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set insights failed: %w", err)
	}
	return nil
}

func (c *InsightsCache) Invalidate(ctx context.Context, documentID string) error {
	if err := c.client.Del(ctx, c.key(documentID)).Err(); err != nil {
		return fmt.Errorf("redis delete insights failed: %w", err)
	}
	return nil
}

func (c *InsightsCache) key(documentID string) string {
	return fmt.Sprintf("doc:insights:%s", documentID)
}
