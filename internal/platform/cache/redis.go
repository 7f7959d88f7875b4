package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces analysis entries in a shared Redis.
const KeyPrefix = "leadwire:analysis:"

// RedisAnalysisCache stores analyses as JSON strings with an expiry.
type RedisAnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAnalysisCache wraps an existing client.
func NewRedisAnalysisCache(client *redis.Client, ttl time.Duration) *RedisAnalysisCache {
	return &RedisAnalysisCache{client: client, ttl: ttl}
}

func (c *RedisAnalysisCache) key(contentHash string) string {
	return KeyPrefix + contentHash
}

// Get implements AnalysisCache.
func (c *RedisAnalysisCache) Get(ctx context.Context, contentHash string) (*domain.Analysis, bool, error) {
	raw, err := c.client.Get(ctx, c.key(contentHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get analysis: %w", err)
	}

	var analysis domain.Analysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, false, fmt.Errorf("decode cached analysis: %w", err)
	}
	return &analysis, true, nil
}

// Set implements AnalysisCache.
func (c *RedisAnalysisCache) Set(ctx context.Context, contentHash string, analysis *domain.Analysis) error {
	raw, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	if err := c.client.Set(ctx, c.key(contentHash), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set analysis: %w", err)
	}
	return nil
}
