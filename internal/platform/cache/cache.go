package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/leadwire-api/internal/config"
	"github.com/phrazzld/leadwire-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is used when the configured TTL is not positive.
const DefaultTTL = 24 * time.Hour

// AnalysisCache looks up and stores analyses by content hash.
type AnalysisCache interface {
	// Get returns the cached analysis, or found=false on a miss.
	Get(ctx context.Context, contentHash string) (analysis *domain.Analysis, found bool, err error)
	// Set stores an analysis for the configured TTL.
	Set(ctx context.Context, contentHash string, analysis *domain.Analysis) error
}

// New returns a Redis-backed cache when cfg.RedisURL is set and the server
// answers a ping, and an in-memory cache otherwise. The returned close
// function releases the Redis connection pool, if any.
func New(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (AnalysisCache, func() error, error) {
	ttl := time.Duration(cfg.TTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	noop := func() error { return nil }

	if cfg.RedisURL == "" {
		logger.Info("no Redis URL configured, using in-memory analysis cache")
		return NewMemoryAnalysisCache(ttl), noop, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("invalid Redis URL, using in-memory analysis cache", "error", err)
		return NewMemoryAnalysisCache(ttl), noop, nil
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		logger.Warn("Redis not available, using in-memory analysis cache", "error", err)
		return NewMemoryAnalysisCache(ttl), noop, nil
	}

	logger.Info("connected to Redis analysis cache", "addr", opt.Addr)
	return NewRedisAnalysisCache(client, ttl), client.Close, nil
}
