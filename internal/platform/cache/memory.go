package cache

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/leadwire-api/internal/domain"
)

type memoryEntry struct {
	analysis  domain.Analysis
	expiresAt time.Time
}

// MemoryAnalysisCache is a process-local AnalysisCache. Expired entries are
// dropped lazily on lookup.
type MemoryAnalysisCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryAnalysisCache creates an empty in-memory cache.
func NewMemoryAnalysisCache(ttl time.Duration) *MemoryAnalysisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryAnalysisCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get implements AnalysisCache.
func (c *MemoryAnalysisCache) Get(ctx context.Context, contentHash string) (*domain.Analysis, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[contentHash]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, ok := c.entries[contentHash]; ok && current.expiresAt == entry.expiresAt {
			delete(c.entries, contentHash)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	analysis := entry.analysis
	return &analysis, true, nil
}

// Set implements AnalysisCache. The analysis is copied.
func (c *MemoryAnalysisCache) Set(ctx context.Context, contentHash string, analysis *domain.Analysis) error {
	if analysis == nil {
		return nil
	}
	stored := *analysis
	if analysis.ImpactScore != nil {
		score := *analysis.ImpactScore
		stored.ImpactScore = &score
	}

	c.mu.Lock()
	c.entries[contentHash] = memoryEntry{analysis: stored, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (c *MemoryAnalysisCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
