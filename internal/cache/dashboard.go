package cache

import (
	"context"
	"sync"
	"time"

	"github.com/antoniojosev/crm-satoru/internal/domain"
	"github.com/antoniojosev/crm-satoru/internal/satoru"
)

// DashboardCache holds the latest platform statistics with a short TTL, so
// repeated loads of the dashboard home do not hammer the core API.
type DashboardCache struct {
	mu        sync.RWMutex
	stats     *domain.DashboardStats
	fetchedAt time.Time
	ttl       time.Duration
	client    *satoru.Client
}

// NewDashboardCache creates a stats cache. A non-positive ttl disables
// caching and every call goes upstream.
func NewDashboardCache(client *satoru.Client, ttl time.Duration) *DashboardCache {
	return &DashboardCache{client: client, ttl: ttl}
}

// Stats returns the cached statistics when fresh, fetching otherwise.
func (c *DashboardCache) Stats(ctx context.Context, sessionID string) (*domain.DashboardStats, error) {
	c.mu.RLock()
	if c.stats != nil && c.ttl > 0 && time.Since(c.fetchedAt) < c.ttl {
		stats := *c.stats
		c.mu.RUnlock()
		return &stats, nil
	}
	c.mu.RUnlock()

	return c.Refresh(ctx, sessionID)
}

// Refresh fetches statistics unconditionally and updates the cache.
func (c *DashboardCache) Refresh(ctx context.Context, sessionID string) (*domain.DashboardStats, error) {
	stats, err := c.client.DashboardStats(ctx, sessionID)
	if err != nil {
		return nil, userFacing(err, "Error al cargar estadísticas")
	}

	c.mu.Lock()
	c.stats = stats
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	out := *stats
	return &out, nil
}

// Invalidate drops the cached statistics so the next read goes upstream.
func (c *DashboardCache) Invalidate() {
	c.mu.Lock()
	c.stats = nil
	c.mu.Unlock()
}
