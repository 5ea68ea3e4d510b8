package service

import (
	"sync"
	"time"

	"github.com/guidesync/guidesync/internal/models"
)

// defaultListCacheTTL bounds how stale a cached channel list may get.
const defaultListCacheTTL = 60 * time.Second

// ListCache is a per-tenant TTL cache of resolved channel lists, sitting
// in front of the public guide endpoints. Writers that change a tenant's
// catalog or mappings must call Invalidate.
type ListCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]listCacheEntry
	now     func() time.Time
}

type listCacheEntry struct {
	channels []*models.Channel
	expires  time.Time
}

// NewListCache creates a cache. ttl values below 1 fall back to the
// default.
func NewListCache(ttl time.Duration) *ListCache {
	if ttl < 1 {
		ttl = defaultListCacheTTL
	}
	return &ListCache{
		ttl:     ttl,
		entries: make(map[string]listCacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached channel list for a tenant, or nil when absent
// or expired.
func (c *ListCache) Get(tenantID string) []*models.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[tenantID]
	if !ok || c.now().After(entry.expires) {
		return nil
	}
	return entry.channels
}

// Set stores a tenant's channel list for the cache TTL.
func (c *ListCache) Set(tenantID string, channels []*models.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[tenantID] = listCacheEntry{
		channels: channels,
		expires:  c.now().Add(c.ttl),
	}
}

// Invalidate drops a tenant's cached list.
func (c *ListCache) Invalidate(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, tenantID)
}
