// Package cache implements the service.Cache collaborator on top of go-cache.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"attrschema/config"
	"attrschema/internal/domain/service"

	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultExpiration      = time.Hour
	DefaultCleanupInterval = 10 * time.Minute
)

// GroupedCache keeps one go-cache instance per group so a group can be
// flushed without touching the others.
type GroupedCache struct {
	mu              sync.RWMutex
	groups          map[string]*gocache.Cache
	expiration      time.Duration
	cleanupInterval time.Duration
	logger          *slog.Logger
}

// New creates the cache from configuration.
func New(cfg *config.Config, logger *slog.Logger) service.Cache {
	expiration, cleanup := DefaultExpiration, DefaultCleanupInterval
	if cfg != nil && cfg.Cache != nil {
		if cfg.Cache.DefaultTTL > 0 {
			expiration = cfg.Cache.DefaultTTL
		}
		if cfg.Cache.CleanupInterval > 0 {
			cleanup = cfg.Cache.CleanupInterval
		}
	}

	return NewGroupedCache(expiration, cleanup, logger)
}

// NewGroupedCache creates an empty cache. expiration applies to Set calls with a zero ttl.
func NewGroupedCache(expiration, cleanupInterval time.Duration, logger *slog.Logger) *GroupedCache {
	if logger == nil {
		logger = slog.Default()
	}

	return &GroupedCache{
		groups:          make(map[string]*gocache.Cache),
		expiration:      expiration,
		cleanupInterval: cleanupInterval,
		logger:          logger,
	}
}

func (c *GroupedCache) group(name string, create bool) *gocache.Cache {
	c.mu.RLock()
	g, ok := c.groups[name]
	c.mu.RUnlock()
	if ok || !create {
		return g
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok = c.groups[name]; ok {
		return g
	}
	g = gocache.New(c.expiration, c.cleanupInterval)
	c.groups[name] = g

	return g
}

// Get implements service.Cache.
func (c *GroupedCache) Get(_ context.Context, group, key string) ([]byte, bool, error) {
	g := c.group(group, false)
	if g == nil {
		return nil, false, nil
	}
	value, found := g.Get(key)
	if !found {
		return nil, false, nil
	}
	data, ok := value.([]byte)
	if !ok {
		c.logger.Error("wrong type assertion when getting value", "group", group, "key", key)

		return nil, false, nil
	}

	return data, true, nil
}

// Set implements service.Cache. A zero ttl uses the default expiration.
func (c *GroupedCache) Set(_ context.Context, group, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	c.group(group, true).Set(key, stored, ttl)

	return nil
}

// Delete implements service.Cache.
func (c *GroupedCache) Delete(_ context.Context, group string, keys ...string) error {
	g := c.group(group, false)
	if g == nil {
		return nil
	}
	for _, key := range keys {
		g.Delete(key)
	}

	return nil
}

// FlushGroup implements service.Cache.
func (c *GroupedCache) FlushGroup(_ context.Context, group string) error {
	if g := c.group(group, false); g != nil {
		g.Flush()
	}

	return nil
}

// ItemCount returns the number of live items in group.
func (c *GroupedCache) ItemCount(group string) int {
	g := c.group(group, false)
	if g == nil {
		return 0
	}

	return g.ItemCount()
}
