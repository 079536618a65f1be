package impl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"attrschema/internal/domain/entity"
	"attrschema/internal/domain/repository"
	"attrschema/internal/domain/service"

	"github.com/google/uuid"
)

const (
	groupsCacheKey = "groups"
	statsCacheKey  = "stats"
)

func hashKey(s string) string {
	sum := sha256.Sum256([]byte(s))

	return hex.EncodeToString(sum[:])
}

func definitionCacheKey(id uuid.UUID) string {
	return "definition:" + id.String()
}

func definitionNameCacheKey(name string) string {
	return "definition-by-name:" + hashKey(name)
}

func definitionListCacheKey(filter repository.DefinitionFilter) string {
	raw, _ := json.Marshal(filter)

	return "definition-list:" + hashKey(string(raw))
}

func principalValuesCacheKey(principalID uuid.UUID) string {
	return "principal-values:" + principalID.String()
}

// schemaCache wraps the shared cache. Read and write failures are logged and
// treated as misses so a cache outage never fails a request.
type schemaCache struct {
	cache  service.Cache
	logger *slog.Logger
}

func cacheLoad[T any](ctx context.Context, c schemaCache, group, key string) (T, bool) {
	var zero T
	if c.cache == nil {
		return zero, false
	}

	data, found, err := c.cache.Get(ctx, group, key)
	if err != nil {
		c.logger.Warn("Cache read failed", "group", group, "key", key, "error", err)

		return zero, false
	}
	if !found {
		return zero, false
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		c.logger.Warn("Cache entry could not be decoded", "group", group, "key", key, "error", err)

		return zero, false
	}

	return out, true
}

func cacheStore[T any](ctx context.Context, c schemaCache, group, key string, value T, ttl time.Duration) {
	if c.cache == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Cache entry could not be encoded", "group", group, "key", key, "error", err)

		return
	}
	if err := c.cache.Set(ctx, group, key, data, ttl); err != nil {
		c.logger.Warn("Cache write failed", "group", group, "key", key, "error", err)
	}
}

// invalidateDefinitions drops the cached entries of the given definitions,
// every listing and the stats. When a key cannot be deleted the whole group is flushed.
func (c schemaCache) invalidateDefinitions(ctx context.Context, defs ...*entity.AttributeDefinition) {
	if c.cache == nil {
		return
	}

	keys := make([]string, 0, len(defs)*2)
	for _, def := range defs {
		if def == nil {
			continue
		}
		keys = append(keys, definitionCacheKey(def.ID), definitionNameCacheKey(def.Name))
	}
	if len(keys) > 0 {
		if err := c.cache.Delete(ctx, service.CacheGroupDefinitions, keys...); err != nil {
			c.logger.Warn("Cache delete failed, flushing group", "group", service.CacheGroupDefinitions, "error", err)
			c.flush(ctx, service.CacheGroupDefinitions)
		}
	}
	c.flush(ctx, service.CacheGroupListings)
	c.flush(ctx, service.CacheGroupStats)
}

func (c schemaCache) invalidateAll(ctx context.Context) {
	if c.cache == nil {
		return
	}
	c.flush(ctx, service.CacheGroupDefinitions)
	c.flush(ctx, service.CacheGroupListings)
	c.flush(ctx, service.CacheGroupStats)
}

func (c schemaCache) invalidatePrincipal(ctx context.Context, principalIDs ...uuid.UUID) {
	if c.cache == nil || len(principalIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(principalIDs))
	for _, id := range principalIDs {
		keys = append(keys, principalValuesCacheKey(id))
	}
	if err := c.cache.Delete(ctx, service.CacheGroupValues, keys...); err != nil {
		c.logger.Warn("Cache delete failed, flushing group", "group", service.CacheGroupValues, "error", err)
		c.flush(ctx, service.CacheGroupValues)
	}
}

func (c schemaCache) flush(ctx context.Context, group string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.FlushGroup(ctx, group); err != nil {
		c.logger.Error("Cache flush failed", "group", group, "error", err)
	}
}
