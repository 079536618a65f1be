package service

import (
	"context"
	"time"
)

// Cache groups used by the engine. Flushing a group drops every key in it.
const (
	CacheGroupDefinitions = "definitions"
	CacheGroupListings    = "listings"
	CacheGroupValues      = "values"
	CacheGroupStats       = "stats"
)

// Cache is the shared key/value collaborator. Values are opaque bytes so the
// store can live outside the process; callers own their encoding.
type Cache interface {
	// Get returns the bytes stored under key in group.
	Get(ctx context.Context, group, key string) ([]byte, bool, error)

	// Set stores value under key in group. A zero ttl uses the store's default expiration.
	Set(ctx context.Context, group, key string, value []byte, ttl time.Duration) error

	// Delete removes keys from group. Missing keys are ignored.
	Delete(ctx context.Context, group string, keys ...string) error

	// FlushGroup removes every key of group.
	FlushGroup(ctx context.Context, group string) error
}
