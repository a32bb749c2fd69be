package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Coordinator is the cache-aside primitive shared by every service. The
// cache is not the system of record: every failure inside the Coordinator is
// logged and absorbed, surfacing to callers only as a miss or a skipped
// write. Callers must always be able to fall through to the backing store.
type Coordinator struct {
	store Store
	log   *zap.Logger
}

// NewCoordinator returns a Coordinator over the given store.
func NewCoordinator(store Store, log *zap.Logger) *Coordinator {
	return &Coordinator{store: store, log: log}
}

// Store exposes the underlying Store for components that need raw commands
// (device registry hashes, rate-limit counters).
func (c *Coordinator) Store() Store {
	return c.store
}

// GetJSON fetches key and unmarshals it into dest. Returns false on absence,
// on a store error, or on a payload that no longer deserializes; all three
// are misses to the caller.
func (c *Coordinator) GetJSON(ctx context.Context, key string, dest any) bool {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.log.Warn("cache entry undecodable, treating as miss",
			zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetJSON marshals v and stores it under key with the given TTL. Best-effort.
func (c *Coordinator) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, string(raw), ttl); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate deletes the given keys. Best-effort.
func (c *Coordinator) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if _, err := c.store.Delete(ctx, keys...); err != nil {
		c.log.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// InvalidatePattern enumerates keys matching pattern and deletes them.
// Namespaces are invalidated wholesale because no reverse index tracks which
// cached query results reference which entities. Best-effort.
func (c *Coordinator) InvalidatePattern(ctx context.Context, pattern string) {
	keys, err := c.store.Keys(ctx, pattern)
	if err != nil {
		c.log.Warn("cache pattern scan failed", zap.String("pattern", pattern), zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if _, err := c.store.Delete(ctx, keys...); err != nil {
		c.log.Warn("cache pattern invalidate failed",
			zap.String("pattern", pattern), zap.Int("keys", len(keys)), zap.Error(err))
	}
}
