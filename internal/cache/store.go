// Package cache provides the shared key-value cache layer: the Store
// contract over the cache server, key builders for every cached view, and
// the Coordinator that implements cache-aside reads and invalidation.
package cache

import (
	"context"
	"time"
)

// Store is the minimal command surface the backend needs from the key-value
// cache. Implementations must report a missing key as ok=false, not as an
// error; errors are reserved for transport and server failures.
type Store interface {
	// Get returns the string value for key, or ok=false if the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes the given keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int64, error)
	// Keys returns all keys matching the glob pattern. O(keyspace); used only
	// for namespace invalidation.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// Exists returns how many of the given keys exist.
	Exists(ctx context.Context, keys ...string) (int64, error)
	// Expire sets the TTL on an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Incr atomically increments the integer value at key and returns the result.
	Incr(ctx context.Context, key string) (int64, error)

	// Hash operations back the per-user device registry.
	HSet(ctx context.Context, key, field, value string) error
	HGet(ctx context.Context, key, field string) (value string, ok bool, err error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
}
