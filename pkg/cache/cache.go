// Package cache provides a small JSON cache with pluggable stores. The
// storefront uses it to serve the product listing without hitting the
// database on every page load.
//
// By default an in-process memory store is used; Connect switches to Redis
// when one is reachable. All operations degrade to no-ops/misses rather
// than failing the request path.
package cache

import (
	"encoding/json"
	"time"
)

// Store is the cache backend contract.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Del(keys ...string) error
}

var store Store = NewMemoryStore()

// SetStore swaps the backend (tests and the Redis Connect use this).
func SetStore(s Store) {
	if s != nil {
		store = s
	}
}

// Get retrieves a cached value by key and unmarshals into dest.
// Returns true on a cache hit, false on miss or error.
func Get(key string, dest interface{}) bool {
	raw, ok := store.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// Set stores value under key for the given TTL.
func Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return store.Set(key, data, ttl)
}

// Forget removes a key.
func Forget(key string) error {
	return store.Del(key)
}
