// Package cache provides an optional Redis-backed cache for whole-
// collection fetches.
//
// ERS responses carry no cache-validator headers (the client sends
// Cache-Control: no-cache on every call), so there is nothing to
// revalidate against; the cache is a plain TTL layer over complete,
// fully-successful collection aggregations:
//
//   - Keyed by category plus filter expression
//   - Only complete aggregations are stored; partial results (failed
//     pages) are never cached
//   - Any mutation verb on a category invalidates all of that
//     category's keys, regardless of filter
//   - TTL-based expiry handled by Redis itself
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//	manager, err := cache.NewManager(redisClient, 60*time.Second)
//
//	key := cache.Key{Category: "networkdevice"}
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the appliance, then manager.Set(ctx, key, entry)
//	}
//
// The client works without Redis: a nil cache manager disables caching
// entirely and every fetch goes to the appliance.
//
// # Metrics
//
//   - ise_cache_hits_total - Cache hits
//   - ise_cache_misses_total - Cache misses
//   - ise_cache_invalidations_total - Keys dropped after mutations
//   - ise_cache_errors_total{operation} - Cache operation errors
package cache
