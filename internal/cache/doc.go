// Package cache provides a generic exact-LRU cache primitive.
//
// Cache[K, V] is a thread-safe cache with exact LRU eviction: capacity is
// a hard bound and each insertion past capacity evicts exactly the
// single least-recently-used entry. An optional OnEvict hook lets
// callers release resources (e.g. device buffers) owned by evicted
// values — the ca package's TileCache uses this to free a tile's
// device buffer the moment it is evicted.
//
//	cache := cache.New[string, int](100)
//	cache.Set("key", 42)
//	value, ok := cache.Get("key")
//
// # Thread Safety
//
// Cache is safe for concurrent use. It should not be copied after
// creation (it contains a mutex).
package cache
