package ca

import (
	"sync/atomic"

	"github.com/pozyx/CAE/internal/cache"
)

// TileCache is the exact-LRU tile store: capacity is a hard bound, and
// every insert past capacity evicts exactly the single
// least-recently-used tile, releasing its device buffer. Hit/miss
// counters are tracked here (not in the underlying primitive) since they
// are meaningful only at the granularity of "did the caller ask for a
// tile that was already materialized".
type TileCache struct {
	c      *cache.Cache[TileKey, *Tile]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewTileCache creates a tile cache holding at most capacity tiles.
// Evicted tiles have their device buffers released automatically.
func NewTileCache(capacity int) *TileCache {
	tc := &TileCache{c: cache.New[TileKey, *Tile](capacity)}
	tc.c.OnEvict(func(_ TileKey, t *Tile) {
		if t != nil {
			t.Release()
		}
	})
	return tc
}

// Get looks up a tile by key. A hit moves the tile to most-recently-used
// and increments the hit counter; a miss increments the miss counter.
func (tc *TileCache) Get(key TileKey) (*Tile, bool) {
	t, ok := tc.c.Get(key)
	if ok {
		hits := tc.hits.Add(1)
		Logger().Debug("tile cache hit", "tile_x", key.TileX, "tile_y", key.TileY,
			"rule", key.Rule, "hits", hits, "misses", tc.misses.Load())
	} else {
		misses := tc.misses.Add(1)
		Logger().Debug("tile cache miss", "tile_x", key.TileX, "tile_y", key.TileY,
			"rule", key.Rule, "hits", tc.hits.Load(), "misses", misses)
	}
	return t, ok
}

// Set inserts or replaces the tile for key, evicting the
// least-recently-used entry if the cache is at capacity.
func (tc *TileCache) Set(key TileKey, tile *Tile) {
	Logger().Debug("tile cache insert", "tile_x", key.TileX, "tile_y", key.TileY,
		"rule", key.Rule, "len", tc.c.Len(), "capacity", tc.c.Capacity())
	tc.c.Set(key, tile)
}

// Len returns the number of tiles currently cached.
func (tc *TileCache) Len() int { return tc.c.Len() }

// Capacity returns the cache's tile capacity.
func (tc *TileCache) Capacity() int { return tc.c.Capacity() }

// Clear evicts every tile, releasing their device buffers, and zeroes
// the hit/miss counters.
func (tc *TileCache) Clear() {
	for _, key := range tc.c.Keys() {
		if t, ok := tc.c.Get(key); ok {
			t.Release()
		}
	}
	tc.c.Clear()
	tc.hits.Store(0)
	tc.misses.Store(0)
}

// CacheStats reports the size, capacity and running hit/miss accounting
// for a TileCache (evictions are not counted), independent of the underlying primitive's own Stats (which
// never tracks hits/misses itself).
type CacheStats struct {
	Len      int
	Capacity int
	Hits     uint64
	Misses   uint64
	HitRate  float64
}

// Stats returns the current cache statistics.
func (tc *TileCache) Stats() CacheStats {
	hits := tc.hits.Load()
	misses := tc.misses.Load()
	total := hits + misses
	var rate float64
	if total > 0 {
		rate = float64(hits) / float64(total)
	}
	return CacheStats{
		Len:      tc.Len(),
		Capacity: tc.Capacity(),
		Hits:     hits,
		Misses:   misses,
		HitRate:  rate,
	}
}
