package ca

import "testing"

// releaseTrackingBuffer records whether Release was called, so tests can
// observe that eviction frees the tile's device buffer.
type releaseTrackingBuffer struct {
	released *bool
}

func (b *releaseTrackingBuffer) Len() int { return 0 }
func (b *releaseTrackingBuffer) Release() { *b.released = true }

func newTrackedTile() (*Tile, *bool) {
	released := new(bool)
	return &Tile{Buf: &releaseTrackingBuffer{released: released}, TileSize: 256, SimulatedWidth: 512, PaddingLeft: 128}, released
}

func TestTileCache_GetMissOnEmpty(t *testing.T) {
	c := NewTileCache(4)
	key := TileKey{Rule: 30, TileX: 0, TileY: 0}
	if _, ok := c.Get(key); ok {
		t.Fatal("Get on empty cache reported a hit")
	}
	stats := c.Stats()
	if stats.Hits != 0 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want Hits=0 Misses=1", stats)
	}
}

func TestTileCache_SetThenGetIsHit(t *testing.T) {
	c := NewTileCache(4)
	key := TileKey{Rule: 30, TileX: 0, TileY: 0}
	tile, _ := newTrackedTile()
	c.Set(key, tile)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Get after Set reported a miss")
	}
	if got != tile {
		t.Error("Get returned a different tile than was Set")
	}
	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 0 {
		t.Errorf("stats = %+v, want Hits=1 Misses=0", stats)
	}
	if stats.HitRate != 1.0 {
		t.Errorf("HitRate = %v, want 1.0", stats.HitRate)
	}
}

func TestTileCache_HitMissAccounting(t *testing.T) {
	c := NewTileCache(4)
	key0 := TileKey{Rule: 30, TileX: 0, TileY: 0}
	key1 := TileKey{Rule: 30, TileX: 1, TileY: 0}
	tile0, _ := newTrackedTile()
	c.Set(key0, tile0)

	c.Get(key0) // hit
	c.Get(key1) // miss
	c.Get(key0) // hit
	c.Get(key1) // miss
	c.Get(key0) // hit

	stats := c.Stats()
	if stats.Hits != 3 {
		t.Errorf("Hits = %d, want 3", stats.Hits)
	}
	if stats.Misses != 2 {
		t.Errorf("Misses = %d, want 2", stats.Misses)
	}
	wantRate := 3.0 / 5.0
	if stats.HitRate != wantRate {
		t.Errorf("HitRate = %v, want %v", stats.HitRate, wantRate)
	}
}

func TestTileCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewTileCache(2)
	k0 := TileKey{TileX: 0}
	k1 := TileKey{TileX: 1}
	k2 := TileKey{TileX: 2}

	t0, released0 := newTrackedTile()
	t1, released1 := newTrackedTile()
	t2, released2 := newTrackedTile()

	c.Set(k0, t0)
	c.Set(k1, t1)
	// touch k0 so k1 becomes the least-recently-used entry
	c.Get(k0)
	c.Set(k2, t2)

	if _, ok := c.Get(k1); ok {
		t.Error("k1 should have been evicted as least-recently-used")
	}
	if !*released1 {
		t.Error("evicted tile's buffer was not released")
	}
	if *released0 || *released2 {
		t.Error("non-evicted tiles had their buffers released")
	}
	if _, ok := c.Get(k0); !ok {
		t.Error("k0 should still be cached")
	}
	if _, ok := c.Get(k2); !ok {
		t.Error("k2 should still be cached")
	}
	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestTileCache_ZeroCapacityNeverCaches(t *testing.T) {
	c := NewTileCache(0)
	key := TileKey{TileX: 0}
	tile, released := newTrackedTile()
	c.Set(key, tile)
	if _, ok := c.Get(key); ok {
		t.Error("zero-capacity cache reported a hit")
	}
	if !*released {
		t.Error("tile inserted into a zero-capacity cache was never released")
	}
}

func TestTileCache_ClearReleasesAllBuffers(t *testing.T) {
	c := NewTileCache(4)
	k0, k1 := TileKey{TileX: 0}, TileKey{TileX: 1}
	t0, released0 := newTrackedTile()
	t1, released1 := newTrackedTile()
	c.Set(k0, t0)
	c.Set(k1, t1)
	c.Get(k0)
	c.Get(TileKey{TileX: 99}) // miss, so counters are non-zero before Clear

	c.Clear()

	if !*released0 || !*released1 {
		t.Error("Clear did not release every tile's buffer")
	}
	if got := c.Len(); got != 0 {
		t.Errorf("Len() after Clear = %d, want 0", got)
	}

	stats := c.Stats()
	if stats.Hits != 0 || stats.Misses != 0 {
		t.Errorf("Stats() after Clear = %+v, want Hits=0 Misses=0", stats)
	}

	if _, ok := c.Get(k0); ok {
		t.Error("Get after Clear reported a hit")
	}
}
