package ca

// Tile is one cached, fully-materialized tile: a TileSize-by-TileSize
// region of the (world cell × generation) plane, already sliced down to
// its visible generation range by the Tile Producer.
//
// Tile owns exactly one device buffer shaped (TileSize, SimulatedWidth)
// row-major: row 0 is generation tile_y*TileSize, row TileSize-1 is
// generation (tile_y+1)*TileSize-1. The visible columns are
// [PaddingLeft, PaddingLeft+TileSize); everything outside that range is
// light-cone padding kept only so interior columns were correctly
// simulated and is not addressed by any reader.
type Tile struct {
	Buf            Buffer
	SimulatedWidth uint32
	PaddingLeft    uint32
	TileSize       uint32
}

// Release frees the tile's device buffer. Idempotent. TileCache calls it
// when it evicts the tile and, from Clear, just before dropping every
// entry.
func (t *Tile) Release() {
	if t.Buf != nil {
		t.Buf.Release()
		t.Buf = nil
	}
}

// RowOffset returns the word offset of row g (0 <= g < TileSize) within
// the tile's buffer.
func (t *Tile) RowOffset(g uint32) int {
	return int(g) * int(t.SimulatedWidth)
}

// ColumnOffset returns the word offset, within a row, of visible column
// x (0 <= x < TileSize).
func (t *Tile) ColumnOffset(x uint32) int {
	return int(t.PaddingLeft + x)
}
