package ca

// TileKey identifies a cached tile by the rule, the initial-state digest,
// and the tile's grid coordinates. TileKey is a plain comparable value,
// safe to use directly as a map key and freely copied.
type TileKey struct {
	Rule               uint8
	InitialStateDigest uint64
	TileX              int32
	TileY              int32
}

// floorDiv performs Euclidean (round-toward-negative-infinity) integer
// division, so that negative world coordinates map to the correct
// (negative) tile coordinate rather than rounding toward zero.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
