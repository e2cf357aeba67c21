package ca

// Viewport is the current on-screen rectangle in world coordinates plus
// a cell_size. offset_x is the world cell index at the left edge of the
// visible area; offset_y is the generation at the top edge.
type Viewport struct {
	OffsetX  float64
	OffsetY  float64
	CellSize uint32
}

// ClampOffsetY enforces the OffsetY >= 0 invariant (generation 0 is the
// oldest row that exists).
func (v *Viewport) ClampOffsetY() {
	if v.OffsetY < 0 {
		v.OffsetY = 0
	}
}
