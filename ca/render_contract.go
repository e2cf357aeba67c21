package ca

// RenderUniform is the uniform block the external fragment shader reads
// alongside the ViewportBuffer. BufferOffsetX/Y describe the viewport
// origin for which the bound buffer was baked; ViewportOffsetX/Y
// describe the current on-screen viewport, which may have panned since
// the last recomputation.
type RenderUniform struct {
	VisibleWidth   uint32
	VisibleHeight  uint32
	SimulatedWidth uint32
	PaddingLeft    uint32
	CellSize       uint32
	WindowWidth    uint32
	WindowHeight   uint32

	ViewportOffsetX float64
	ViewportOffsetY float64
	BufferOffsetX   float64
	BufferOffsetY   float64
}

// SampleCell reproduces the fragment shader's per-pixel cell lookup in
// Go, for use by tests and by any headless renderer that cannot run the
// real shader. It does not replace the shader; it exists so the render
// contract's documented behavior is independently verifiable.
//
// Returns the cell value (0 or 1) and whether the pixel fell within the
// baked buffer's visible range; outside that range the shader shades
// black regardless of the returned value.
func (u RenderUniform) SampleCell(buf []uint32, pixelX, pixelY int) (value uint8, visible bool) {
	if u.CellSize == 0 {
		return 0, false
	}
	worldX := u.BufferOffsetX + float64(pixelX)/float64(u.CellSize) + (u.ViewportOffsetX - u.BufferOffsetX)
	worldY := u.BufferOffsetY + float64(pixelY)/float64(u.CellSize) + (u.ViewportOffsetY - u.BufferOffsetY)

	col := int64(worldX) - int64(u.BufferOffsetX) + int64(u.PaddingLeft)
	row := int64(worldY) - int64(u.BufferOffsetY)

	if col < int64(u.PaddingLeft) || col >= int64(u.PaddingLeft+u.VisibleWidth) {
		return 0, false
	}
	if row < 0 || row >= int64(u.VisibleHeight) {
		return 0, false
	}

	idx := row*int64(u.SimulatedWidth) + col
	if idx < 0 || idx >= int64(len(buf)) {
		return 0, false
	}
	return uint8(buf[idx] & 1), true
}
