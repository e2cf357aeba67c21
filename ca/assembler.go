package ca

// ViewportBuffer is the transient, per-recomputation output of the
// Viewport Assembler: a single device buffer covering the current
// viewport's visible cell rectangle, laid out identically to a Tile but
// sized and padded for the Render Contract.
type ViewportBuffer struct {
	Buf            Buffer
	SimulatedWidth uint32
	VisibleWidth   uint32
	Height         uint32
	PaddingLeft    uint32
}

// Release frees the viewport buffer's device buffer.
func (vb *ViewportBuffer) Release() {
	if vb.Buf != nil {
		vb.Buf.Release()
		vb.Buf = nil
	}
}

// Assembler is the Viewport Assembler: given a Plan, it ensures every
// covering tile exists (materializing misses via the Tile Producer) and
// stitches the overlapping portions of each tile into one ViewportBuffer.
type Assembler struct {
	Device   Device
	Cache    *TileCache
	TileSize uint32
}

// NewAssembler constructs an Assembler over dev and cache, tiling the
// world at the given edge length.
func NewAssembler(dev Device, cache *TileCache, tileSize uint32) *Assembler {
	return &Assembler{Device: dev, Cache: cache, TileSize: tileSize}
}

// Assemble runs both assembler phases for plan, rule, and initial: it
// materializes every covering tile (cache hit, or Tile Producer on
// miss), then assembles a ViewportBuffer and the RenderUniform
// describing it. Tiles that fail to materialize are logged and their
// region is left black (the buffer's zero-initialized contents), never
// aborting the pass.
func (a *Assembler) Assemble(plan *Plan, rule uint8, initial InitialState) (*ViewportBuffer, RenderUniform, error) {
	tiles, newKeys := a.materialize(plan, rule, initial)
	// Newly produced tiles enter the cache only after every row copy has
	// been issued, so an insertion cannot evict (and release) a tile this
	// pass still reads from.
	defer func() {
		for _, key := range newKeys {
			a.Cache.Set(key, tiles[tileCoord{key.TileX, key.TileY}])
		}
	}()

	visibleWidth := uint32(plan.ViewportXEnd - plan.ViewportXStart)
	height := uint32(plan.ViewportYEnd - plan.ViewportYStart)
	padding := uint32(plan.ViewportYEnd)
	simulatedWidth := visibleWidth + 2*padding

	buf, err := a.Device.CreateBuffer(int(height) * int(simulatedWidth))
	if err != nil {
		return nil, RenderUniform{}, err
	}

	vb := &ViewportBuffer{
		Buf:            buf,
		SimulatedWidth: simulatedWidth,
		VisibleWidth:   visibleWidth,
		Height:         height,
		PaddingLeft:    padding,
	}

	for ty := plan.TileYStart; ty <= plan.TileYEnd; ty++ {
		for tx := plan.TileXStart; tx <= plan.TileXEnd; tx++ {
			tile := tiles[tileCoord{tx, ty}]
			if tile == nil {
				continue
			}
			a.copyTileIntoViewport(vb, tile, tx, ty, plan)
		}
	}

	uniform := RenderUniform{
		VisibleWidth:    vb.VisibleWidth,
		VisibleHeight:   vb.Height,
		SimulatedWidth:  vb.SimulatedWidth,
		PaddingLeft:     vb.PaddingLeft,
		BufferOffsetX:   float64(plan.ViewportXStart),
		BufferOffsetY:   float64(plan.ViewportYStart),
		ViewportOffsetX: float64(plan.ViewportXStart),
		ViewportOffsetY: float64(plan.ViewportYStart),
	}
	return vb, uniform, nil
}

type tileCoord struct{ x, y int32 }

// materialize is Assembler phase 1: iterate the plan's grid row-major,
// ensuring every tile exists via cache-or-produce. Tiles that fail to
// produce are omitted from the returned map; their region is left black.
// Tiles produced on a miss are not inserted here: their keys are returned
// so the caller can insert them once phase 2 is done.
func (a *Assembler) materialize(plan *Plan, rule uint8, initial InitialState) (map[tileCoord]*Tile, []TileKey) {
	digest := initial.Digest()
	out := make(map[tileCoord]*Tile, (plan.TileYEnd-plan.TileYStart+1)*(plan.TileXEnd-plan.TileXStart+1))
	var newKeys []TileKey

	for ty := plan.TileYStart; ty <= plan.TileYEnd; ty++ {
		for tx := plan.TileXStart; tx <= plan.TileXEnd; tx++ {
			key := TileKey{Rule: rule, InitialStateDigest: digest, TileX: tx, TileY: ty}
			tile, ok := a.Cache.Get(key)
			if !ok {
				produced, err := ProduceTile(a.Device, rule, tx, ty, initial, a.TileSize)
				if err != nil {
					Logger().Warn("tile production failed, region left black",
						"tile_x", tx, "tile_y", ty, "rule", rule, "error", err)
					continue
				}
				newKeys = append(newKeys, key)
				tile = produced
			}
			out[tileCoord{tx, ty}] = tile
		}
	}
	return out, newKeys
}

// copyTileIntoViewport stitches the world-space intersection of tile
// (tx,ty) with the viewport into vb, one generation row at a time. Any
// row whose computed offsets would fall outside either buffer is
// skipped with a warning rather than attempted.
func (a *Assembler) copyTileIntoViewport(vb *ViewportBuffer, tile *Tile, tx, ty int32, plan *Plan) {
	T := int64(a.TileSize)
	tileWorldXStart := int64(tx) * T
	tileWorldXEnd := tileWorldXStart + T
	tileGenStart := int64(ty) * T
	tileGenEnd := tileGenStart + T

	xStart := maxInt64(tileWorldXStart, plan.ViewportXStart)
	xEnd := minInt64(tileWorldXEnd, plan.ViewportXEnd)
	gStart := maxInt64(tileGenStart, plan.ViewportYStart)
	gEnd := minInt64(tileGenEnd, plan.ViewportYEnd)
	if xStart >= xEnd || gStart >= gEnd {
		return
	}
	sliceWidth := int(xEnd - xStart)

	tileWords := int(tile.TileSize) * int(tile.SimulatedWidth)
	viewportWords := int(vb.Height) * int(vb.SimulatedWidth)

	for g := gStart; g < gEnd; g++ {
		srcOffset := int((g-tileGenStart))*int(tile.SimulatedWidth) + int(xStart-tileWorldXStart) + int(tile.PaddingLeft)
		dstOffset := int((g-plan.ViewportYStart))*int(vb.SimulatedWidth) + int(xStart-plan.ViewportXStart) + int(vb.PaddingLeft)

		if srcOffset < 0 || srcOffset+sliceWidth > tileWords || dstOffset < 0 || dstOffset+sliceWidth > viewportWords {
			Logger().Warn("assembler row copy out of bounds, skipping row",
				"tile_x", tx, "tile_y", ty, "generation", g, "error", ErrAssemblerOverflow)
			continue
		}
		if err := a.Device.Copy(vb.Buf, dstOffset, tile.Buf, srcOffset, sliceWidth); err != nil {
			Logger().Warn("assembler row copy failed, skipping row",
				"tile_x", tx, "tile_y", ty, "generation", g, "error", err)
		}
	}
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
