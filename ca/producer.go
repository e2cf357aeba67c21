package ca

import "fmt"

// ProduceTile builds the Tile covering grid cell (tileX, tileY) for the
// given rule and initial state, using dev for all buffer and compute
// work.
//
// Light-cone padding: a rule propagates information at most one cell per
// generation, so every visible cell in the tile must have been seeded by
// a correctly-initialized generation-0 neighborhood. The padding is
// therefore sized to the full vertical extent simulated, (tileY+1)*T,
// rounded up to the compute workgroup width, giving tile independence:
// the tile's visible columns at every generation in the tile depend only
// on generation-0 values this call itself wrote.
func ProduceTile(dev Device, rule uint8, tileX, tileY int32, initial InitialState, tileSize uint32) (*Tile, error) {
	if tileY < 0 {
		return nil, fmt.Errorf("ca: tile_y must be non-negative, got %d", tileY)
	}
	T := int64(tileSize)
	generationEnd := int64(tileY+1) * T

	padding := roundUpToMultiple(generationEnd, int64(workgroupWidth))
	simulatedWidth := uint32(T + 2*padding)

	simRows := generationEnd + 1
	simBuf, err := dev.CreateBuffer(int(simRows) * int(simulatedWidth))
	if err != nil {
		return nil, fmt.Errorf("ca: allocate simulation buffer: %w", err)
	}
	defer simBuf.Release()

	baseOffset := padding - int64(tileX)*T
	row0 := make([]uint32, simulatedWidth)
	for col := range row0 {
		worldPos := int64(col) - baseOffset
		row0[col] = uint32(initial.At(worldPos))
	}
	if err := dev.WriteBuffer(simBuf, 0, row0); err != nil {
		return nil, fmt.Errorf("ca: write row 0: %w", err)
	}

	if generationEnd > 0 {
		if err := dev.Advance(simBuf, simulatedWidth, rule, uint32(generationEnd)); err != nil {
			return nil, fmt.Errorf("ca: advance %d generations: %w", generationEnd, err)
		}
	}

	tileBuf, err := dev.CreateBuffer(int(T) * int(simulatedWidth))
	if err != nil {
		return nil, fmt.Errorf("ca: allocate tile buffer: %w", err)
	}

	srcRowStart := int64(tileY) * T
	srcOffsetWords := int(srcRowStart) * int(simulatedWidth)
	lengthWords := int(T) * int(simulatedWidth)
	if err := dev.Copy(tileBuf, 0, simBuf, srcOffsetWords, lengthWords); err != nil {
		tileBuf.Release()
		return nil, fmt.Errorf("ca: slice tile rows [%d,%d): %w", tileY*int32(tileSize), (tileY+1)*int32(tileSize), err)
	}

	return &Tile{
		Buf:            tileBuf,
		SimulatedWidth: simulatedWidth,
		PaddingLeft:    uint32(padding),
		TileSize:       tileSize,
	}, nil
}

// roundUpToMultiple rounds n up to the nearest positive multiple of m.
func roundUpToMultiple(n, m int64) int64 {
	if m <= 0 {
		return n
	}
	if n <= 0 {
		return m
	}
	return ((n + m - 1) / m) * m
}
