package ca

import "math"

// Safety limits enforced by the Viewport Planner. These bound the work a
// single recomputation pass can request, guarding against
// driver-destabilizing buffer sizes on pathological window sizes or
// extreme zoom-out. They are independent of Config.MinCellSize /
// Config.MaxCellSize, which bound the zoom ladder exposed to the user;
// these bound the raw cell count regardless of how cell_size was
// reached.
const (
	MaxCellsX        = 8192
	MaxCellsY        = 8192
	MinCellSizeLimit = 1
	MaxTotalCells    = 8192 * 8192 * 3 / 8
)

// Plan is the Viewport Planner's output: the visible cell rectangle and
// the inclusive range of tile coordinates covering it.
type Plan struct {
	VisibleCellsX, VisibleCellsY uint32

	ViewportXStart, ViewportXEnd int64
	ViewportYStart, ViewportYEnd int64

	TileXStart, TileXEnd int32
	TileYStart, TileYEnd int32
}

// PlanViewport computes the Plan for vp against a window of the given
// pixel dimensions and a tile edge length of tileSize. It returns
// ErrSizeLimitExceeded (wrapped with detail) if the request would exceed
// the safety limits above; callers should skip the recomputation and
// keep the previous buffer bound.
func PlanViewport(vp Viewport, windowWidthPx, windowHeightPx, tileSize uint32) (*Plan, error) {
	if vp.CellSize < MinCellSizeLimit {
		return nil, &sizeLimitError{reason: "cell_size below the minimum permitted size"}
	}

	visibleCellsX := ceilDivU32(windowWidthPx, vp.CellSize)
	visibleCellsY := ceilDivU32(windowHeightPx, vp.CellSize)

	if visibleCellsX > MaxCellsX {
		return nil, &sizeLimitError{reason: "visible width in cells exceeds MaxCellsX"}
	}
	if visibleCellsY > MaxCellsY {
		return nil, &sizeLimitError{reason: "visible height in cells exceeds MaxCellsY"}
	}
	if uint64(visibleCellsX)*3*uint64(visibleCellsY) > MaxTotalCells {
		return nil, &sizeLimitError{reason: "total visible cell budget exceeds MaxTotalCells"}
	}

	viewportXStart := int64(math.Floor(vp.OffsetX))
	viewportXEnd := viewportXStart + int64(visibleCellsX)

	viewportYStart := int64(math.Floor(vp.OffsetY))
	if viewportYStart < 0 {
		viewportYStart = 0
	}
	viewportYEnd := viewportYStart + int64(visibleCellsY)

	t := int64(tileSize)
	return &Plan{
		VisibleCellsX:  visibleCellsX,
		VisibleCellsY:  visibleCellsY,
		ViewportXStart: viewportXStart,
		ViewportXEnd:   viewportXEnd,
		ViewportYStart: viewportYStart,
		ViewportYEnd:   viewportYEnd,
		TileXStart:     int32(floorDiv(viewportXStart, t)),
		TileXEnd:       int32(floorDiv(viewportXEnd-1, t)),
		TileYStart:     int32(floorDiv(viewportYStart, t)),
		TileYEnd:       int32(floorDiv(viewportYEnd-1, t)),
	}, nil
}

// sizeLimitError wraps ErrSizeLimitExceeded with a human-readable reason
// while still satisfying errors.Is(err, ErrSizeLimitExceeded).
type sizeLimitError struct {
	reason string
}

func (e *sizeLimitError) Error() string {
	return ErrSizeLimitExceeded.Error() + ": " + e.reason
}

func (e *sizeLimitError) Unwrap() error { return ErrSizeLimitExceeded }

func ceilDivU32(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
