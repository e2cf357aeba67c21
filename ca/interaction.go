package ca

import (
	"sync/atomic"
	"time"
)

// DefaultZoomLadder is the discrete cell_size zoom ladder used when a
// Config does not otherwise constrain it. Any monotone ladder within
// [min_cell_size, max_cell_size] satisfies the render contract; this one
// favors fine steps at small sizes and coarser steps as cells grow.
var DefaultZoomLadder = []uint32{
	2, 3, 4, 5, 6, 7, 8, 9, 10, 12, 14, 16, 18, 20, 24, 28, 32, 40, 48, 56,
	64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 448, 512, 640, 768,
	896, 1000,
}

type dragState struct {
	active        bool
	startPxX      float64
	startPxY      float64
	startViewport Viewport
}

type pinchState struct {
	active        bool
	startDistance float64
	startViewport Viewport
	centerPxX     float64
	centerPxY     float64
}

// InteractionController translates input deltas into Viewport mutations
// and debounces recomputation, per the render contract's "instant pan
// feedback, debounced rebake" model.
type InteractionController struct {
	Viewport       Viewport
	BufferViewport Viewport

	WindowWidthPx  uint32
	WindowHeightPx uint32
	CursorPxX      float64
	CursorPxY      float64

	NeedsRecompute bool

	ladder      []uint32
	minCellSize uint32
	maxCellSize uint32
	debounce    time.Duration

	drag  dragState
	pinch pinchState

	lastChange time.Time

	// resetRequested is set by RequestReset from any goroutine and
	// consumed by PollDebounce on the event-loop thread, mirroring the
	// host-signaled reset flag pattern of the reference web frontend.
	resetRequested atomic.Bool

	// Clock is consulted for "now" on every debounce check and change
	// mark. Defaults to time.Now; tests may override it for determinism.
	Clock func() time.Time
}

// NewInteractionController builds a controller seeded from cfg, starting
// with the default viewport (centered on world position 0).
func NewInteractionController(cfg Config, windowWidthPx, windowHeightPx uint32) *InteractionController {
	ladder := filterLadder(DefaultZoomLadder, cfg.MinCellSize, cfg.MaxCellSize)
	ic := &InteractionController{
		WindowWidthPx:  windowWidthPx,
		WindowHeightPx: windowHeightPx,
		ladder:         ladder,
		minCellSize:    cfg.MinCellSize,
		maxCellSize:    cfg.MaxCellSize,
		debounce:       time.Duration(cfg.DebounceMS) * time.Millisecond,
		Clock:          time.Now,
	}
	ic.Reset()
	return ic
}

func filterLadder(ladder []uint32, min, max uint32) []uint32 {
	out := make([]uint32, 0, len(ladder))
	for _, v := range ladder {
		if v >= min && v <= max {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		out = []uint32{min}
	}
	return out
}

func (ic *InteractionController) now() time.Time {
	if ic.Clock != nil {
		return ic.Clock()
	}
	return time.Now()
}

// markViewportChanged sets needs_recompute and records the timestamp
// used by the debounce check.
func (ic *InteractionController) markViewportChanged() {
	ic.NeedsRecompute = true
	ic.lastChange = ic.now()
}

// visibleCellsX returns the current window width expressed in cells, the
// same quantity the Viewport Planner computes, used for pan scaling and
// reset centering.
func (ic *InteractionController) visibleCellsX() float64 {
	if ic.Viewport.CellSize == 0 {
		return 0
	}
	return float64(ic.WindowWidthPx) / float64(ic.Viewport.CellSize)
}

// BeginDrag starts a mouse or single-touch pan gesture at the given
// pixel position.
func (ic *InteractionController) BeginDrag(pxX, pxY float64) {
	ic.drag = dragState{active: true, startPxX: pxX, startPxY: pxY, startViewport: ic.Viewport}
}

// DragTo updates the viewport offset for an in-progress drag, given the
// current pixel position. No-op if no drag is active or a pinch is in
// progress (single-touch pan is suspended while two touches are down).
func (ic *InteractionController) DragTo(pxX, pxY float64) {
	if !ic.drag.active || ic.pinch.active {
		return
	}
	visibleCellsX := float64(ic.WindowWidthPx) / float64(ic.drag.startViewport.CellSize)
	visibleCellsY := float64(ic.WindowHeightPx) / float64(ic.drag.startViewport.CellSize)

	deltaCellsX := -(pxX - ic.drag.startPxX) / float64(ic.WindowWidthPx) * visibleCellsX
	deltaCellsY := -(pxY - ic.drag.startPxY) / float64(ic.WindowHeightPx) * visibleCellsY

	ic.Viewport.OffsetX = ic.drag.startViewport.OffsetX + deltaCellsX
	ic.Viewport.OffsetY = ic.drag.startViewport.OffsetY + deltaCellsY
	ic.Viewport.ClampOffsetY()
	ic.markViewportChanged()
}

// EndDrag ends the current drag gesture.
func (ic *InteractionController) EndDrag() {
	ic.drag.active = false
}

// worldUnderCursor returns the world cell under (px, py) for the current
// viewport and cell_size.
func (ic *InteractionController) worldUnderCursor(px, py float64) (wx, wy float64) {
	return ic.Viewport.OffsetX + px/float64(ic.Viewport.CellSize),
		ic.Viewport.OffsetY + py/float64(ic.Viewport.CellSize)
}

// ladderIndex returns the index of the closest ladder entry to size.
func (ic *InteractionController) ladderIndex(size uint32) int {
	best, bestDiff := 0, uint32(1<<31)
	for i, v := range ic.ladder {
		diff := absDiffU32(v, size)
		if diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

func absDiffU32(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

// Zoom advances cell_size by `steps` positions on the ladder (positive
// zooms in, negative zooms out), holding the world cell under the cursor
// fixed.
func (ic *InteractionController) Zoom(steps int, cursorPxX, cursorPxY float64) {
	if len(ic.ladder) == 0 {
		return
	}
	wx, wy := ic.worldUnderCursor(cursorPxX, cursorPxY)

	idx := ic.ladderIndex(ic.Viewport.CellSize) + steps
	if idx < 0 {
		idx = 0
	}
	if idx >= len(ic.ladder) {
		idx = len(ic.ladder) - 1
	}
	newSize := ic.ladder[idx]
	ic.zoomAbout(wx, wy, cursorPxX, cursorPxY, newSize)
}

// zoomAbout sets cell_size to newSize and solves for the offset so that
// world cell (wx, wy) remains under pixel (cursorPxX, cursorPxY).
func (ic *InteractionController) zoomAbout(wx, wy, cursorPxX, cursorPxY float64, newSize uint32) {
	ic.Viewport.CellSize = newSize
	ic.Viewport.OffsetX = wx - cursorPxX/float64(newSize)
	ic.Viewport.OffsetY = wy - cursorPxY/float64(newSize)
	ic.Viewport.ClampOffsetY()
	ic.markViewportChanged()
}

// BeginPinch starts a two-touch pinch gesture. distance is the initial
// separation between the two touch points in pixels; centerPxX/Y is
// their midpoint.
func (ic *InteractionController) BeginPinch(distance, centerPxX, centerPxY float64) {
	ic.drag.active = false
	ic.pinch = pinchState{
		active:        true,
		startDistance: distance,
		startViewport: ic.Viewport,
		centerPxX:     centerPxX,
		centerPxY:     centerPxY,
	}
}

// UpdatePinch adjusts zoom from the current touch separation, zooming
// about the pinch center captured at BeginPinch.
func (ic *InteractionController) UpdatePinch(distance float64) {
	if !ic.pinch.active || ic.pinch.startDistance <= 0 || len(ic.ladder) == 0 {
		return
	}
	ratio := distance / ic.pinch.startDistance

	saved := ic.Viewport
	ic.Viewport = ic.pinch.startViewport
	wx, wy := ic.worldUnderCursor(ic.pinch.centerPxX, ic.pinch.centerPxY)
	ic.Viewport = saved

	target := float64(ic.pinch.startViewport.CellSize) * ratio
	idx := ic.ladderIndex(uint32(clampFloat(target, float64(ic.ladder[0]), float64(ic.ladder[len(ic.ladder)-1]))))
	newSize := ic.ladder[idx]
	ic.zoomAbout(wx, wy, ic.pinch.centerPxX, ic.pinch.centerPxY, newSize)
}

// EndPinch ends the current pinch gesture.
func (ic *InteractionController) EndPinch() {
	ic.pinch.active = false
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Reset restores cell_size to the ladder's default, offset_y to 0, and
// centers world position 0 on screen.
func (ic *InteractionController) Reset() {
	ic.Viewport.CellSize = DefaultCellSizeIfPresent(ic.ladder)
	ic.Viewport.OffsetY = 0
	ic.Viewport.OffsetX = -ic.visibleCellsX() / 2
	ic.markViewportChanged()
}

// DefaultCellSizeIfPresent picks a reasonable default zoom level from a
// ladder: the entry closest to a cell size of 4, with ties going to the
// earlier entry. Factored out so Reset's choice is
// independently testable.
func DefaultCellSizeIfPresent(ladder []uint32) uint32 {
	const preferred = 4
	best := ladder[0]
	bestDiff := absDiffU32(best, preferred)
	for _, v := range ladder {
		if d := absDiffU32(v, preferred); d < bestDiff {
			best, bestDiff = v, d
		}
	}
	return best
}

// Resize updates the window dimensions. If the window's outer top-left
// corner moved by (dxPx, dyPx), the viewport is adjusted so the opposite
// edge (right/bottom) stays anchored. A zero dimension (minimized)
// leaves the viewport untouched and suppresses recomputation.
func (ic *InteractionController) Resize(newWidthPx, newHeightPx uint32, dxPx, dyPx float64) {
	if newWidthPx == 0 || newHeightPx == 0 {
		ic.WindowWidthPx = newWidthPx
		ic.WindowHeightPx = newHeightPx
		return
	}
	if ic.Viewport.CellSize > 0 {
		if dxPx != 0 {
			ic.Viewport.OffsetX += dxPx / float64(ic.Viewport.CellSize)
		}
		if dyPx != 0 {
			ic.Viewport.OffsetY += dyPx / float64(ic.Viewport.CellSize)
			ic.Viewport.ClampOffsetY()
		}
	}
	ic.WindowWidthPx = newWidthPx
	ic.WindowHeightPx = newHeightPx
	ic.markViewportChanged()
}

// RequestReset signals that the viewport should be reset on the next
// PollDebounce call. Safe to call from any goroutine — e.g. a host
// embedder's control surface reacting to an out-of-band reset command —
// without reaching into controller state directly.
func (ic *InteractionController) RequestReset() {
	ic.resetRequested.Store(true)
}

// PollDebounce checks whether enough quiet time has elapsed since the
// last viewport change to fire a recomputation. If it has,
// NeedsRecompute is cleared and PollDebounce returns true; the caller
// should then run the Planner and Assembler and update BufferViewport.
// If the window is currently minimized (either dimension zero),
// PollDebounce always returns false. A pending RequestReset is applied
// first, on this call, before the debounce check.
func (ic *InteractionController) PollDebounce() bool {
	if ic.WindowWidthPx == 0 || ic.WindowHeightPx == 0 {
		return false
	}
	if ic.resetRequested.CompareAndSwap(true, false) {
		ic.Reset()
	}
	if !ic.NeedsRecompute {
		return false
	}
	if ic.now().Sub(ic.lastChange) < ic.debounce {
		return false
	}
	ic.NeedsRecompute = false
	return true
}
