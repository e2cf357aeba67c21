// Command caeview drives the tile-based CA engine from a minimal,
// windowless frame loop: it parses a Config from flags, performs GPU
// bring-up (falling back to the pure-Go reference device if bring-up
// fails or the binary was built with the nogpu tag), runs the
// debounce/plan/assemble cycle, and reports what it baked. It stands in
// for the window/event loop and fragment shader that spec.md places
// outside the core engine's scope — actual pixel presentation belongs
// to a host embedder; everything up through a ready compute device is
// this command's job.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pozyx/CAE/ca"
)

func main() {
	cfg, initial, framesFlag, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ca.SetLogger(logger)

	device, cleanup, err := openGPUDevice()
	if err != nil {
		logger.Warn("gpu bring-up failed, falling back to cpu device", "error", err)
		device = ca.NewCPUDevice()
		cleanup = func() {}
	}
	defer cleanup()

	cache := ca.NewTileCache(cfg.CacheTiles)
	assembler := ca.NewAssembler(device, cache, cfg.TileSize)
	ic := ca.NewInteractionController(cfg, cfg.Width, cfg.Height)

	for frame := 0; frame < framesFlag; frame++ {
		if ic.PollDebounce() {
			bakeFrame(assembler, ic, cfg, initial, logger)
		}
		time.Sleep(16 * time.Millisecond)
	}
}

func bakeFrame(assembler *ca.Assembler, ic *ca.InteractionController, cfg ca.Config, initial ca.InitialState, logger *slog.Logger) {
	plan, err := ca.PlanViewport(ic.Viewport, ic.WindowWidthPx, ic.WindowHeightPx, cfg.TileSize)
	if err != nil {
		logger.Warn("recomputation skipped", "error", err)
		return
	}

	vb, uniform, err := assembler.Assemble(plan, cfg.Rule, initial)
	if err != nil {
		logger.Error("assemble failed", "error", err)
		return
	}
	defer vb.Release()

	ic.BufferViewport = ic.Viewport
	stats := assembler.Cache.Stats()
	logger.Info("baked viewport",
		"visible_width", uniform.VisibleWidth,
		"visible_height", uniform.VisibleHeight,
		"cache_len", stats.Len,
		"cache_capacity", stats.Capacity,
		"hit_rate", stats.HitRate,
	)
}

// parseFlags maps one flag per Config field, matching the field names
// spec.md's Command-line / URL surface paragraph specifies, plus a
// -frames flag controlling how many simulated frames this headless
// driver runs before exiting.
func parseFlags() (ca.Config, ca.InitialState, int, error) {
	def := ca.DefaultConfig()

	rule := flag.Uint("rule", uint(def.Rule), "Wolfram CA rule number, 0-255")
	initialState := flag.String("initial_state", "", "explicit binary initial state ('0'/'1' only); empty means single cell at 0")
	width := flag.Uint("width", uint(def.Width), "window width in pixels")
	height := flag.Uint("height", uint(def.Height), "window height in pixels")
	debounceMS := flag.Uint("debounce_ms", uint(def.DebounceMS), "viewport quiescence before recomputation, in milliseconds")
	cacheTiles := flag.Int("cache_tiles", def.CacheTiles, "maximum tiles kept in the LRU cache (0 disables caching)")
	tileSize := flag.Uint("tile_size", uint(def.TileSize), "tile edge length in cells")
	minCellSize := flag.Uint("min_cell_size", uint(def.MinCellSize), "minimum on-screen cell size in pixels")
	maxCellSize := flag.Uint("max_cell_size", uint(def.MaxCellSize), "maximum on-screen cell size in pixels")
	fullscreen := flag.Bool("fullscreen", false, "start in fullscreen mode")
	frames := flag.Int("frames", 1, "number of simulated frames to run before exiting")
	flag.Parse()

	if *rule > 255 {
		return ca.Config{}, ca.InitialState{}, 0, fmt.Errorf("rule must be 0-255 (got %d)", *rule)
	}

	cfg := ca.Config{
		Rule:        uint8(*rule),
		Width:       uint32(*width),
		Height:      uint32(*height),
		DebounceMS:  uint32(*debounceMS),
		CacheTiles:  *cacheTiles,
		TileSize:    uint32(*tileSize),
		MinCellSize: uint32(*minCellSize),
		MaxCellSize: uint32(*maxCellSize),
		Fullscreen:  *fullscreen,
	}
	if *initialState != "" {
		cfg.InitialState = initialState
	}

	initial := ca.DefaultInitialState()
	if *initialState != "" {
		s, err := ca.NewInitialState(*initialState)
		if err != nil {
			return ca.Config{}, ca.InitialState{}, 0, err
		}
		initial = s
	}

	return cfg, initial, *frames, nil
}
