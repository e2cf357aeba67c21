package ca

import "errors"

// Sentinel errors naming the core engine's error kinds. Callers should use
// errors.Is against these where the error kind (not its detail) matters.
// Within this module, PlanViewport returns ErrSizeLimitExceeded and the
// Assembler logs ErrAssemblerOverflow; no function returns
// ErrDeviceUnavailable, ErrDeviceLost, ErrOutOfMemory or
// ErrMemoryBudgetExceeded.
var (
	// ErrDeviceUnavailable is returned when no compute device could be
	// created. Fatal at startup.
	ErrDeviceUnavailable = errors.New("ca: no compute device available")

	// ErrDeviceLost is returned when the render surface or device was
	// lost mid-session. Callers should reconfigure and retry next frame.
	ErrDeviceLost = errors.New("ca: device lost")

	// ErrOutOfMemory is returned when the device fails to allocate.
	// Fatal: the caller should exit the event loop.
	ErrOutOfMemory = errors.New("ca: device out of memory")

	// ErrSizeLimitExceeded is returned by the Viewport Planner when a
	// requested viewport would exceed configured safety limits. The
	// caller should skip the recomputation and keep the previous buffer
	// bound.
	ErrSizeLimitExceeded = errors.New("ca: viewport exceeds safety limits")

	// ErrAssemblerOverflow is logged (never returned, never fatal) when a
	// row copy computed by the Assembler would fall outside a buffer's
	// bounds; the row is skipped. This guards against Planner/Producer arithmetic
	// drift; per the tiling invariants it should be unreachable.
	ErrAssemblerOverflow = errors.New("ca: assembler row copy out of bounds")

	// ErrMemoryBudgetExceeded names the case where materializing the tiles
	// covering a viewport would exceed a tile memory budget. Config has no
	// memory budget setting and the Assembler does not check one.
	ErrMemoryBudgetExceeded = errors.New("ca: tile memory budget exceeded")
)

// ConfigError reports one or more invalid configuration parameters.
// Startup should abort with a nonzero exit when this is returned.
type ConfigError struct {
	Errs []string
}

func (e *ConfigError) Error() string {
	if len(e.Errs) == 1 {
		return "ca: invalid config: " + e.Errs[0]
	}
	msg := "ca: invalid config:"
	for _, s := range e.Errs {
		msg += "\n  - " + s
	}
	return msg
}
