package ca

import "hash/fnv"

// defaultStateMarker and explicitStateMarker prefix the FNV-1a digest so
// that the absent/default state never collides with an explicit string,
// including the empty string (digest of marker 0 vs marker 1 + "").
const (
	defaultStateMarker  byte = 0
	explicitStateMarker byte = 1
)

// InitialState identifies generation-0 of the world: either the default
// single cell at world position 0, or an explicit binary string placed
// starting at world position 0 and extending right.
type InitialState struct {
	pattern   string
	isDefault bool
}

// DefaultInitialState returns the "single one-cell at world position 0"
// initial state.
func DefaultInitialState() InitialState {
	return InitialState{isDefault: true}
}

// NewInitialState validates and wraps an explicit binary string. Every
// character must be '0' or '1'.
func NewInitialState(pattern string) (InitialState, error) {
	for _, ch := range pattern {
		if ch != '0' && ch != '1' {
			return InitialState{}, &ConfigError{Errs: []string{"initial_state must contain only '0' and '1' characters"}}
		}
	}
	return InitialState{pattern: pattern}, nil
}

// IsDefault reports whether this is the implicit single-cell state.
func (s InitialState) IsDefault() bool { return s.isDefault }

// Pattern returns the explicit binary string, or "" for the default state.
func (s InitialState) Pattern() string { return s.pattern }

// Digest returns a stable 64-bit hash identifying this initial state for
// use in TileKey. The default state and every distinct explicit string
// (including "") hash to distinct values.
func (s InitialState) Digest() uint64 {
	h := fnv.New64a()
	if s.isDefault {
		_, _ = h.Write([]byte{defaultStateMarker})
	} else {
		_, _ = h.Write([]byte{explicitStateMarker})
		_, _ = h.Write([]byte(s.pattern))
	}
	return h.Sum64()
}

// At returns the generation-0 value of world cell x: bit(s.pattern[x]) if
// in range for an explicit state, 1 at x==0 for the default state, 0
// otherwise.
func (s InitialState) At(x int64) uint8 {
	if s.isDefault {
		if x == 0 {
			return 1
		}
		return 0
	}
	if x < 0 || x >= int64(len(s.pattern)) {
		return 0
	}
	if s.pattern[x] == '1' {
		return 1
	}
	return 0
}
