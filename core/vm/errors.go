// Package vm implements the rewriting engine: mana-metered graph reduction
// of terms over an arena heap.
package vm

import "errors"

// List of engine errors. A term with no applicable rule is NOT an error:
// stuck terms are valid terminal values.
var (
	// ErrManaExceeded aborts a reduction whose mana ceiling was reached.
	// The caller discards the whole arena; partial reductions never leak.
	ErrManaExceeded = errors.New("mana ceiling exceeded")

	// ErrTermTooLarge is returned when a normal form expands past the
	// readback bound. Shared subgraphs read back as trees, so a small
	// heap can denote an enormous term.
	ErrTermTooLarge = errors.New("normal form exceeds readback bound")
)
