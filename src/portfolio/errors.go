package portfolio

import "errors"

var (
	// ErrOversell is returned in strict mode when a SELL exceeds the held
	// quantity. The default (legacy) mode accepts the sell and deletes the
	// resulting non-positive position instead.
	ErrOversell = errors.New("sell quantity exceeds held quantity")

	// ErrConsistency indicates the invested/quantity/average-cost invariant
	// was violated after an apply or recompute. It signals a bug, not bad
	// input, and is fatal to the operation.
	ErrConsistency = errors.New("position consistency violation")
)
