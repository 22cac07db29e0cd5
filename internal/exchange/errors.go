package exchange

import "errors"

// Sentinel errors for the two caller-facing failure classes. Persistence
// failures are deliberately not part of this taxonomy: a failed snapshot
// write never aborts an operation, it only degrades durability (see
// Service).
var (
	// ErrValidation covers rejected input: empty required fields, or a
	// roster too small to generate assignments from.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState covers operations attempted outside their legal
	// session step, e.g. editing the roster after generation.
	ErrInvalidState = errors.New("operation not allowed in current step")
)
