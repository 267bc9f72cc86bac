package skipdict

import "errors"

var (
	// ErrAllocationFailure is returned when the node allocator refuses to
	// provide memory for the head sentinel or for a new node.
	ErrAllocationFailure = errors.New("skipdict: allocation failure")

	// ErrInvalidConfig is returned by New when an option carries an
	// out-of-range value.
	ErrInvalidConfig = errors.New("skipdict: invalid config")

	// ErrCorrupt is returned by Verify when a structural invariant does not hold.
	ErrCorrupt = errors.New("skipdict: corrupt structure")

	// ErrClosed is returned by mutating operations on a map after Close.
	ErrClosed = errors.New("skipdict: map is closed")
)
