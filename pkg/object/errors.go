package object

import "errors"

var (
	// ErrNotFound is wrapped by every read that cannot locate an object.
	ErrNotFound = errors.New("object not found")

	// ErrCorrupt is wrapped by every read whose bytes do not decode to the
	// expected object shape.
	ErrCorrupt = errors.New("object corrupt")
)
