package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrGeneration = errors.New("generation failed")
)
