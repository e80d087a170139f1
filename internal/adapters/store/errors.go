package store

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrUnavailable     = errors.New("store unavailable")
	ErrCorruptRecord   = errors.New("corrupt record")
)
