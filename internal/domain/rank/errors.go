package rank

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound          = errors.New("entry not found")
	ErrInvalidLimit      = errors.New("invalid leaderboard limit")
	ErrInvalidEntry      = errors.New("invalid entry")
	ErrConflictExhausted = errors.New("conflict retries exhausted")
)
