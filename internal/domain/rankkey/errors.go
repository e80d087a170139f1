package rankkey

import "errors"

// Sentinel kinds for encoding errors.
var (
	ErrScoreOutOfRange = errors.New("score out of range")
)
