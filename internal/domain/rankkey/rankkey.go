// Package rankkey encodes strangeness scores into fixed-width string
// keys whose ascending lexicographic order is descending score order.
//
// The encoding is a protocol parameter: stored leaderboard keys must
// remain comparable across versions and implementations, so Scale and
// Ceiling are fixed constants and must not change without a data
// migration.
package rankkey

import (
	"fmt"
	"math"
	"strings"
)

const (
	// MinScore and MaxScore bound valid strangeness scores.
	MinScore = 0
	MaxScore = 100

	// Scale is the fixed-point factor applied before truncation.
	// Eight decimal places of score precision survive the encoding.
	Scale = 100_000_000 // 1e8

	// Ceiling inverts the scaled score so higher scores encode lower.
	// MaxScore * Scale == Ceiling, so encoded values sit in [0, Ceiling].
	Ceiling = 10_000_000_000 // 1e10

	// Width is the zero-padded digit width; Ceiling itself has 11 digits.
	Width = 11

	// Separator joins the encoded score and the verbatim key in a
	// composite ordering key. It sorts below '0'..'9', which only
	// matters between different encoded scores, never within a tie.
	Separator = "#"
)

// Encode maps a score in [MinScore, MaxScore] to a fixed-width string
// such that for any a > b, Encode(a) < Encode(b) under byte-wise
// comparison. Out-of-range scores (and NaN) are a caller error.
func Encode(score float64) (string, error) {
	if err := Validate(score); err != nil {
		return "", err
	}
	inverted := Ceiling - int64(math.Trunc(score*Scale))
	return fmt.Sprintf("%0*d", Width, inverted), nil
}

// OrderingKey builds the composite store key for a leaderboard record:
// the encoded score followed by the verbatim key. Equal scores order by
// ascending key, which is the authoritative tie-break.
func OrderingKey(score float64, key string) (string, error) {
	enc, err := Encode(score)
	if err != nil {
		return "", err
	}
	return enc + Separator + key, nil
}

// Validate rejects scores outside [MinScore, MaxScore]. Scores are
// never clamped; invalid input fails before any write is attempted.
func Validate(score float64) error {
	if math.IsNaN(score) || score < MinScore || score > MaxScore {
		return fmt.Errorf("%w: %v", ErrScoreOutOfRange, score)
	}
	return nil
}

// Key extracts the verbatim key back out of a composite ordering key.
// The encoded prefix is fixed width, so this is a simple cut.
func Key(orderingKey string) string {
	if len(orderingKey) <= Width+len(Separator) {
		return ""
	}
	rest := orderingKey[Width:]
	return strings.TrimPrefix(rest, Separator)
}
