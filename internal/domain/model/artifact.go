// Package model contains domain models passed between layers.
package model

import "time"

// Payload is the opaque result of one generation episode: the rendered
// comic strip plus the review-derived fields the leaderboard projects.
type Payload struct {
	ImageRef    string  `json:"image_ref"`   // reference/URL to the composited strip
	Narrative   string  `json:"narrative"`   // AI narrative text
	Score       float64 `json:"score"`       // strangeness score in [0,100]
	DisplayName string  `json:"display_name"`
	Location    string  `json:"location"`
	Region      string  `json:"region"` // leaderboard partition, e.g. "US-WA-Seattle"
}

// Artifact is a cached generated comic for a place key.
// ExpiresAt is always CreatedAt plus the cache TTL; an artifact is
// fresh iff now is before ExpiresAt.
type Artifact struct {
	Key       string    `json:"key"`
	Payload   Payload   `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Fresh reports whether the artifact is still servable at now.
func (a Artifact) Fresh(now time.Time) bool {
	return now.Before(a.ExpiresAt)
}

// Entry is the best-ever ranked record for a key within a region.
// Rank is derived at read time and only populated by ranked queries.
type Entry struct {
	Rank        int       `json:"rank,omitempty"`
	Region      string    `json:"region"`
	Key         string    `json:"key"`
	DisplayName string    `json:"display_name"`
	Location    string    `json:"location"`
	Score       float64   `json:"score"`
	ArtifactRef string    `json:"artifact_ref"`
	LastUpdated time.Time `json:"last_updated"`
}
