// Package types contains common types used across the application
package types

import "time"

// Comic is the API view of a cached artifact.
type Comic struct {
	Key             string    `json:"key"`
	ImageRef        string    `json:"image_ref"`
	Narrative       string    `json:"narrative"`
	Score           float64   `json:"score"`
	DisplayName     string    `json:"display_name"`
	Location        string    `json:"location"`
	Region          string    `json:"region"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	ServedFromCache bool      `json:"served_from_cache"`
}

// Entry represents a leaderboard entry
type Entry struct {
	Rank        int     `json:"rank"`
	Region      string  `json:"region"`
	Key         string  `json:"key"`
	DisplayName string  `json:"display_name"`
	Location    string  `json:"location"`
	Score       float64 `json:"score"`
	ArtifactRef string  `json:"artifact_ref"`
}
