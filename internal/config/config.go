// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir is the Badger data directory. Empty selects the
	// in-memory store (state is lost on restart).
	DataDir string `koanf:"data_dir"`

	// ArtifactTTLHours is the artifact freshness window in hours.
	ArtifactTTLHours int `koanf:"artifact_ttl_hours"`

	// SweepIntervalMinutes sets how often expired artifacts are
	// physically deleted. Zero disables the sweeper.
	SweepIntervalMinutes int `koanf:"sweep_interval_minutes"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// GenLatencyMinMS and GenLatencyMaxMS simulate external generation
	// latency bounds when the built-in generator is used.
	GenLatencyMinMS int `koanf:"gen_latency_min_ms"`
	GenLatencyMaxMS int `koanf:"gen_latency_max_ms"`

	// Regions maps place keys to leaderboard regions for the built-in
	// generator; real deployments resolve regions during scraping.
	Regions map[string]string `koanf:"regions"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9090",
		DataDir:              "",
		ArtifactTTLHours:     24,
		SweepIntervalMinutes: 30,
		MaxLeaderboardLimit:  100,
		GenLatencyMinMS:      80,
		GenLatencyMaxMS:      150,
		Regions:              map[string]string{},
	}
}
