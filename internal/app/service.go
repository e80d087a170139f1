// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/comicboard/internal/adapters/store"
	"github.com/okian/comicboard/internal/domain/cache"
	"github.com/okian/comicboard/internal/domain/generate"
	"github.com/okian/comicboard/internal/domain/rank"
	"github.com/okian/comicboard/internal/domain/types"
	"github.com/okian/comicboard/pkg/logger"
	"github.com/okian/comicboard/pkg/metrics"
)

// Service wires the artifact cache and the leaderboard engine over one
// shared ordered store and exposes the caller-facing operations.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     store.Store
	cache     *cache.Cache
	engine    *rank.Engine
	generator generate.Generator

	// Configuration
	dataDir             string
	artifactTTL         time.Duration
	sweepInterval       time.Duration
	maxLeaderboardLimit int
	genLatencyMin       time.Duration
	genLatencyMax       time.Duration
	regions             map[string]string

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDataDir selects the persistent Badger store at dir. An empty dir
// keeps the in-memory store.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		s.dataDir = dir
	}
}

// WithArtifactTTL sets the artifact freshness window.
func WithArtifactTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.artifactTTL = ttl
		}
	}
}

// WithSweepInterval sets how often expired artifacts are deleted.
// Zero disables the sweeper.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval >= 0 {
			s.sweepInterval = interval
		}
	}
}

// WithMaxLeaderboardLimit caps leaderboard query sizes.
func WithMaxLeaderboardLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxLeaderboardLimit = limit
		}
	}
}

// WithGenerator injects the generation collaborator. Without it the
// service falls back to the built-in simulated generator.
func WithGenerator(g generate.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithGenerationLatencyRange sets the simulated generation latency
// bounds for the built-in generator.
func WithGenerationLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Service) {
		if minLatency > 0 && maxLatency > minLatency {
			s.genLatencyMin = minLatency
			s.genLatencyMax = maxLatency
		}
	}
}

// WithRegions sets the key-to-region mapping for the built-in generator.
func WithRegions(regions map[string]string) Option {
	return func(s *Service) {
		s.regions = regions
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		artifactTTL:         cache.DefaultTTL,
		sweepInterval:       30 * time.Minute,
		maxLeaderboardLimit: 100,
		genLatencyMin:       80 * time.Millisecond,
		genLatencyMax:       150 * time.Millisecond,
		stopCh:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting comicboard service...")

	if s.dataDir != "" {
		st, err := store.OpenBadger(s.dataDir)
		if err != nil {
			return err
		}
		s.store = st
		s.logger.Info(ctx, "using badger store", logger.String("dir", s.dataDir))
	} else {
		s.store = store.NewMemStore()
		s.logger.Info(ctx, "using in-memory store")
	}

	s.cache = cache.New(s.store, cache.WithTTL(s.artifactTTL))
	s.engine = rank.New(s.store)
	if s.generator == nil {
		s.generator = generate.NewInMemoryGenerator(
			generate.WithLatencyRange(s.genLatencyMin, s.genLatencyMax),
			generate.WithRegions(s.regions),
		)
	}

	if s.sweepInterval > 0 {
		go s.sweepLoop()
	}

	s.started = true
	s.logger.Info(ctx, "comicboard service started",
		logger.Duration("artifactTTL", s.artifactTTL),
		logger.Duration("sweepInterval", s.sweepInterval),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping comicboard service...")

	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "store close failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "comicboard service stopped")
}

// GetOrGenerate returns the comic for key, generating it if no fresh
// cached artifact exists, and records the resulting score on the
// leaderboard after a real generation.
func (s *Service) GetOrGenerate(ctx context.Context, key string) (types.Comic, error) {
	art, servedFromCache, err := s.cache.GetOrGenerate(ctx, key, s.generator)
	if err != nil {
		return types.Comic{}, err
	}

	if !servedFromCache {
		p := art.Payload
		display := rank.Display{Name: p.DisplayName, Location: p.Location}
		if _, err := s.engine.RecordScore(ctx, p.Region, key, p.Score, display, p.ImageRef); err != nil {
			// The artifact is persisted and servable; a lost leaderboard
			// race is recoverable on the next generation or via POST /scores.
			s.logger.Error(ctx, "record score failed",
				logger.String("region", p.Region),
				logger.String("key", key),
				logger.Float64("score", p.Score),
				logger.Error(err),
			)
		}
	}

	return types.Comic{
		Key:             art.Key,
		ImageRef:        art.Payload.ImageRef,
		Narrative:       art.Payload.Narrative,
		Score:           art.Payload.Score,
		DisplayName:     art.Payload.DisplayName,
		Location:        art.Payload.Location,
		Region:          art.Payload.Region,
		CreatedAt:       art.CreatedAt,
		ExpiresAt:       art.ExpiresAt,
		ServedFromCache: servedFromCache,
	}, nil
}

// RecordScore records a score directly, bypassing generation. Used for
// administrative backfill.
func (s *Service) RecordScore(ctx context.Context, region, key string, score float64, displayName, location, artifactRef string) (types.Entry, error) {
	entry, err := s.engine.RecordScore(ctx, region, key, score, rank.Display{Name: displayName, Location: location}, artifactRef)
	if err != nil {
		return types.Entry{}, err
	}
	return types.Entry{
		Region:      entry.Region,
		Key:         entry.Key,
		DisplayName: entry.DisplayName,
		Location:    entry.Location,
		Score:       entry.Score,
		ArtifactRef: entry.ArtifactRef,
	}, nil
}

// TopN returns the top N leaderboard entries for a region.
func (s *Service) TopN(ctx context.Context, region string, n int) ([]types.Entry, error) {
	entries, err := s.engine.TopN(ctx, region, n)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, len(entries))
	for i, entry := range entries {
		out[i] = types.Entry{
			Rank:        entry.Rank,
			Region:      entry.Region,
			Key:         entry.Key,
			DisplayName: entry.DisplayName,
			Location:    entry.Location,
			Score:       entry.Score,
			ArtifactRef: entry.ArtifactRef,
		}
	}
	return out, nil
}

// MaxLeaderboardLimit returns the configured leaderboard query cap.
func (s *Service) MaxLeaderboardLimit() int {
	return s.maxLeaderboardLimit
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	backend := "memory"
	if s.dataDir != "" {
		backend = "badger"
	}
	return map[string]interface{}{
		"started":               s.started,
		"store":                 backend,
		"artifact_ttl":          s.artifactTTL.String(),
		"sweep_interval":        s.sweepInterval.String(),
		"max_leaderboard_limit": s.maxLeaderboardLimit,
	}
}

// sweepLoop periodically deletes expired artifacts.
func (s *Service) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			ctx := context.Background()
			removed, err := s.cache.Sweep(ctx)
			if err != nil {
				s.logger.Warn(ctx, "artifact sweep failed", logger.Error(err))
				continue
			}
			if removed > 0 {
				metrics.RecordArtifactsSwept(removed)
				s.logger.Info(ctx, "swept expired artifacts", logger.Int("removed", removed))
			}
		}
	}
}
