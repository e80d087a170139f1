// Package generate defines the contract for producing comic artifacts
// from a place key.
package generate

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/comicboard/internal/domain/model"
)

// Default generation configuration constants.
const (
	defaultMinLatency = 80 * time.Millisecond
	defaultMaxLatency = 150 * time.Millisecond
	defaultRandomSeed = 42
	defaultRegion     = "UNASSIGNED"
	maxScoreValue     = 100
)

// Generator produces the payload for a key. Implementations are
// expected to be slow (review scraping plus AI narrative, image
// generation and compositing), may fail, and must honor ctx; no retry
// or timeout policy lives behind this interface.
type Generator interface {
	Generate(ctx context.Context, key string) (model.Payload, error)
}

// Option applies a configuration option to the InMemoryGenerator.
type Option func(*InMemoryGenerator)

// WithLatencyRange sets the simulated latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(g *InMemoryGenerator) {
		if minLatency > 0 && maxLatency > minLatency {
			g.minLatency = minLatency
			g.maxLatency = maxLatency
		}
	}
}

// WithRegions sets the key-to-region mapping used in place of a real
// geocoding step. Keys not in the map fall into the default region.
func WithRegions(regions map[string]string) Option {
	return func(g *InMemoryGenerator) {
		g.regions = make(map[string]string, len(regions))
		for key, region := range regions {
			g.regions[key] = region
		}
	}
}

// WithSeed fixes the random seed for reproducible scores.
func WithSeed(seed int64) Option {
	return func(g *InMemoryGenerator) {
		g.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic seed for reproducible testing
	}
}

// InMemoryGenerator implements Generator with simulated review
// scraping and AI generation. It stands in for the external pipeline
// during development and load testing.
type InMemoryGenerator struct {
	regions    map[string]string
	minLatency time.Duration
	maxLatency time.Duration
	mu         sync.Mutex // guards rng; generations for different keys run concurrently
	rng        *rand.Rand
}

// NewInMemoryGenerator creates a simulated generator with options.
func NewInMemoryGenerator(opts ...Option) *InMemoryGenerator {
	g := &InMemoryGenerator{
		regions:    make(map[string]string),
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible testing
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces a simulated comic payload for key.
func (g *InMemoryGenerator) Generate(ctx context.Context, key string) (model.Payload, error) {
	g.mu.Lock()
	latency := g.minLatency + time.Duration(g.rng.Int63n(int64(g.maxLatency-g.minLatency)))
	score := g.rng.Float64() * maxScoreValue
	g.mu.Unlock()

	select {
	case <-ctx.Done():
		return model.Payload{}, fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-time.After(latency):
	}

	region, ok := g.regions[key]
	if !ok {
		region = defaultRegion
	}
	name := displayName(key)

	return model.Payload{
		ImageRef:    "comics/" + key + "/" + uuid.NewString() + ".png",
		Narrative:   fmt.Sprintf("The reviews of %s tell a stranger story than the menu does.", name),
		Score:       score,
		DisplayName: name,
		Location:    region,
		Region:      region,
	}, nil
}

// displayName turns a place key like "pier-66-chowder" into a
// presentable name.
func displayName(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.Title(w) //nolint:staticcheck // ASCII place keys only
	}
	if len(words) == 0 {
		return key
	}
	return strings.Join(words, " ")
}
