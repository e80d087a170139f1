// Package cache is the TTL-bound artifact cache for generated comics.
//
// A fresh artifact is served as-is; a miss or expiry funnels through a
// single-flight gate so that at most one generation per key runs in
// this process at a time. Artifacts are never mutated in place: a
// regeneration fully overwrites the stored record, which also resolves
// cross-process duplicate generations (last writer wins, artifacts are
// regenerable from the same inputs inside the TTL window).
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/comicboard/internal/adapters/store"
	"github.com/okian/comicboard/internal/domain/flight"
	"github.com/okian/comicboard/internal/domain/generate"
	"github.com/okian/comicboard/internal/domain/model"
	"github.com/okian/comicboard/pkg/metrics"
)

const (
	// DefaultTTL is the artifact freshness window.
	DefaultTTL = 24 * time.Hour

	// Partition is the fixed store partition for cached artifacts.
	// Keys are stored raw, with no ordering encoding.
	Partition = "artifacts"
)

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithTTL sets the artifact freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithNow sets the clock, for tests that need to move time.
func WithNow(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Cache caches generated artifacts in the ordered store.
type Cache struct {
	store store.Store
	gate  flight.Gate
	ttl   time.Duration
	now   func() time.Time
}

// New creates a Cache over st with configuration options.
func New(st store.Store, opts ...Option) *Cache {
	c := &Cache{
		store: st,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// flightResult carries the winner's outcome to every gate caller.
type flightResult struct {
	artifact  model.Artifact
	generated bool
}

// GetOrGenerate returns the fresh artifact for key, generating one via
// gen if none exists. servedFromCache is false only for the caller on
// whose behalf gen actually ran; concurrent callers for the same key
// share that one generation and report a cache hit.
//
// A generation failure writes nothing, propagates to every waiter on
// the key, and leaves any previously stored artifact untouched (it is
// already expired or absent, so it stays a miss).
func (c *Cache) GetOrGenerate(ctx context.Context, key string, gen generate.Generator) (model.Artifact, bool, error) {
	if art, ok, err := c.lookup(ctx, key); err != nil {
		return model.Artifact{}, false, err
	} else if ok {
		metrics.RecordCacheHit()
		return art, true, nil
	}
	metrics.RecordCacheMiss()

	v, won, err := c.gate.Do(ctx, key, func() (any, error) {
		// Re-check under the gate: a concurrent winner (or another
		// process) may have persisted a fresh artifact since our miss.
		if art, ok, err := c.lookup(ctx, key); err != nil {
			return nil, err
		} else if ok {
			return flightResult{artifact: art}, nil
		}

		start := time.Now()
		payload, err := gen.Generate(ctx, key)
		if err != nil {
			metrics.RecordGenerationError()
			return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
		}
		metrics.RecordGenerationLatency(float64(time.Since(start).Milliseconds()))

		now := c.now()
		art := model.Artifact{
			Key:       key,
			Payload:   payload,
			CreatedAt: now,
			ExpiresAt: now.Add(c.ttl),
		}
		if err := c.persist(ctx, art); err != nil {
			return nil, err
		}
		metrics.RecordGeneration()
		return flightResult{artifact: art, generated: true}, nil
	})
	if err != nil {
		return model.Artifact{}, false, err
	}
	if !won {
		metrics.RecordFlightShared()
	}

	res, ok := v.(flightResult)
	if !ok {
		return model.Artifact{}, false, fmt.Errorf("unexpected flight result %T", v)
	}
	servedFromCache := !(won && res.generated)
	return res.artifact, servedFromCache, nil
}

// Lookup returns the stored artifact for key if it is still fresh.
// Expired and absent records both read as a miss.
func (c *Cache) Lookup(ctx context.Context, key string) (model.Artifact, bool, error) {
	return c.lookup(ctx, key)
}

func (c *Cache) lookup(ctx context.Context, key string) (model.Artifact, bool, error) {
	rec, err := c.store.Get(ctx, Partition, key)
	if errors.Is(err, store.ErrNotFound) {
		return model.Artifact{}, false, nil
	}
	if err != nil {
		return model.Artifact{}, false, err
	}
	var art model.Artifact
	if err := json.Unmarshal(rec.Value, &art); err != nil {
		return model.Artifact{}, false, fmt.Errorf("decode artifact %q: %w", key, err)
	}
	if !art.Fresh(c.now()) {
		return model.Artifact{}, false, nil
	}
	return art, true, nil
}

func (c *Cache) persist(ctx context.Context, art model.Artifact) error {
	data, err := json.Marshal(art)
	if err != nil {
		return fmt.Errorf("encode artifact %q: %w", art.Key, err)
	}
	if _, err := c.store.Put(ctx, Partition, art.Key, data); err != nil {
		return err
	}
	return nil
}

// Sweep physically deletes expired artifacts and returns how many it
// removed. Correctness never depends on it; expired records already
// read as misses.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	recs, err := c.store.Scan(ctx, Partition, "", 0)
	if err != nil {
		return 0, err
	}
	now := c.now()
	removed := 0
	for _, rec := range recs {
		var art model.Artifact
		if err := json.Unmarshal(rec.Value, &art); err != nil {
			continue // leave undecodable records for manual inspection
		}
		if art.Fresh(now) {
			continue
		}
		if err := c.store.Delete(ctx, Partition, rec.Key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
