// Package rank maintains the region-partitioned, best-ever strangeness
// leaderboard.
//
// Each (region, key) pair owns two records in the region's partition:
// a primary record "entry#<key>" that carries the version token guarding
// all writes, and a ranked record "rank#<ordering key>" whose position
// in an ascending scan is the leaderboard order. Writers in other
// processes race through the store's version check, not through any
// in-process lock.
package rank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/comicboard/internal/adapters/store"
	"github.com/okian/comicboard/internal/domain/model"
	"github.com/okian/comicboard/internal/domain/rankkey"
	"github.com/okian/comicboard/pkg/metrics"
)

const (
	// maxUpdateAttempts bounds the compare-and-swap retry loop. A
	// bounded loop keeps failure behavior deterministic; callers may
	// retry the whole RecordScore on ErrConflictExhausted.
	maxUpdateAttempts = 5

	entryPrefix = "entry#"
	rankPrefix  = "rank#"
)

// Display carries the descriptive fields stored alongside a score.
type Display struct {
	Name     string
	Location string
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithNow sets the clock, for tests that need to move time.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine reads and conditionally updates leaderboard state.
type Engine struct {
	store store.Store
	now   func() time.Time
}

// New creates an Engine over st with configuration options.
func New(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store: st,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RecordScore records score for (region, key) and returns the entry now
// current for that key, whether or not this call updated it. Scores are
// monotonically non-decreasing: a score at or below the stored best is
// a no-op. Concurrent writers are resolved by the store's version
// check; the bounded retry loop absorbs races and surfaces
// ErrConflictExhausted once the budget is spent.
func (e *Engine) RecordScore(ctx context.Context, region, key string, score float64, display Display, artifactRef string) (model.Entry, error) {
	if err := rankkey.Validate(score); err != nil {
		return model.Entry{}, err
	}
	if region == "" || key == "" {
		return model.Entry{}, fmt.Errorf("%w: region %q, key %q", ErrInvalidEntry, region, key)
	}
	orderingKey, err := rankkey.OrderingKey(score, key)
	if err != nil {
		return model.Entry{}, err
	}
	entryKey := entryPrefix + key

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		rec, err := e.store.Get(ctx, region, entryKey)
		switch {
		case errors.Is(err, store.ErrNotFound):
			entry := model.Entry{
				Region:      region,
				Key:         key,
				DisplayName: display.Name,
				Location:    display.Location,
				Score:       score,
				ArtifactRef: artifactRef,
				LastUpdated: e.now(),
			}
			data, err := json.Marshal(entry)
			if err != nil {
				return model.Entry{}, fmt.Errorf("encode entry %q: %w", key, err)
			}
			writes := []store.Write{
				{Key: entryKey, Value: data},
				{Key: rankPrefix + orderingKey, Value: data},
			}
			if _, err := e.store.Commit(ctx, region, entryKey, 0, writes); err != nil {
				if errors.Is(err, store.ErrVersionConflict) {
					metrics.RecordRankConflict()
					continue // another writer created the entry; re-read
				}
				return model.Entry{}, err
			}
			metrics.RecordLeaderboardUpdate()
			return entry, nil

		case err != nil:
			return model.Entry{}, err
		}

		var current model.Entry
		if err := json.Unmarshal(rec.Value, &current); err != nil {
			return model.Entry{}, fmt.Errorf("decode entry %q: %w", key, err)
		}
		if score <= current.Score {
			return current, nil
		}

		previousKey, err := rankkey.OrderingKey(current.Score, key)
		if err != nil {
			return model.Entry{}, err
		}
		updated := current
		updated.Score = score
		updated.DisplayName = display.Name
		updated.Location = display.Location
		updated.ArtifactRef = artifactRef
		updated.LastUpdated = e.now()
		data, err := json.Marshal(updated)
		if err != nil {
			return model.Entry{}, fmt.Errorf("encode entry %q: %w", key, err)
		}
		writes := []store.Write{
			{Key: rankPrefix + previousKey, Delete: true},
			{Key: rankPrefix + orderingKey, Value: data},
			{Key: entryKey, Value: data},
		}
		if _, err := e.store.Commit(ctx, region, entryKey, rec.Version, writes); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				metrics.RecordRankConflict()
				continue // lost the race; re-read and re-evaluate
			}
			return model.Entry{}, err
		}
		metrics.RecordLeaderboardUpdate()
		return updated, nil
	}

	metrics.RecordRankConflictExhausted()
	return model.Entry{}, fmt.Errorf("%w: %s/%s after %d attempts", ErrConflictExhausted, region, key, maxUpdateAttempts)
}

// TopN returns up to n entries for region in descending score order,
// ties broken by ascending key. Rank is assigned from scan position,
// 1-based; it is never stored.
func (e *Engine) TopN(ctx context.Context, region string, n int) ([]model.Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	recs, err := e.store.Scan(ctx, region, rankPrefix, n)
	if err != nil {
		return nil, err
	}
	entries := make([]model.Entry, 0, len(recs))
	for i, rec := range recs {
		var entry model.Entry
		if err := json.Unmarshal(rec.Value, &entry); err != nil {
			return nil, fmt.Errorf("decode ranked record %q: %w", rec.Key, err)
		}
		entry.Rank = i + 1
		entries = append(entries, entry)
	}
	return entries, nil
}

// Best returns the current best entry for (region, key), or ErrNotFound.
func (e *Engine) Best(ctx context.Context, region, key string) (model.Entry, error) {
	rec, err := e.store.Get(ctx, region, entryPrefix+key)
	if errors.Is(err, store.ErrNotFound) {
		return model.Entry{}, ErrNotFound
	}
	if err != nil {
		return model.Entry{}, err
	}
	var entry model.Entry
	if err := json.Unmarshal(rec.Value, &entry); err != nil {
		return model.Entry{}, fmt.Errorf("decode entry %q: %w", key, err)
	}
	return entry, nil
}
