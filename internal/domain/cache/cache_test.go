package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/comicboard/internal/adapters/store"
	"github.com/okian/comicboard/internal/domain/cache"
	"github.com/okian/comicboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// genFunc adapts a function to the generate.Generator interface.
type genFunc func(ctx context.Context, key string) (model.Payload, error)

func (f genFunc) Generate(ctx context.Context, key string) (model.Payload, error) {
	return f(ctx, key)
}

// fakeClock is a settable clock safe for concurrent reads.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func payloadFor(key string, score float64) model.Payload {
	return model.Payload{
		ImageRef: "comics/" + key + ".png",
		Score:    score,
		Region:   "US-WA-Seattle",
	}
}

func TestCache_Freshness(t *testing.T) {
	Convey("Given a cache with a 24h TTL and a counting generator", t, func() {
		clock := &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
		c := cache.New(store.NewMemStore(), cache.WithTTL(24*time.Hour), cache.WithNow(clock.Now))
		var calls atomic.Int64
		gen := genFunc(func(ctx context.Context, key string) (model.Payload, error) {
			calls.Add(1)
			return payloadFor(key, 42.5), nil
		})
		ctx := context.Background()

		Convey("When requesting a cold key", func() {
			art, served, err := c.GetOrGenerate(ctx, "placeX", gen)
			So(err, ShouldBeNil)

			Convey("Then the artifact is generated, not served from cache", func() {
				So(served, ShouldBeFalse)
				So(calls.Load(), ShouldEqual, 1)
				So(art.CreatedAt.Equal(clock.Now()), ShouldBeTrue)
				So(art.ExpiresAt.Equal(clock.Now().Add(24*time.Hour)), ShouldBeTrue)
			})

			Convey("And a request one hour later is a cache hit", func() {
				clock.Advance(time.Hour)
				again, served, err := c.GetOrGenerate(ctx, "placeX", gen)
				So(err, ShouldBeNil)
				So(served, ShouldBeTrue)
				So(calls.Load(), ShouldEqual, 1)
				So(again.Payload.ImageRef, ShouldEqual, art.Payload.ImageRef)
			})

			Convey("And a request at exactly the TTL boundary regenerates", func() {
				clock.Advance(24 * time.Hour)
				_, served, err := c.GetOrGenerate(ctx, "placeX", gen)
				So(err, ShouldBeNil)
				So(served, ShouldBeFalse)
				So(calls.Load(), ShouldEqual, 2)
			})
		})
	})
}

func TestCache_SingleFlight(t *testing.T) {
	Convey("Given many concurrent requests for a cold key", t, func() {
		c := cache.New(store.NewMemStore())
		var calls atomic.Int64
		release := make(chan struct{})
		gen := genFunc(func(ctx context.Context, key string) (model.Payload, error) {
			calls.Add(1)
			<-release
			return payloadFor(key, 42.5), nil
		})

		const n = 16
		arts := make([]model.Artifact, n)
		served := make([]bool, n)
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func(i int) {
				defer wg.Done()
				art, s, err := c.GetOrGenerate(context.Background(), "placeX", gen)
				if err != nil {
					t.Errorf("caller %d: %v", i, err)
				}
				arts[i] = art
				served[i] = s
			}(i)
		}
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		Convey("Then the generator ran exactly once", func() {
			So(calls.Load(), ShouldEqual, 1)
		})

		Convey("And all callers share one artifact", func() {
			for _, art := range arts {
				So(art.Payload.ImageRef, ShouldEqual, arts[0].Payload.ImageRef)
			}
		})

		Convey("And exactly one caller reports a generation", func() {
			generated := 0
			for _, s := range served {
				if !s {
					generated++
				}
			}
			So(generated, ShouldEqual, 1)
		})
	})
}

func TestCache_GenerationFailure(t *testing.T) {
	Convey("Given a generator that fails", t, func() {
		st := store.NewMemStore()
		c := cache.New(st)
		boom := errors.New("image model unavailable")
		gen := genFunc(func(ctx context.Context, key string) (model.Payload, error) {
			return model.Payload{}, boom
		})
		ctx := context.Background()

		Convey("When requesting a cold key", func() {
			_, _, err := c.GetOrGenerate(ctx, "placeX", gen)

			Convey("Then the failure surfaces as a generation error", func() {
				So(err, ShouldWrap, cache.ErrGeneration)
				So(err, ShouldWrap, boom)
			})

			Convey("And nothing was written to the store", func() {
				_, err := st.Get(ctx, cache.Partition, "placeX")
				So(err, ShouldWrap, store.ErrNotFound)
			})

			Convey("And a later successful generation recovers the key", func() {
				ok := genFunc(func(ctx context.Context, key string) (model.Payload, error) {
					return payloadFor(key, 10), nil
				})
				_, served, err := c.GetOrGenerate(ctx, "placeX", ok)
				So(err, ShouldBeNil)
				So(served, ShouldBeFalse)
			})
		})
	})
}

func TestCache_Sweep(t *testing.T) {
	Convey("Given fresh and expired artifacts", t, func() {
		clock := &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
		st := store.NewMemStore()
		c := cache.New(st, cache.WithTTL(24*time.Hour), cache.WithNow(clock.Now))
		gen := genFunc(func(ctx context.Context, key string) (model.Payload, error) {
			return payloadFor(key, 5), nil
		})
		ctx := context.Background()

		_, _, err := c.GetOrGenerate(ctx, "stale-place", gen)
		So(err, ShouldBeNil)
		clock.Advance(25 * time.Hour)
		_, _, err = c.GetOrGenerate(ctx, "fresh-place", gen)
		So(err, ShouldBeNil)

		Convey("When sweeping", func() {
			removed, err := c.Sweep(ctx)
			So(err, ShouldBeNil)

			Convey("Then only the expired artifact is deleted", func() {
				So(removed, ShouldEqual, 1)
				_, err := st.Get(ctx, cache.Partition, "stale-place")
				So(err, ShouldWrap, store.ErrNotFound)
				_, err = st.Get(ctx, cache.Partition, "fresh-place")
				So(err, ShouldBeNil)
			})
		})
	})
}
