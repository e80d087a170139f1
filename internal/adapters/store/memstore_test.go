package store_test

import (
	"context"
	"testing"

	"github.com/okian/comicboard/internal/adapters/store"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemStore_GetPut(t *testing.T) {
	Convey("Given an empty store", t, func() {
		s := store.NewMemStore()
		ctx := context.Background()

		Convey("When getting a missing key", func() {
			_, err := s.Get(ctx, "artifacts", "placeX")

			Convey("Then it reports not found", func() {
				So(err, ShouldWrap, store.ErrNotFound)
			})
		})

		Convey("When putting and re-putting a key", func() {
			v1, err1 := s.Put(ctx, "artifacts", "placeX", []byte("one"))
			v2, err2 := s.Put(ctx, "artifacts", "placeX", []byte("two"))
			So(err1, ShouldBeNil)
			So(err2, ShouldBeNil)

			Convey("Then the version token advances", func() {
				So(v1, ShouldEqual, 1)
				So(v2, ShouldEqual, 2)
			})

			Convey("And the latest value wins", func() {
				rec, err := s.Get(ctx, "artifacts", "placeX")
				So(err, ShouldBeNil)
				So(string(rec.Value), ShouldEqual, "two")
				So(rec.Version, ShouldEqual, 2)
			})
		})

		Convey("When partitions share a key", func() {
			_, _ = s.Put(ctx, "US-WA-Seattle", "entry#p", []byte("wa"))
			_, _ = s.Put(ctx, "US-CA-SanFrancisco", "entry#p", []byte("ca"))

			Convey("Then each partition keeps its own record", func() {
				wa, err := s.Get(ctx, "US-WA-Seattle", "entry#p")
				So(err, ShouldBeNil)
				So(string(wa.Value), ShouldEqual, "wa")
			})
		})
	})
}

func TestMemStore_Scan(t *testing.T) {
	Convey("Given records with mixed prefixes", t, func() {
		s := store.NewMemStore()
		ctx := context.Background()
		_, _ = s.Put(ctx, "r", "rank#b", []byte("2"))
		_, _ = s.Put(ctx, "r", "rank#a", []byte("1"))
		_, _ = s.Put(ctx, "r", "rank#c", []byte("3"))
		_, _ = s.Put(ctx, "r", "entry#a", []byte("x"))

		Convey("When scanning the rank prefix", func() {
			recs, err := s.Scan(ctx, "r", "rank#", 0)
			So(err, ShouldBeNil)

			Convey("Then results come back in ascending key order", func() {
				So(len(recs), ShouldEqual, 3)
				So(recs[0].Key, ShouldEqual, "rank#a")
				So(recs[1].Key, ShouldEqual, "rank#b")
				So(recs[2].Key, ShouldEqual, "rank#c")
			})
		})

		Convey("When scanning with a limit", func() {
			recs, err := s.Scan(ctx, "r", "rank#", 2)
			So(err, ShouldBeNil)

			Convey("Then only the first records return", func() {
				So(len(recs), ShouldEqual, 2)
				So(recs[0].Key, ShouldEqual, "rank#a")
			})
		})
	})
}

func TestMemStore_Commit(t *testing.T) {
	Convey("Given an empty store", t, func() {
		s := store.NewMemStore()
		ctx := context.Background()

		Convey("When creating with expected version 0", func() {
			v, err := s.Commit(ctx, "r", "entry#p", 0, []store.Write{
				{Key: "entry#p", Value: []byte("e")},
				{Key: "rank#k1", Value: []byte("e")},
			})

			Convey("Then both records land with version 1", func() {
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 1)
				rec, err := s.Get(ctx, "r", "rank#k1")
				So(err, ShouldBeNil)
				So(rec.Version, ShouldEqual, 1)
			})

			Convey("And a second create conflicts", func() {
				_, err := s.Commit(ctx, "r", "entry#p", 0, []store.Write{{Key: "entry#p", Value: []byte("f")}})
				So(err, ShouldWrap, store.ErrVersionConflict)
			})

			Convey("And an update with the wrong version conflicts", func() {
				_, err := s.Commit(ctx, "r", "entry#p", 7, []store.Write{{Key: "entry#p", Value: []byte("f")}})
				So(err, ShouldWrap, store.ErrVersionConflict)
			})

			Convey("And a guarded update replaces the rank record", func() {
				v2, err := s.Commit(ctx, "r", "entry#p", 1, []store.Write{
					{Key: "rank#k1", Delete: true},
					{Key: "rank#k0", Value: []byte("e2")},
					{Key: "entry#p", Value: []byte("e2")},
				})
				So(err, ShouldBeNil)
				So(v2, ShouldEqual, 2)
				_, err = s.Get(ctx, "r", "rank#k1")
				So(err, ShouldWrap, store.ErrNotFound)
				rec, err := s.Get(ctx, "r", "rank#k0")
				So(err, ShouldBeNil)
				So(string(rec.Value), ShouldEqual, "e2")
			})
		})
	})
}

func TestMemStore_DeleteAndClose(t *testing.T) {
	Convey("Given a store with one record", t, func() {
		s := store.NewMemStore()
		ctx := context.Background()
		_, _ = s.Put(ctx, "artifacts", "placeX", []byte("v"))

		Convey("When deleting it", func() {
			So(s.Delete(ctx, "artifacts", "placeX"), ShouldBeNil)

			Convey("Then it is gone and a re-delete is a no-op", func() {
				_, err := s.Get(ctx, "artifacts", "placeX")
				So(err, ShouldWrap, store.ErrNotFound)
				So(s.Delete(ctx, "artifacts", "placeX"), ShouldBeNil)
			})
		})

		Convey("When the store is closed", func() {
			So(s.Close(), ShouldBeNil)

			Convey("Then operations report unavailability", func() {
				_, err := s.Get(ctx, "artifacts", "placeX")
				So(err, ShouldWrap, store.ErrUnavailable)
				_, err = s.Put(ctx, "artifacts", "placeX", []byte("v"))
				So(err, ShouldWrap, store.ErrUnavailable)
			})
		})
	})
}
