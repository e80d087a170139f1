package store_test

import (
	"context"
	"testing"

	"github.com/okian/comicboard/internal/adapters/store"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBadgerStore_Roundtrip(t *testing.T) {
	Convey("Given a badger store in a temp dir", t, func() {
		s, err := store.OpenBadger(t.TempDir())
		So(err, ShouldBeNil)
		defer func() { _ = s.Close() }()
		ctx := context.Background()

		Convey("When putting, getting and deleting", func() {
			v, err := s.Put(ctx, "artifacts", "placeX", []byte("comic"))
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 1)

			rec, err := s.Get(ctx, "artifacts", "placeX")
			So(err, ShouldBeNil)
			So(string(rec.Value), ShouldEqual, "comic")
			So(rec.Version, ShouldEqual, 1)

			So(s.Delete(ctx, "artifacts", "placeX"), ShouldBeNil)
			_, err = s.Get(ctx, "artifacts", "placeX")
			So(err, ShouldWrap, store.ErrNotFound)
		})

		Convey("When scanning a prefix", func() {
			_, _ = s.Put(ctx, "r", "rank#b", []byte("2"))
			_, _ = s.Put(ctx, "r", "rank#a", []byte("1"))
			_, _ = s.Put(ctx, "r", "entry#a", []byte("x"))
			_, _ = s.Put(ctx, "other", "rank#z", []byte("9"))

			recs, err := s.Scan(ctx, "r", "rank#", 0)
			So(err, ShouldBeNil)
			So(len(recs), ShouldEqual, 2)
			So(recs[0].Key, ShouldEqual, "rank#a")
			So(recs[1].Key, ShouldEqual, "rank#b")
		})

		Convey("When committing with a guard", func() {
			_, err := s.Commit(ctx, "r", "entry#p", 0, []store.Write{
				{Key: "entry#p", Value: []byte("e")},
				{Key: "rank#k1", Value: []byte("e")},
			})
			So(err, ShouldBeNil)

			_, err = s.Commit(ctx, "r", "entry#p", 0, []store.Write{{Key: "entry#p", Value: []byte("f")}})
			So(err, ShouldWrap, store.ErrVersionConflict)

			v, err := s.Commit(ctx, "r", "entry#p", 1, []store.Write{
				{Key: "rank#k1", Delete: true},
				{Key: "rank#k0", Value: []byte("e2")},
				{Key: "entry#p", Value: []byte("e2")},
			})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 2)

			_, err = s.Get(ctx, "r", "rank#k1")
			So(err, ShouldWrap, store.ErrNotFound)
		})
	})
}
