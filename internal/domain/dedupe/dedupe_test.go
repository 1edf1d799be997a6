package dedupe_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/okian/castassist/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHash(t *testing.T) {
	Convey("Given the payload hash function", t, func() {
		Convey("Identical payloads hash identically", func() {
			a := dedupe.Hash([]byte(`{"auth":{"token":"abc"}}`))
			b := dedupe.Hash([]byte(`{"auth":{"token":"abc"}}`))
			So(a, ShouldEqual, b)
		})

		Convey("Different payloads hash differently", func() {
			a := dedupe.Hash([]byte(`{"auth":{"token":"abc"}}`))
			b := dedupe.Hash([]byte(`{"auth":{"token":"abd"}}`))
			So(a, ShouldNotEqual, b)
		})
	})
}

func TestSeenAndRecord(t *testing.T) {
	Convey("Given a bounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

		Convey("When recording a new hash", func() {
			seen := d.SeenAndRecord(ctx, "h1")
			So(seen, ShouldBeFalse)
			So(d.Size(), ShouldEqual, 1)

			Convey("Then recording it again reports it as seen", func() {
				So(d.SeenAndRecord(ctx, "h1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When exceeding the bound", func() {
			for i := 0; i < 5; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("h%d", i))
			}

			Convey("Then the cache stays within its bound", func() {
				So(d.Size(), ShouldBeLessThanOrEqualTo, 3)
			})

			Convey("And the most recent entries are still present", func() {
				So(d.SeenAndRecord(ctx, "h4"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

		Convey("When recording many hashes, nothing is evicted", func() {
			for i := 0; i < 1000; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("h%d", i)), ShouldBeFalse)
			}
			So(d.Size(), ShouldEqual, 1000)
			So(d.SeenAndRecord(ctx, "h0"), ShouldBeTrue)
		})
	})
}

func TestUnrecord(t *testing.T) {
	Convey("Given a deduper with recorded hashes", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10))
		d.SeenAndRecord(ctx, "h1")
		d.SeenAndRecord(ctx, "h2")
		d.SeenAndRecord(ctx, "h3")

		Convey("When unrecording a middle entry", func() {
			d.Unrecord(ctx, "h2")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "h2"), ShouldBeFalse)
			})

			Convey("And the others are untouched", func() {
				So(d.SeenAndRecord(ctx, "h1"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "h3"), ShouldBeTrue)
			})
		})

		Convey("When unrecording the newest entry", func() {
			d.Unrecord(ctx, "h3")
			So(d.Size(), ShouldEqual, 2)
			So(d.SeenAndRecord(ctx, "h3"), ShouldBeFalse)
		})

		Convey("When unrecording an unknown entry", func() {
			d.Unrecord(ctx, "nope")
			So(d.Size(), ShouldEqual, 3)
		})
	})
}
