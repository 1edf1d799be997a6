package consumer_test

import (
	"context"
	"testing"

	"github.com/okian/castassist/internal/adapters/mq/consumer"
	"github.com/okian/castassist/internal/adapters/mq/queue"
	"github.com/okian/castassist/internal/domain/dedupe"
	"github.com/okian/castassist/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIngestHandler(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("logger init: %v", err)
	}

	Convey("Given the ingest handler over a fresh queue and deduper", t, func() {
		ded := dedupe.NewInMemoryDeduper()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		handle := consumer.NewIngestHandler(ded, q)
		ctx := context.Background()

		payload := []byte(`{"auth":{"token":"abc"}}`)

		Convey("When a payload arrives for the first time", func() {
			So(handle(ctx, payload), ShouldBeNil)

			Convey("Then it is enqueued and its hash recorded", func() {
				So(q.Len(ctx), ShouldEqual, 1)
				So(ded.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same bytes arrive twice", func() {
			So(handle(ctx, payload), ShouldBeNil)
			So(handle(ctx, payload), ShouldBeNil)

			Convey("Then the redelivery is suppressed", func() {
				So(q.Len(ctx), ShouldEqual, 1)
			})
		})

		Convey("When distinct payloads arrive", func() {
			So(handle(ctx, payload), ShouldBeNil)
			So(handle(ctx, []byte(`{"auth":{"token":"xyz"}}`)), ShouldBeNil)

			Convey("Then both are enqueued", func() {
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a queue with no remaining capacity", t, func() {
		ded := dedupe.NewInMemoryDeduper()
		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		handle := consumer.NewIngestHandler(ded, q)
		ctx := context.Background()

		So(handle(ctx, []byte("first")), ShouldBeNil)
		So(q.Len(ctx), ShouldEqual, 1)

		Convey("When another payload arrives", func() {
			So(handle(ctx, []byte("second")), ShouldBeNil)

			Convey("Then it is dropped without error and left unrecorded", func() {
				// The hash is removed so a later redelivery of the same
				// bytes is not mistaken for a duplicate.
				So(q.Len(ctx), ShouldEqual, 1)
				So(ded.Size(), ShouldEqual, 1)
			})
		})
	})
}
