package pipeline_test

import (
	"context"
	"sync"
	"testing"

	"github.com/okian/castassist/internal/domain/enrich"
	"github.com/okian/castassist/internal/domain/guard"
	"github.com/okian/castassist/internal/domain/model"
	"github.com/okian/castassist/internal/domain/pipeline"
	"github.com/okian/castassist/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeDirectory struct {
	matches model.LiveMatches
}

func (f *fakeDirectory) LiveMatches(ctx context.Context) (model.LiveMatches, error) {
	return f.matches, nil
}

type fakeStore struct {
	mu     sync.Mutex
	events map[string]model.Event
	writes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: map[string]model.Event{}}
}

func (f *fakeStore) Event(ctx context.Context, token string) (model.Event, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.events[token]
	return ev, ok, nil
}

func (f *fakeStore) SaveEvents(ctx context.Context, events []model.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range events {
		f.events[ev.Token] = ev
	}
	f.writes += len(events)
	return nil
}

func event(token string, matchID, clockTime, gameTime, timestamp int64) model.Event {
	payload, _ := model.ParsePayload([]byte(`{"player":{}}`))
	return model.Event{
		Token:     token,
		MatchID:   matchID,
		ClockTime: clockTime,
		GameTime:  gameTime,
		Timestamp: timestamp,
		Payload:   payload,
	}
}

func newPipeline(store *fakeStore, opts ...pipeline.Option) *pipeline.Pipeline {
	log := logger.Get().Named("pipeline-test")
	e := enrich.New(&fakeDirectory{}, log)
	g := guard.New(store)
	return pipeline.New(e, g, log, opts...)
}

func TestFlush(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("logger init: %v", err)
	}

	Convey("Given a pipeline over an empty store", t, func() {
		store := newFakeStore()
		p := newPipeline(store)
		ctx := context.Background()

		Convey("When a window holds several events per token", func() {
			p.Flush(ctx, []model.Event{
				event("abc", 100, 30, 30, 1000),
				event("abc", 100, 90, 90, 1001),
				event("abc", 100, 60, 60, 1002),
				event("xyz", 100, 10, 10, 1000),
			})

			Convey("Then exactly one snapshot per token is written", func() {
				So(store.writes, ShouldEqual, 2)
				So(store.events["abc"].ClockTime, ShouldEqual, 90)
				So(store.events["xyz"].ClockTime, ShouldEqual, 10)
			})
		})

		Convey("When the window is empty", func() {
			p.Flush(ctx, nil)

			Convey("Then nothing is written", func() {
				So(store.writes, ShouldEqual, 0)
			})
		})

		Convey("When tokens span multiple matches", func() {
			p.Flush(ctx, []model.Event{
				event("abc", 100, 30, 30, 1000),
				event("xyz", 200, 50, 50, 1000),
			})

			Convey("Then each match group reduces independently", func() {
				So(store.writes, ShouldEqual, 2)
				So(store.events["abc"].MatchID, ShouldEqual, 100)
				So(store.events["xyz"].MatchID, ShouldEqual, 200)
			})
		})
	})

	Convey("Given a pipeline with bounded concurrency", t, func() {
		store := newFakeStore()
		p := newPipeline(store, pipeline.WithConcurrency(2))
		ctx := context.Background()

		Convey("When a window holds many tokens", func() {
			var batch []model.Event
			for _, token := range []string{"a", "b", "c", "d", "e", "f"} {
				batch = append(batch, event(token, 100, 10, 10, 1000))
			}
			p.Flush(ctx, batch)

			Convey("Then all candidates still commit", func() {
				So(store.writes, ShouldEqual, 6)
			})
		})
	})

	Convey("Given a pipeline whose store holds fresher snapshots", t, func() {
		store := newFakeStore()
		p := newPipeline(store)
		ctx := context.Background()

		p.Flush(ctx, []model.Event{event("abc", 100, 90, 90, 2000)})
		So(store.writes, ShouldEqual, 1)

		Convey("When a later window carries only stale events for the token", func() {
			p.Flush(ctx, []model.Event{event("abc", 100, 40, 40, 1999)})

			Convey("Then the stale candidate does not overwrite the snapshot", func() {
				So(store.writes, ShouldEqual, 1)
				So(store.events["abc"].GameTime, ShouldEqual, 90)
			})
		})
	})
}
