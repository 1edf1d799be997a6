package guard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/castassist/internal/domain/guard"
	"github.com/okian/castassist/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeStore struct {
	events   map[string]model.Event
	readErr  error
	writeErr error
	writes   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: map[string]model.Event{}}
}

func (f *fakeStore) Event(ctx context.Context, token string) (model.Event, bool, error) {
	if f.readErr != nil {
		return model.Event{}, false, f.readErr
	}
	ev, ok := f.events[token]
	return ev, ok, nil
}

func (f *fakeStore) SaveEvents(ctx context.Context, events []model.Event) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	for _, ev := range events {
		f.events[ev.Token] = ev
	}
	f.writes += len(events)
	return nil
}

func event(token string, matchID, gameTime, timestamp int64) model.Event {
	return model.Event{
		Token:     token,
		MatchID:   matchID,
		GameTime:  gameTime,
		Timestamp: timestamp,
		ClockTime: 30,
	}
}

func TestCommitFirstWrite(t *testing.T) {
	Convey("Given a guard over an empty store", t, func() {
		store := newFakeStore()
		g := guard.New(store)
		ctx := context.Background()

		Convey("When no previous snapshot exists for the token", func() {
			d, err := g.Commit(ctx, event("xyz", 100, 50, 1000))

			Convey("Then any valid candidate is accepted unconditionally", func() {
				So(err, ShouldBeNil)
				So(d, ShouldEqual, guard.Accepted)
				So(store.writes, ShouldEqual, 1)
			})
		})
	})
}

func TestCommitStalenessTests(t *testing.T) {
	Convey("Given a guard with a stored snapshot", t, func() {
		store := newFakeStore()
		g := guard.New(store)
		ctx := context.Background()

		_, err := g.Commit(ctx, event("abc", 100, 50, 1000))
		So(err, ShouldBeNil)

		Convey("When a same-match candidate regresses in game time", func() {
			d, err := g.Commit(ctx, event("abc", 100, 40, 1001))

			Convey("Then Test A rejects it", func() {
				So(err, ShouldBeNil)
				So(d, ShouldEqual, guard.StaleGameTime)
				So(store.events["abc"].GameTime, ShouldEqual, 50)
			})
		})

		Convey("When a new-match candidate regresses in wall-clock time", func() {
			d, err := g.Commit(ctx, event("abc", 200, 5, 999))

			Convey("Then Test B rejects it even though the match changed", func() {
				// Known sharp edge: a legitimate new-match event is
				// suppressed when its producer's clock lags the previous
				// match's last timestamp.
				So(err, ShouldBeNil)
				So(d, ShouldEqual, guard.StaleTimestamp)
				So(store.events["abc"].MatchID, ShouldEqual, 100)
			})
		})

		Convey("When a fresher same-match candidate arrives", func() {
			d, err := g.Commit(ctx, event("abc", 100, 60, 1002))

			So(err, ShouldBeNil)
			So(d, ShouldEqual, guard.Accepted)
			So(store.events["abc"].GameTime, ShouldEqual, 60)
		})

		Convey("When a new-match candidate advances the wall clock", func() {
			d, err := g.Commit(ctx, event("abc", 200, 5, 1001))

			Convey("Then game time comparison does not apply across matches", func() {
				So(err, ShouldBeNil)
				So(d, ShouldEqual, guard.Accepted)
				So(store.events["abc"].MatchID, ShouldEqual, 200)
			})
		})
	})
}

func TestCommitIdempotence(t *testing.T) {
	Convey("Given an accepted event", t, func() {
		store := newFakeStore()
		g := guard.New(store)
		ctx := context.Background()

		first := event("abc", 100, 50, 1000)
		d, err := g.Commit(ctx, first)
		So(err, ShouldBeNil)
		So(d, ShouldEqual, guard.Accepted)

		Convey("When the exact same event is replayed", func() {
			d, err := g.Commit(ctx, first)

			Convey("Then equality does not count as a regression but the replay is still rejected", func() {
				So(err, ShouldBeNil)
				So(d, ShouldNotEqual, guard.Accepted)
				So(store.writes, ShouldEqual, 1)
			})
		})
	})
}

func TestCommitMonotonicity(t *testing.T) {
	Convey("Given a sequence of commits for one token in one match", t, func() {
		store := newFakeStore()
		g := guard.New(store)
		ctx := context.Background()

		gameTimes := []int64{10, 5, 30, 20, 40}
		var persisted []int64
		for i, gt := range gameTimes {
			d, err := g.Commit(ctx, event("abc", 100, gt, 1000+int64(i)))
			So(err, ShouldBeNil)
			if d == guard.Accepted {
				persisted = append(persisted, store.events["abc"].GameTime)
			}
		}

		Convey("Then the stored game time never decreases", func() {
			So(persisted, ShouldResemble, []int64{10, 30, 40})
		})
	})
}

func TestCommitStoreFailures(t *testing.T) {
	Convey("Given a guard whose store read fails", t, func() {
		store := newFakeStore()
		store.readErr = errors.New("store unavailable")
		g := guard.New(store)
		ctx := context.Background()

		Convey("When committing a candidate", func() {
			_, err := g.Commit(ctx, event("abc", 100, 50, 1000))

			Convey("Then the failure surfaces and no write happens", func() {
				// A failed read must not be treated as an absent snapshot;
				// that would allow an unconditional accept.
				So(err, ShouldNotBeNil)
				So(store.writes, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a guard whose store write fails", t, func() {
		store := newFakeStore()
		store.writeErr = errors.New("transient i/o")
		g := guard.New(store)
		ctx := context.Background()

		Convey("When committing a candidate", func() {
			_, err := g.Commit(ctx, event("abc", 100, 50, 1000))

			Convey("Then the failure is reported for this token only", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestCompare(t *testing.T) {
	Convey("Given the pairwise staleness comparison", t, func() {
		prev := event("t", 100, 50, 1000)

		Convey("A same-match game time regression reports Test A", func() {
			d, stale := guard.Compare(prev, event("t", 100, 40, 1001))
			So(stale, ShouldBeTrue)
			So(d, ShouldEqual, guard.StaleGameTime)
		})

		Convey("A wall-clock regression reports Test B", func() {
			d, stale := guard.Compare(prev, event("t", 200, 90, 999))
			So(stale, ShouldBeTrue)
			So(d, ShouldEqual, guard.StaleTimestamp)
		})

		Convey("Test A wins when both tests fire", func() {
			d, stale := guard.Compare(prev, event("t", 100, 40, 999))
			So(stale, ShouldBeTrue)
			So(d, ShouldEqual, guard.StaleGameTime)
		})

		Convey("An identical candidate is a replay, not a regression", func() {
			d, stale := guard.Compare(prev, prev)
			So(stale, ShouldBeTrue)
			So(d, ShouldEqual, guard.StaleReplay)
		})

		Convey("Equal timestamps across matches do not reject", func() {
			d, stale := guard.Compare(prev, event("t", 200, 5, 1000))
			So(stale, ShouldBeFalse)
			So(d, ShouldEqual, guard.Accepted)
		})

		Convey("Equal game time with an advanced timestamp is accepted", func() {
			d, stale := guard.Compare(prev, event("t", 100, 50, 1001))
			So(stale, ShouldBeFalse)
			So(d, ShouldEqual, guard.Accepted)
		})
	})
}
