package testevents

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/okian/castassist/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestGeneratePayloads(t *testing.T) {
	Convey("Given a generator configuration", t, func() {
		ctx := context.Background()

		Convey("When ratios are zero every payload is well formed", func() {
			config := &Config{NumEvents: 50, Viewers: 5, Matches: 2}
			stats := &Stats{}

			payloads, err := generatePayloads(ctx, config, stats)
			So(err, ShouldBeNil)
			So(payloads, ShouldHaveLength, 50)
			So(stats.EventsGenerated, ShouldEqual, 50)
			So(stats.DuplicatesAdded, ShouldEqual, 0)
			So(stats.MalformedAdded, ShouldEqual, 0)

			for _, raw := range payloads {
				var p gsiPayload
				So(json.Unmarshal(raw, &p), ShouldBeNil)
				So(p.Auth.Token, ShouldNotBeEmpty)
				So(p.Map.MatchID, ShouldNotBeEmpty)
				So(p.Player, ShouldContainKey, "team2")
				So(p.Player, ShouldContainKey, "team3")
			}
		})

		Convey("When the duplicate ratio is one every later payload repeats an earlier one", func() {
			config := &Config{NumEvents: 20, Viewers: 3, Matches: 2, DuplicateRatio: 1.0}
			stats := &Stats{}

			payloads, err := generatePayloads(ctx, config, stats)
			So(err, ShouldBeNil)
			So(payloads, ShouldHaveLength, 20)
			So(stats.DuplicatesAdded, ShouldEqual, 19)
		})

		Convey("When the malformed ratio is one no payload parses as a full snapshot", func() {
			config := &Config{NumEvents: 9, Viewers: 3, Matches: 2, MalformedRatio: 1.0}
			stats := &Stats{}

			payloads, err := generatePayloads(ctx, config, stats)
			So(err, ShouldBeNil)
			So(stats.MalformedAdded, ShouldEqual, 9)

			for _, raw := range payloads {
				var p gsiPayload
				if json.Unmarshal(raw, &p) == nil {
					So(len(p.Player), ShouldEqual, 0)
				}
			}
		})

		Convey("When the context is already cancelled generation fails", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			config := &Config{NumEvents: 10, Viewers: 2, Matches: 1}
			_, err := generatePayloads(cancelled, config, &Stats{})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRandomHelpers(t *testing.T) {
	Convey("Given the random helpers", t, func() {
		Convey("Then getRandomFloat stays within the unit interval", func() {
			for i := 0; i < 100; i++ {
				v := getRandomFloat()
				So(v, ShouldBeGreaterThanOrEqualTo, 0.0)
				So(v, ShouldBeLessThan, 1.0)
			}
		})

		Convey("Then randomInt stays within its bound", func() {
			for i := 0; i < 100; i++ {
				So(randomInt(7), ShouldBeBetweenOrEqual, 0, 6)
			}
		})
	})
}
