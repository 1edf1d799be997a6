package model_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/castassist/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const spectatorPayload = `{
	"auth": {"token": "abc"},
	"provider": {"name": "dota2", "timestamp": 1000},
	"map": {"matchid": "100", "game_time": 50, "clock_time": 30},
	"player": {
		"team2": {
			"player0": {"name": "alpha", "kills": 3},
			"player1": {"name": "beta", "kills": 1}
		},
		"team3": {
			"player5": {"name": "gamma", "kills": 7}
		}
	},
	"hero": {"team2": {"player0": {"id": 14}}}
}`

func TestParsePayload(t *testing.T) {
	Convey("Given raw GSI documents", t, func() {
		Convey("When parsing a well-formed document", func() {
			p, err := model.ParsePayload([]byte(spectatorPayload))
			So(err, ShouldBeNil)
			So(p.Empty(), ShouldBeFalse)

			Convey("Then named sections are reachable", func() {
				auth, ok := p.Section(model.SectionAuth)
				So(ok, ShouldBeTrue)
				So(string(auth), ShouldContainSubstring, "abc")
			})

			Convey("And the player section is populated", func() {
				So(p.HasPlayers(), ShouldBeTrue)
			})
		})

		Convey("When parsing empty input", func() {
			p, err := model.ParsePayload(nil)
			So(err, ShouldBeNil)
			So(p.Empty(), ShouldBeTrue)
			So(p.HasPlayers(), ShouldBeFalse)
		})

		Convey("When parsing malformed JSON", func() {
			_, err := model.ParsePayload([]byte(`{"auth": `))
			So(err, ShouldNotBeNil)
		})

		Convey("When the player section is an empty object", func() {
			p, err := model.ParsePayload([]byte(`{"player": {}}`))
			So(err, ShouldBeNil)
			So(p.HasPlayers(), ShouldBeFalse)
		})
	})
}

func TestSetTeamNames(t *testing.T) {
	Convey("Given a parsed spectator payload", t, func() {
		p, err := model.ParsePayload([]byte(spectatorPayload))
		So(err, ShouldBeNil)

		Convey("When setting team names", func() {
			So(p.SetTeamNames("Radiant FC", "Dire United"), ShouldBeNil)

			encoded, err := p.Encode()
			So(err, ShouldBeNil)

			var doc map[string]any
			So(json.Unmarshal([]byte(encoded), &doc), ShouldBeNil)
			player, ok := doc["player"].(map[string]any)
			So(ok, ShouldBeTrue)

			Convey("Then every radiant player carries the radiant name", func() {
				radiant, ok := player["team2"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(radiant, ShouldNotBeEmpty)
				for _, fields := range radiant {
					So(fields.(map[string]any)["team_name"], ShouldEqual, "Radiant FC")
				}
			})

			Convey("And every dire player carries the dire name", func() {
				dire, ok := player["team3"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(dire, ShouldNotBeEmpty)
				for _, fields := range dire {
					So(fields.(map[string]any)["team_name"], ShouldEqual, "Dire United")
				}
			})

			Convey("And existing player fields survive the rewrite", func() {
				So(encoded, ShouldContainSubstring, `"name":"alpha"`)
				So(encoded, ShouldContainSubstring, `"kills":3`)
			})

			Convey("And unrelated sections are untouched byte-for-byte", func() {
				hero, ok := p.Section("hero")
				So(ok, ShouldBeTrue)
				So(string(hero), ShouldEqual, `{"team2": {"player0": {"id": 14}}}`)
			})
		})

		Convey("When the payload has no player section", func() {
			q, err := model.ParsePayload([]byte(`{"auth": {"token": "x"}}`))
			So(err, ShouldBeNil)
			So(q.SetTeamNames("a", "b"), ShouldBeNil)
		})
	})
}

func TestLiveMatchesFind(t *testing.T) {
	Convey("Given a live match directory", t, func() {
		lm := model.LiveMatches{Matches: []model.LiveMatch{
			{MatchID: 100, RadiantTeamName: "A", DireTeamName: "B"},
			{MatchID: 200, RadiantTeamName: "C", DireTeamName: "D"},
			{MatchID: 100, RadiantTeamName: "dup", DireTeamName: "dup"},
		}}

		Convey("When looking up an existing id, the first entry wins", func() {
			m, ok := lm.Find(100)
			So(ok, ShouldBeTrue)
			So(m.RadiantTeamName, ShouldEqual, "A")
		})

		Convey("When looking up a missing id", func() {
			_, ok := lm.Find(999)
			So(ok, ShouldBeFalse)
		})
	})
}
