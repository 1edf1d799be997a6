// Package model contains domain models passed between pipeline stages.
package model

// Event is one viewer's match state snapshot extracted from a raw GSI
// payload. Exactly one Event per token survives each processing window; the
// freshest accepted Event per token is what gets persisted.
type Event struct {
	// Token identifies one viewer's subscription to the event stream.
	Token string
	// MatchID is the integer id of the spectated match; valid events have
	// MatchID > 0.
	MatchID int64
	// Timestamp is the producer-supplied wall-clock time in epoch seconds.
	// Producers are not clock-synchronized with each other.
	Timestamp int64
	// GameTime is the in-simulation time counter, monotonic within a match.
	GameTime int64
	// ClockTime is the in-match clock used to pick the most current event
	// inside a window. Clamped to >= 0 by the parser.
	ClockTime int64
	// Payload is the decoded GSI document, carried through so downstream
	// readers see the full snapshot. Only enrichment mutates it.
	Payload *Payload
}

// Valid reports whether the event is eligible for downstream processing.
func (e *Event) Valid() bool {
	return e.Token != "" && e.MatchID > 0 && e.Payload.HasPlayers()
}

// LiveMatch is one entry of the live match directory.
type LiveMatch struct {
	MatchID         int64  `bson:"match_id" json:"match_id"`
	RadiantTeamName string `bson:"radiant_team_name" json:"radiant_team_name"`
	DireTeamName    string `bson:"dire_team_name" json:"dire_team_name"`
}

// LiveMatches is the singleton live match directory document. It is
// overwritten wholesale by the poller and read by enrichment. Entry order
// carries no meaning.
type LiveMatches struct {
	Matches []LiveMatch `bson:"matches" json:"matches"`
}

// LiveMatchesDocID is the fixed id of the singleton directory document.
const LiveMatchesDocID = "0"

// Find returns the first entry with the given match id. Ids are expected to
// be unique in practice but the directory producer does not enforce that.
func (lm *LiveMatches) Find(matchID int64) (LiveMatch, bool) {
	for _, m := range lm.Matches {
		if m.MatchID == matchID {
			return m, true
		}
	}
	return LiveMatch{}, false
}
