// Package reduce collapses a closed window's batch down to one candidate
// event per viewer token.
package reduce

import (
	"github.com/okian/castassist/internal/domain/model"
)

// MatchGroup is one match's slice of a window batch.
type MatchGroup struct {
	MatchID int64
	Events  []model.Event
}

// ByMatch groups a window batch by match id. Group order is unspecified.
func ByMatch(batch []model.Event) []MatchGroup {
	grouped := make(map[int64][]model.Event)
	for _, ev := range batch {
		grouped[ev.MatchID] = append(grouped[ev.MatchID], ev)
	}

	groups := make([]MatchGroup, 0, len(grouped))
	for id, events := range grouped {
		groups = append(groups, MatchGroup{MatchID: id, Events: events})
	}
	return groups
}

// Candidates selects, within one match group, the single freshest event for
// each token: the one with the maximum clock time among that token's events.
// Ties keep the first event seen; either tied event is an acceptable choice
// since equal clock times mean near-simultaneous state. Tokens whose events
// all have a negative clock time produce no candidate (cannot happen after
// the parser's floor, handled defensively).
func Candidates(group MatchGroup) []model.Event {
	type best struct {
		event model.Event
		clock int64
	}

	order := make([]string, 0)
	byToken := make(map[string]*best)

	for _, ev := range group.Events {
		if ev.ClockTime < 0 {
			continue
		}
		b, ok := byToken[ev.Token]
		if !ok {
			order = append(order, ev.Token)
			byToken[ev.Token] = &best{event: ev, clock: ev.ClockTime}
			continue
		}
		if ev.ClockTime > b.clock {
			b.event = ev
			b.clock = ev.ClockTime
		}
	}

	candidates := make([]model.Event, 0, len(byToken))
	for _, token := range order {
		candidates = append(candidates, byToken[token].event)
	}
	return candidates
}

// WindowCandidates reduces a whole window batch: group by match, then one
// candidate per token per match group.
func WindowCandidates(batch []model.Event) []model.Event {
	var out []model.Event
	for _, group := range ByMatch(batch) {
		out = append(out, Candidates(group)...)
	}
	return out
}
