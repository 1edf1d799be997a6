package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Top-level section names of a GSI document.
const (
	SectionAuth     = "auth"
	SectionProvider = "provider"
	SectionMap      = "map"
	SectionPlayer   = "player"
)

// Grouping keys of the player section in spectator mode, and the field
// injected by enrichment.
const (
	RadiantPlayersKey = "team2"
	DirePlayersKey    = "team3"
	teamNameField     = "team_name"
)

// Payload is a decoded GSI document modeled as a tree of named top-level
// sections. Sections stay in their raw serialized form until something needs
// to look inside; the team-name rewrite is a structural update on the player
// section and everything else round-trips untouched.
type Payload struct {
	sections map[string]json.RawMessage
}

// ParsePayload decodes data into a Payload. A nil error with an empty
// Payload is returned for empty input; malformed JSON is an error the caller
// is expected to downgrade to an empty document.
func ParsePayload(data []byte) (*Payload, error) {
	p := &Payload{sections: map[string]json.RawMessage{}}
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, &p.sections); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}

// Section returns the raw serialized form of a named top-level section.
func (p *Payload) Section(name string) (json.RawMessage, bool) {
	if p == nil {
		return nil, false
	}
	raw, ok := p.sections[name]
	return raw, ok
}

// Empty reports whether the payload has no sections at all.
func (p *Payload) Empty() bool {
	return p == nil || len(p.sections) == 0
}

// HasPlayers reports whether the player section exists and contains at least
// one entry.
func (p *Payload) HasPlayers() bool {
	raw, ok := p.Section(SectionPlayer)
	if !ok {
		return false
	}
	var players map[string]json.RawMessage
	if err := json.Unmarshal(raw, &players); err != nil {
		return false
	}
	return len(players) > 0
}

// SetTeamNames rewrites every player entry under the radiant grouping key to
// carry the radiant team name, and every entry under the dire key to carry
// the dire team name. Grouping keys that are absent are skipped; all other
// content of the player section is preserved.
func (p *Payload) SetTeamNames(radiant, dire string) error {
	raw, ok := p.Section(SectionPlayer)
	if !ok {
		return nil
	}

	var groups map[string]json.RawMessage
	if err := json.Unmarshal(raw, &groups); err != nil {
		return fmt.Errorf("decode player section: %w", err)
	}

	if err := setGroupTeamName(groups, RadiantPlayersKey, radiant); err != nil {
		return err
	}
	if err := setGroupTeamName(groups, DirePlayersKey, dire); err != nil {
		return err
	}

	merged, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("encode player section: %w", err)
	}
	p.sections[SectionPlayer] = merged
	return nil
}

func setGroupTeamName(groups map[string]json.RawMessage, key, name string) error {
	raw, ok := groups[key]
	if !ok {
		return nil
	}

	var players map[string]map[string]any
	if err := json.Unmarshal(raw, &players); err != nil {
		return fmt.Errorf("decode player group %q: %w", key, err)
	}
	for _, fields := range players {
		fields[teamNameField] = name
	}

	b, err := json.Marshal(players)
	if err != nil {
		return fmt.Errorf("encode player group %q: %w", key, err)
	}
	groups[key] = b
	return nil
}

// Encode serializes the payload back to its wire form. This is the only
// place the tree is flattened; it is called at the write boundary.
func (p *Payload) Encode() (string, error) {
	if p.Empty() {
		return "", nil
	}
	b, err := json.Marshal(p.sections)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(b), nil
}
