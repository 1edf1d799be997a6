// Package parse turns raw transport payloads into normalized events.
//
// Parsing never fails: undecodable or malformed input produces an event with
// zero fields, which the validity filter then drops. Malformed input is
// expected noise, not an error condition.
package parse

import (
	"encoding/json"
	"strconv"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/okian/castassist/internal/domain/model"
)

// Parser decodes raw GSI payload bytes into model.Event values.
type Parser struct {
	detector *chardet.Detector
}

// New creates a Parser.
func New() *Parser {
	return &Parser{detector: chardet.NewTextDetector()}
}

// Parse extracts an event from raw payload bytes. The second return value
// reports whether the event is eligible for downstream processing; callers
// must drop events returned with false. Parse itself never returns an error.
func (p *Parser) Parse(raw []byte) (model.Event, bool) {
	text := p.decode(raw)

	payload, err := model.ParsePayload(text)
	if err != nil {
		// Malformed structure degrades to an empty document.
		payload, _ = model.ParsePayload(nil)
	}

	ev := model.Event{Payload: payload}

	if auth, ok := payload.Section(model.SectionAuth); ok {
		var a struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(auth, &a); err == nil {
			ev.Token = a.Token
		}
	}

	if provider, ok := payload.Section(model.SectionProvider); ok {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(provider, &fields); err == nil {
			ev.Timestamp = coerceInt64(fields["timestamp"])
		}
	}

	if mapState, ok := payload.Section(model.SectionMap); ok {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(mapState, &fields); err == nil {
			ev.MatchID = coerceInt64(fields["matchid"])
			ev.GameTime = coerceInt64(fields["game_time"])
			ev.ClockTime = coerceInt64(fields["clock_time"])
		}
	}

	if ev.ClockTime < 0 {
		ev.ClockTime = 0
	}

	return ev, ev.Valid()
}

// decode converts raw bytes to UTF-8 text. Valid UTF-8 passes through;
// anything else goes through best-effort charset detection. Undecodable
// input yields nil, which downstream treats as an empty document.
func (p *Parser) decode(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	if utf8.Valid(raw) {
		return raw
	}

	best, err := p.detector.DetectBest(raw)
	if err != nil {
		return nil
	}
	enc, err := ianaindex.IANA.Encoding(best.Charset)
	if err != nil || enc == nil {
		return nil
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil
	}
	return decoded
}

// coerceInt64 converts a JSON value that may be a number or a numeric string
// to int64, falling back to 0 on any failure.
func coerceInt64(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}

	// Fractional numbers truncate; fractional strings do not parse.
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int64(f)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
