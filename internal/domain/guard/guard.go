// Package guard decides whether a candidate event may replace the stored
// snapshot for its token.
//
// Two independent staleness tests protect the store from out-of-order
// delivery:
//
//   - Test A: within the same match, a lower game time than the stored one
//     means the candidate is a replay of older state. Game time is only
//     comparable while the match identity is unchanged.
//   - Test B: a lower producer wall-clock timestamp than the stored one
//     means transport reordering, regardless of match. This test also fires
//     when a viewer switches to a new match whose producer clock lags the
//     previous one, wrongly suppressing a legitimate event; the behavior is
//     kept for compatibility because no tie-break policy was ever specified.
//
// Equal values never count as regressions, so a byte-identical replay of an
// accepted event is rejected as stale rather than written twice.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/castassist/internal/domain/model"
	"github.com/okian/castassist/pkg/metrics"
)

// Decision is the outcome of guarding one candidate.
type Decision int

const (
	// Accepted means the candidate was written as the token's new snapshot.
	Accepted Decision = iota
	// StaleGameTime means the candidate regressed in game time within the
	// same match.
	StaleGameTime
	// StaleTimestamp means the candidate regressed in producer wall-clock
	// time.
	StaleTimestamp
	// StaleReplay means the candidate matches the stored snapshot exactly
	// on match id, game time, and timestamp: a replay of an already
	// accepted event.
	StaleReplay
)

// String implements fmt.Stringer for log output.
func (d Decision) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case StaleGameTime:
		return "stale-game-time"
	case StaleTimestamp:
		return "stale-timestamp"
	case StaleReplay:
		return "stale-replay"
	default:
		return "unknown"
	}
}

// EventStore is the document store port the guard writes through.
type EventStore interface {
	// Event returns the stored snapshot for a token. The boolean reports
	// whether a snapshot exists; a read failure is an error, never a
	// silent "absent".
	Event(ctx context.Context, token string) (model.Event, bool, error)

	// SaveEvents merge-upserts snapshots keyed by token, attaching a fresh
	// expiration of now + TTL to each.
	SaveEvents(ctx context.Context, events []model.Event) error
}

// Guard gates candidate events through the staleness tests.
type Guard struct {
	store EventStore
}

// New creates a Guard over the given store.
func New(store EventStore) *Guard {
	return &Guard{store: store}
}

// Commit runs the staleness tests for one candidate and upserts it when it
// wins. A read failure of the previous snapshot is returned as an error and
// the write does not proceed: treating it as "absent" would let a stale
// candidate through unconditionally. Write failures are likewise returned
// per candidate; the caller continues with other tokens.
func (g *Guard) Commit(ctx context.Context, candidate model.Event) (Decision, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency(float64(time.Since(start).Milliseconds()))
	}()

	prev, exists, err := g.store.Event(ctx, candidate.Token)
	if err != nil {
		metrics.RecordStoreReadError()
		return 0, fmt.Errorf("read previous snapshot for token %q: %w", candidate.Token, err)
	}

	if exists {
		if d, stale := Compare(prev, candidate); stale {
			switch d {
			case StaleGameTime:
				metrics.RecordWriteStale(metrics.StaleReasonGameTime)
			case StaleTimestamp:
				metrics.RecordWriteStale(metrics.StaleReasonTimestamp)
			case StaleReplay:
				metrics.RecordWriteStale(metrics.StaleReasonReplay)
			}
			return d, nil
		}
	}

	if err := g.store.SaveEvents(ctx, []model.Event{candidate}); err != nil {
		metrics.RecordStoreWriteError()
		return 0, fmt.Errorf("upsert snapshot for token %q: %w", candidate.Token, err)
	}

	metrics.RecordWriteAccepted()
	return Accepted, nil
}

// Compare applies the staleness tests to a stored snapshot and a candidate.
// It returns the rejection decision and true when the candidate is stale;
// the game-time test is reported when several would fire. Equal values never
// count as "greater than" on either test, but a candidate identical to the
// stored snapshot on all ordering fields is a replay and is rejected rather
// than written a second time.
func Compare(prev, candidate model.Event) (Decision, bool) {
	if prev.MatchID == candidate.MatchID && prev.GameTime > candidate.GameTime {
		return StaleGameTime, true
	}
	if prev.Timestamp > candidate.Timestamp {
		return StaleTimestamp, true
	}
	if prev.MatchID == candidate.MatchID &&
		prev.GameTime == candidate.GameTime &&
		prev.Timestamp == candidate.Timestamp {
		return StaleReplay, true
	}
	return Accepted, false
}
