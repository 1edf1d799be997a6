// Package enrich augments candidate events with live team names.
package enrich

import (
	"context"

	"github.com/okian/castassist/internal/domain/model"
	"github.com/okian/castassist/pkg/logger"
	"github.com/okian/castassist/pkg/metrics"
)

// Directory reads the live match directory singleton.
type Directory interface {
	LiveMatches(ctx context.Context) (model.LiveMatches, error)
}

// Enricher resolves team names from the live match directory and writes them
// into a candidate's payload.
type Enricher struct {
	directory Directory
	log       logger.Logger
}

// New creates an Enricher backed by the given directory.
func New(directory Directory, log logger.Logger) *Enricher {
	return &Enricher{directory: directory, log: log}
}

// Enrich rewrites the candidate's player entries with team names when its
// match appears in the directory. Missing entries and directory read
// failures both degrade to a no-op: the candidate proceeds unmodified, it is
// never dropped here.
func (e *Enricher) Enrich(ctx context.Context, ev *model.Event) {
	directory, err := e.directory.LiveMatches(ctx)
	if err != nil {
		metrics.RecordEnrichmentMiss()
		e.log.Warn(ctx, "live match directory unavailable, skipping enrichment",
			logger.Int64("matchID", ev.MatchID),
			logger.Error(err),
		)
		return
	}

	match, ok := directory.Find(ev.MatchID)
	if !ok {
		metrics.RecordEnrichmentMiss()
		return
	}

	if err := ev.Payload.SetTeamNames(match.RadiantTeamName, match.DireTeamName); err != nil {
		metrics.RecordEnrichmentMiss()
		e.log.Warn(ctx, "team name rewrite failed, keeping payload unmodified",
			logger.String("token", ev.Token),
			logger.Int64("matchID", ev.MatchID),
			logger.Error(err),
		)
		return
	}

	metrics.RecordEnrichmentHit()
}
