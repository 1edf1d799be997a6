// Package pipeline drives a closed window's batch through reduction,
// enrichment, and the guarded store write.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/okian/castassist/internal/domain/enrich"
	"github.com/okian/castassist/internal/domain/guard"
	"github.com/okian/castassist/internal/domain/model"
	"github.com/okian/castassist/internal/domain/reduce"
	"github.com/okian/castassist/pkg/logger"
	"github.com/okian/castassist/pkg/metrics"
)

const defaultConcurrency = 8

// Pipeline owns the per-window processing: one candidate per token per
// match, team names resolved, then a conditional upsert per candidate.
type Pipeline struct {
	enricher    *enrich.Enricher
	guard       *guard.Guard
	concurrency int
	log         logger.Logger
}

// New creates a Pipeline over the given enricher and guard.
func New(enricher *enrich.Enricher, g *guard.Guard, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		enricher:    enricher,
		guard:       g,
		concurrency: defaultConcurrency,
		log:         log,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Flush processes one closed window. Candidates commit independently; a
// failing token is logged and skipped so one bad write never blocks the
// rest of the window. Flush satisfies window.FlushFunc.
func (p *Pipeline) Flush(ctx context.Context, batch []model.Event) {
	start := time.Now()
	defer func() {
		metrics.RecordWindowFlushDuration(float64(time.Since(start).Milliseconds()))
	}()

	candidates := reduce.WindowCandidates(batch)
	metrics.RecordWindowCandidates(len(candidates))
	if len(candidates) == 0 {
		return
	}

	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	for _, candidate := range candidates {
		wg.Add(1)
		sem <- struct{}{}

		go func(ev model.Event) {
			defer wg.Done()
			defer func() { <-sem }()
			p.commit(ctx, ev)
		}(candidate)
	}

	wg.Wait()
}

// commit enriches and conditionally writes one candidate.
func (p *Pipeline) commit(ctx context.Context, ev model.Event) {
	p.enricher.Enrich(ctx, &ev)

	decision, err := p.guard.Commit(ctx, ev)
	if err != nil {
		p.log.Error(ctx, "snapshot commit failed",
			logger.String("token", ev.Token),
			logger.Int64("matchID", ev.MatchID),
			logger.Error(err),
		)
		return
	}

	if decision != guard.Accepted {
		p.log.Debug(ctx, "candidate rejected as stale",
			logger.String("token", ev.Token),
			logger.Int64("matchID", ev.MatchID),
			logger.String("decision", decision.String()),
		)
	}
}
