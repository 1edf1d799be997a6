// Package service assembles the event pipeline: broker consumer, dedupe,
// parse workers, windowing, enrichment, and the guarded store writes.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	consumer "github.com/okian/castassist/internal/adapters/mq/consumer"
	eventqueue "github.com/okian/castassist/internal/adapters/mq/queue"
	workerpool "github.com/okian/castassist/internal/adapters/mq/worker"
	repository "github.com/okian/castassist/internal/adapters/repository"
	"github.com/okian/castassist/internal/adapters/steam"
	"github.com/okian/castassist/internal/config"
	"github.com/okian/castassist/internal/domain/dedupe"
	"github.com/okian/castassist/internal/domain/enrich"
	"github.com/okian/castassist/internal/domain/guard"
	"github.com/okian/castassist/internal/domain/model"
	"github.com/okian/castassist/internal/domain/parse"
	"github.com/okian/castassist/internal/domain/pipeline"
	"github.com/okian/castassist/internal/domain/window"
	"github.com/okian/castassist/pkg/logger"
)

const storeCloseTimeout = 5 * time.Second

// Store bundles everything the pipeline needs from the document store.
type Store interface {
	guard.EventStore
	enrich.Directory

	// SaveLiveMatches overwrites the live match directory singleton.
	SaveLiveMatches(ctx context.Context, matches model.LiveMatches) error

	// Close releases the store's resources.
	Close(ctx context.Context) error
}

// Service owns the lifecycle of all pipeline components.
type Service struct {
	mu sync.RWMutex

	// Core components
	cfg      *config.Config
	store    Store
	deduper  dedupe.Deduper
	msgQueue eventqueue.Queue
	pool     *workerpool.Pool
	assigner *window.Assigner
	consume  *consumer.Consumer
	poller   *steam.Poller
	ingest   consumer.Handler

	// State
	started       bool
	cancelConsume context.CancelFunc
	cancelProcess context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithStore injects a pre-built store, bypassing the MongoDB connection.
// Used by tests.
func WithStore(store Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// New constructs a Service from configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg: cfg,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start connects the store, assembles the pipeline, and launches the
// consumer, workers, window assigner, and poller.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting event pipeline...")

	if s.store == nil {
		store, err := repository.New(ctx, s.cfg.MongoURI,
			repository.WithDatabase(s.cfg.MongoDatabase),
			repository.WithEventsCollection(s.cfg.EventsCollection),
			repository.WithMatchesCollection(s.cfg.MatchesCollection),
			repository.WithTTL(s.cfg.EventTTL()),
		)
		if err != nil {
			return fmt.Errorf("connect store: %w", err)
		}
		s.store = store
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.cfg.DedupeSize),
	)
	s.msgQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.cfg.QueueSize),
	)

	enricher := enrich.New(s.store, logger.Get().Named("enrich"))
	committer := guard.New(s.store)
	flow := pipeline.New(enricher, committer, logger.Get().Named("pipeline"),
		pipeline.WithConcurrency(s.cfg.CommitConcurrency),
	)

	s.assigner = window.New(flow.Flush,
		window.WithDuration(s.cfg.WindowDuration()),
	)
	s.pool = workerpool.NewPool(s.cfg.WorkerCount, s.msgQueue, parse.New(), s.assigner)

	s.ingest = consumer.NewIngestHandler(s.deduper, s.msgQueue)
	consume, err := consumer.New(
		s.cfg.KafkaBrokers,
		s.cfg.KafkaGroupID,
		s.cfg.KafkaClientID,
		s.cfg.KafkaTopic,
		s.ingest,
	)
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}
	s.consume = consume

	// Two cancellation scopes: the consume side stops first on shutdown so
	// the processing side can drain what is already buffered.
	consumeCtx, cancelConsume := context.WithCancel(context.WithoutCancel(ctx))
	processCtx, cancelProcess := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelConsume = cancelConsume
	s.cancelProcess = cancelProcess

	go s.assigner.Run(processCtx)
	s.pool.Start(processCtx)
	go func() {
		if err := s.consume.Run(consumeCtx); err != nil && consumeCtx.Err() == nil {
			s.logger.Error(consumeCtx, "consumer stopped", logger.Error(err))
		}
	}()

	if s.cfg.PollerEnabled {
		s.poller = steam.New(
			steam.NewKeyring(s.cfg.SteamAPIKeys),
			s.store,
			steam.WithPollInterval(s.cfg.SteamPollInterval()),
			steam.WithRequestTimeout(s.cfg.SteamRequestTimeout()),
		)
		go s.poller.Run(consumeCtx)
	}

	s.started = true
	s.logger.Info(ctx, "event pipeline started",
		logger.Int("workers", s.cfg.WorkerCount),
		logger.Int("queueSize", s.cfg.QueueSize),
		logger.Duration("window", s.cfg.WindowDuration()),
		logger.Bool("poller", s.cfg.PollerEnabled),
	)

	return nil
}

// Stop drains and shuts down the pipeline in dependency order: stop
// consuming, drain the queue through the workers, flush the open window,
// then release the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping event pipeline...")

	s.cancelConsume()
	s.consume.Close()

	// Closes the queue and waits for workers to drain buffered messages.
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}

	// The assigner flushes the window open at cancellation before exiting.
	s.cancelProcess()
	s.assigner.Wait()

	closeCtx, cancel := context.WithTimeout(ctx, storeCloseTimeout)
	defer cancel()
	if err := s.store.Close(closeCtx); err != nil {
		s.logger.Warn(ctx, "store close failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "event pipeline stopped")
}

// Ingest runs one raw payload through the same path broker records take:
// dedupe, then the bounded queue. Useful for tooling and tests that bypass
// the broker.
func (s *Service) Ingest(ctx context.Context, raw []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return fmt.Errorf("service not started")
	}
	return s.ingest(ctx, raw)
}

// HealthCheck reports whether the pipeline and its dependencies are usable.
// Stores without a Ping method are assumed healthy.
func (s *Service) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return fmt.Errorf("service not started")
	}
	if err := s.consume.HealthCheck(ctx); err != nil {
		return fmt.Errorf("broker: %w", err)
	}
	if p, ok := s.store.(interface{ Ping(ctx context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"worker_count": s.cfg.WorkerCount,
		"queue_size":   s.cfg.QueueSize,
		"dedupe_size":  s.cfg.DedupeSize,
		"window_s":     s.cfg.WindowSeconds,
	}

	if s.started {
		stats["queue_length"] = s.msgQueue.Len(context.Background())
		stats["dedupe_entries"] = s.deduper.Size()
	}

	return stats
}
