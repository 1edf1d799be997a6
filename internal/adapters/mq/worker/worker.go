// Package worker defines the parse workers that turn queued raw messages
// into domain events and hand them to the windowing stage.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/castassist/internal/adapters/mq/queue"
	"github.com/okian/castassist/internal/domain/model"
	"github.com/okian/castassist/internal/domain/parse"
	"github.com/okian/castassist/pkg/logger"
	"github.com/okian/castassist/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Sink receives parsed events; the window assigner satisfies this.
type Sink interface {
	Add(ctx context.Context, ev model.Event)
}

// Queue defines how workers receive raw messages.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Message
}

// Worker processes raw messages until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// ParseWorker implements Worker by running raw messages through the parser.
type ParseWorker struct {
	queue  Queue
	parser *parse.Parser
	sink   Sink
	name   string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewParseWorker creates a new worker with configuration options.
func NewParseWorker(q Queue, parser *parse.Parser, sink Sink, opts ...Option) *ParseWorker {
	w := &ParseWorker{
		queue:    q,
		parser:   parser,
		sink:     sink,
		name:     "worker", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *ParseWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	msgChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case msg, ok := <-msgChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}
			w.processMessage(ctx, msg)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *ParseWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processMessage parses one raw message. Unparsable or filtered messages
// are counted and dropped; nothing in a message can fail the worker.
func (w *ParseWorker) processMessage(ctx context.Context, msg queue.Message) {
	start := time.Now()
	ev, ok := w.parser.Parse(msg)
	metrics.RecordParseLatency(float64(time.Since(start).Milliseconds()))

	if !ok {
		metrics.RecordEventDropped()
		w.logger.Debug(ctx, "message dropped by parser",
			logger.Int("bytes", len(msg)),
		)
		return
	}

	metrics.RecordEventParsed()
	w.sink.Add(ctx, ev)
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*ParseWorker

	// Shutdown control
	queue    Queue
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, parser *parse.Parser, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*ParseWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewParseWorker(
			q,
			parser,
			sink,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool. The queue is
// closed first so workers drain what is buffered and then stop on the
// closed dequeue channel.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
