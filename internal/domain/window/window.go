// Package window buffers parsed events into fixed processing-time windows.
//
// Windows are assigned by arrival time, not event time. Each window is
// independent; when it closes, the whole batch is handed to a flush callback
// and no state carries across windows except through the persisted store.
package window

import (
	"context"
	"sync"
	"time"

	"github.com/okian/castassist/internal/domain/model"
	"github.com/okian/castassist/pkg/metrics"
)

const defaultDuration = 3 * time.Second

// FlushFunc receives a closed window's batch. Flushes for consecutive
// windows may run concurrently if processing outlasts the window duration;
// downstream stages must tolerate that.
type FlushFunc func(ctx context.Context, batch []model.Event)

// Assigner collects events into the current window and flushes on a fixed
// ticker.
type Assigner struct {
	duration time.Duration
	flush    FlushFunc

	mu  sync.Mutex
	buf []model.Event

	done chan struct{}
}

// New creates an Assigner that forwards each closed window to flush.
func New(flush FlushFunc, opts ...Option) *Assigner {
	a := &Assigner{
		duration: defaultDuration,
		flush:    flush,
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Duration returns the configured window length.
func (a *Assigner) Duration() time.Duration {
	return a.duration
}

// Add buffers an event into the currently open window.
func (a *Assigner) Add(ctx context.Context, ev model.Event) {
	a.mu.Lock()
	a.buf = append(a.buf, ev)
	a.mu.Unlock()
}

// Run closes windows on a fixed cadence until ctx is canceled. The window
// open at cancellation time is flushed before Run returns, so a graceful
// shutdown does not silently drop buffered events.
func (a *Assigner) Run(ctx context.Context) {
	defer close(a.done)

	ticker := time.NewTicker(a.duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.closeWindow(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			a.closeWindow(ctx)
		}
	}
}

// Wait blocks until Run has returned.
func (a *Assigner) Wait() {
	<-a.done
}

// closeWindow swaps out the current buffer and hands it to the flush
// callback. Empty windows are counted but not flushed.
func (a *Assigner) closeWindow(ctx context.Context) {
	a.mu.Lock()
	batch := a.buf
	a.buf = nil
	a.mu.Unlock()

	metrics.RecordWindowFlush(len(batch))
	if len(batch) == 0 {
		return
	}
	a.flush(ctx, batch)
}
