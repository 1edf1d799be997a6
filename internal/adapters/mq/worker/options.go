// Package worker defines the parse workers that turn queued raw messages
// into domain events.
package worker

import (
	"github.com/okian/castassist/pkg/logger"
)

// Option applies a configuration option to the ParseWorker.
type Option func(*ParseWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *ParseWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *ParseWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}
