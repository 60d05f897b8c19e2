package worker

import (
	"errors"

	"github.com/okian/tagboard/pkg/logger"
)

// ErrUnknownTask is returned for tasks of an unrecognised kind.
var ErrUnknownTask = errors.New("unknown task kind")

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used for logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
