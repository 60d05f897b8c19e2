// Package worker runs the single writer that applies queued tasks to the
// live scoring state.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/tagboard/internal/adapters/mq/queue"
	"github.com/okian/tagboard/internal/domain/model"
	"github.com/okian/tagboard/pkg/logger"
	"github.com/okian/tagboard/pkg/metrics"
)

// Handler applies tasks. Only the worker goroutine calls it, so
// implementations need no locking for their own state.
type Handler interface {
	Load(ctx context.Context, runID string, events []model.TagEvent) error
	// Append reports how many events were new and how many were repeats.
	Append(ctx context.Context, runID string, events []model.TagEvent) (accepted, duplicates int, err error)
	Advance(ctx context.Context, at time.Time) error
}

// Queue defines how the worker receives tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Task
}

// Worker processes tasks until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the loop and waits for it to exit.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker is the single writer.
type InMemoryWorker struct {
	queue   Queue
	handler Handler
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, h Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		handler:  h,
		name:     "writer",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			res := w.process(ctx, task)
			if task.Done != nil {
				task.Done <- res
			}
		}
	}
}

// Shutdown signals the loop to stop and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, task queue.Task) queue.Result { //nolint:gocritic // hugeParam: Task is received by value
	start := time.Now()
	defer func() {
		metrics.RecordTaskLatency(string(task.Kind), float64(time.Since(start).Milliseconds()))
	}()

	var (
		res queue.Result
		err error
	)
	switch task.Kind {
	case queue.KindLoad:
		err = w.handler.Load(ctx, task.RunID, task.Events)
	case queue.KindAppend:
		res.Accepted, res.Duplicates, err = w.handler.Append(ctx, task.RunID, task.Events)
	case queue.KindTick:
		err = w.handler.Advance(ctx, task.At)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownTask, task.Kind)
	}

	if err != nil {
		metrics.RecordTaskError(string(task.Kind))
		metrics.RecordErrorByComponent("worker", string(task.Kind))
		w.logger.Error(ctx, "task failed",
			logger.String("kind", string(task.Kind)),
			logger.String("run_id", task.RunID),
			logger.Error(err),
		)
	}
	res.Err = err
	return res
}
