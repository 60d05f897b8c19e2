// Package queue carries writer tasks to the single goroutine that owns the
// live scoring state. Every mutation goes through it, so a whole-log fold
// is never interleaved with a clock tick.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/tagboard/internal/domain/model"
	"github.com/okian/tagboard/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Kind names what a task does to the state.
type Kind string

// Task kinds.
const (
	KindLoad   Kind = "load"   // replace the state with a fresh run over Events
	KindAppend Kind = "append" // add Events to the log and re-run
	KindTick   Kind = "tick"   // advance the holder to At
)

// Task is one unit of work for the writer.
type Task struct {
	Kind   Kind
	RunID  string
	Events []model.TagEvent
	At     time.Time
	// Done, when set, receives the task's result. It must be buffered.
	Done chan Result
}

// Result is what the writer reports for a task. Accepted and Duplicates
// are only filled for appends.
type Result struct {
	Accepted   int
	Duplicates int
	Err        error
}

// NewTask returns a task with a buffered Done channel.
func NewTask(kind Kind) Task {
	return Task{Kind: kind, Done: make(chan Result, 1)}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a task. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, t Task) bool

	// Dequeue returns a channel of tasks, closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Task

	Len(ctx context.Context) int
	Capacity() int

	// Close stops accepting tasks; queued tasks are still delivered.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	tasks    chan Task
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.tasks = make(chan Task, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a task to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) bool { //nolint:gocritic // hugeParam: Task is sent by value
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	}

	select {
	case q.tasks <- t:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.tasks))
		return true
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that delivers tasks in FIFO order.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Task {
	out := make(chan Task)
	go func() {
		defer close(out)
		for t := range q.tasks {
			select {
			case out <- t:
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.tasks))
			case <-ctx.Done():
				if t.Done != nil {
					t.Done <- Result{Err: ctx.Err()}
				}
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued tasks.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.tasks)
	metrics.UpdateQueueSize(size)
	return size
}

// Capacity returns the queue bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.tasks)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
