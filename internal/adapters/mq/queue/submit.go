package queue

import "context"

// Submit enqueues t and waits for its result. t.Done is created when nil.
// ErrClosed, ErrFull and a context error returned before enqueue mean the
// task never reached the writer. A context error while waiting does not: the
// writer may still apply the task.
func Submit(ctx context.Context, q Queue, t Task) (Result, error) { //nolint:gocritic // hugeParam: Task is sent by value
	if t.Done == nil {
		t.Done = make(chan Result, 1)
	}
	if q.IsClosed() {
		return Result{}, ErrClosed
	}
	if !q.Enqueue(ctx, t) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if q.IsClosed() {
			return Result{}, ErrClosed
		}
		return Result{}, ErrFull
	}
	select {
	case res := <-t.Done:
		return res, res.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
