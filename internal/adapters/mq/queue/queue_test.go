package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	tick := NewTask(KindTick)
	tick.At = time.Unix(100, 0)
	if !q.Enqueue(ctx, tick) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.Kind != KindTick || !got.At.Equal(tick.At) {
		t.Errorf("unexpected task %+v", got)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if q.Capacity() != 2 {
		t.Fatalf("expected capacity 2, got %d", q.Capacity())
	}
	for i := 0; i < 2; i++ {
		if !q.Enqueue(ctx, NewTask(KindTick)) {
			t.Fatalf("enqueue %d should succeed", i)
		}
	}
	if q.Enqueue(ctx, NewTask(KindTick)) {
		t.Error("expected enqueue to fail on a full queue")
	}
}

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(3))
	ctx := context.Background()

	kinds := []Kind{KindLoad, KindTick, KindAppend}
	for _, k := range kinds {
		q.Enqueue(ctx, NewTask(k))
	}
	_ = q.Close()

	var got []Kind
	for task := range q.Dequeue(ctx) {
		got = append(got, task.Kind)
	}
	if len(got) != len(kinds) {
		t.Fatalf("expected %d tasks after close, got %d", len(kinds), len(got))
	}
	for i := range kinds {
		if got[i] != kinds[i] {
			t.Errorf("position %d: want %s got %s", i, kinds[i], got[i])
		}
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	if err := q.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, NewTask(KindTick)) {
		t.Error("expected enqueue to fail after close")
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, NewTask(KindTick)) {
		t.Error("expected enqueue to fail with a cancelled context")
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("result is returned", func(t *testing.T) {
		q := NewInMemoryQueue()
		want := errors.New("boom")
		go func() {
			task := <-q.Dequeue(ctx)
			task.Done <- Result{Err: want}
		}()
		if _, err := Submit(ctx, q, Task{Kind: KindLoad}); !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
	})

	t.Run("counts are returned", func(t *testing.T) {
		q := NewInMemoryQueue()
		go func() {
			task := <-q.Dequeue(ctx)
			task.Done <- Result{Accepted: 2, Duplicates: 1}
		}()
		res, err := Submit(ctx, q, Task{Kind: KindAppend})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Accepted != 2 || res.Duplicates != 1 {
			t.Errorf("expected 2 accepted and 1 duplicate, got %+v", res)
		}
	})

	t.Run("caller gives up after enqueue", func(t *testing.T) {
		q := NewInMemoryQueue()
		waitCtx, cancel := context.WithCancel(ctx)
		go func() {
			for q.Len(ctx) == 0 {
				time.Sleep(time.Millisecond)
			}
			cancel()
		}()
		if _, err := Submit(waitCtx, q, Task{Kind: KindAppend}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if q.Len(ctx) != 1 {
			t.Errorf("expected the task to stay queued, got len %d", q.Len(ctx))
		}
	})

	t.Run("closed queue", func(t *testing.T) {
		q := NewInMemoryQueue()
		_ = q.Close()
		if _, err := Submit(ctx, q, Task{Kind: KindLoad}); !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})

	t.Run("full queue", func(t *testing.T) {
		q := NewInMemoryQueue(WithCapacity(1))
		q.Enqueue(ctx, NewTask(KindTick))
		if _, err := Submit(ctx, q, Task{Kind: KindLoad}); !errors.Is(err, ErrFull) {
			t.Errorf("expected ErrFull, got %v", err)
		}
	})
}
