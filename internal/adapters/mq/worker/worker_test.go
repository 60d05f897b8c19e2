package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/tagboard/internal/adapters/mq/queue"
	worker "github.com/okian/tagboard/internal/adapters/mq/worker"
	model "github.com/okian/tagboard/internal/domain/model"
	logging "github.com/okian/tagboard/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	tasks chan queue.Task
}

func newMockQueue() *mockQueue {
	return &mockQueue{tasks: make(chan queue.Task, 10)}
}

func (mq *mockQueue) Dequeue(_ context.Context) <-chan queue.Task {
	return mq.tasks
}

type recordingHandler struct {
	mu      sync.Mutex
	calls   []string
	loaded  []model.TagEvent
	advance time.Time
	failOn  string
}

func (h *recordingHandler) record(kind string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, kind)
	if kind == h.failOn {
		return errors.New(kind + " failed")
	}
	return nil
}

func (h *recordingHandler) Load(_ context.Context, _ string, events []model.TagEvent) error {
	h.mu.Lock()
	h.loaded = events
	h.mu.Unlock()
	return h.record("load")
}

func (h *recordingHandler) Append(_ context.Context, _ string, events []model.TagEvent) (int, int, error) {
	if err := h.record("append"); err != nil {
		return 0, 0, err
	}
	return len(events), 0, nil
}

func (h *recordingHandler) Advance(_ context.Context, at time.Time) error {
	h.mu.Lock()
	h.advance = at
	h.mu.Unlock()
	return h.record("tick")
}

func (h *recordingHandler) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func waitResult(t queue.Task) queue.Result {
	select {
	case res := <-t.Done:
		return res
	case <-time.After(time.Second):
		return queue.Result{Err: errors.New("timed out waiting for task")}
	}
}

func wait(t queue.Task) error {
	return waitResult(t).Err
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		h := &recordingHandler{}
		w := worker.NewInMemoryWorker(q, h, worker.WithName("test-writer"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a load task arrives", func() {
			task := queue.NewTask(queue.KindLoad)
			task.Events = []model.TagEvent{{At: time.Unix(0, 0), Player: "A"}}
			q.tasks <- task

			convey.Convey("Then the handler receives the events and the result is reported", func() {
				convey.So(wait(task), convey.ShouldBeNil)
				convey.So(h.snapshot(), convey.ShouldResemble, []string{"load"})
				h.mu.Lock()
				defer h.mu.Unlock()
				convey.So(h.loaded, convey.ShouldHaveLength, 1)
			})
		})

		convey.Convey("When tasks of every kind arrive", func() {
			load, app, tick := queue.NewTask(queue.KindLoad), queue.NewTask(queue.KindAppend), queue.NewTask(queue.KindTick)
			tick.At = time.Unix(3600, 0)
			q.tasks <- load
			q.tasks <- app
			q.tasks <- tick

			convey.Convey("Then they are applied in order", func() {
				convey.So(wait(load), convey.ShouldBeNil)
				convey.So(wait(app), convey.ShouldBeNil)
				convey.So(wait(tick), convey.ShouldBeNil)
				convey.So(h.snapshot(), convey.ShouldResemble, []string{"load", "append", "tick"})
				h.mu.Lock()
				defer h.mu.Unlock()
				convey.So(h.advance.Equal(tick.At), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an append task arrives", func() {
			task := queue.NewTask(queue.KindAppend)
			task.Events = []model.TagEvent{{At: time.Unix(0, 0), Player: "A"}, {At: time.Unix(60, 0), Player: "B"}}
			q.tasks <- task

			convey.Convey("Then the handler's counts come back on Done", func() {
				res := waitResult(task)
				convey.So(res.Err, convey.ShouldBeNil)
				convey.So(res.Accepted, convey.ShouldEqual, 2)
				convey.So(res.Duplicates, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the handler fails", func() {
			h.failOn = "append"
			task := queue.NewTask(queue.KindAppend)
			q.tasks <- task

			convey.Convey("Then the error is sent back on Done", func() {
				convey.So(wait(task), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the task kind is unknown", func() {
			task := queue.NewTask(queue.Kind("bogus"))
			q.tasks <- task

			convey.Convey("Then ErrUnknownTask is reported", func() {
				convey.So(errors.Is(wait(task), worker.ErrUnknownTask), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer shutdownCancel()

			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then it should shutdown gracefully", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerStopsOnClosedQueue(t *testing.T) {
	convey.Convey("Given a worker over a queue that gets closed", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, &recordingHandler{})
		done := make(chan struct{})
		go func() {
			w.Run(context.Background())
			close(done)
		}()
		close(q.tasks)

		convey.Convey("Then Run returns", func() {
			select {
			case <-done:
				convey.So(true, convey.ShouldBeTrue)
			case <-time.After(time.Second):
				convey.So("run did not return", convey.ShouldBeEmpty)
			}
		})
	})
}

func TestWorkerShutdownTimeout(t *testing.T) {
	convey.Convey("Given a worker that never started", t, func() {
		w := worker.NewInMemoryWorker(newMockQueue(), &recordingHandler{}, worker.WithLogger(logging.Nop()))

		convey.Convey("When shutdown has an expired context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			convey.Convey("Then it reports a timeout", func() {
				convey.So(errors.Is(w.Shutdown(ctx), context.Canceled), convey.ShouldBeTrue)
			})
		})
	})
}
