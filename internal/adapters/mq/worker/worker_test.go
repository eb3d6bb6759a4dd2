package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/taskmatch/internal/adapters/mq/queue"
	"github.com/okian/taskmatch/internal/adapters/mq/worker"
	"github.com/okian/taskmatch/internal/domain/model"
	logging "github.com/okian/taskmatch/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.TaskEvent
	fail   map[string]error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{fail: make(map[string]error)}
}

func (p *recordingPublisher) Publish(_ context.Context, e model.TaskEvent) error { //nolint:gocritic // test helper
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.fail[e.TaskID]; ok {
		return err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Driver() string { return "test" }

func (p *recordingPublisher) published() []model.TaskEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.TaskEvent(nil), p.events...)
}

func event(id, taskID string) queue.Event {
	return model.TaskEvent{
		ID:       id,
		Type:     model.EventTaskAssigned,
		TaskID:   taskID,
		WorkerID: "w-1",
		Status:   model.StatusInProgress,
		At:       time.Now(),
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		pub := newRecordingPublisher()
		w := worker.NewInMemoryWorker(q, pub, worker.WithName("test-worker"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When an event is enqueued", func() {
			convey.So(q.Enqueue(ctx, event("e-1", "t-1")), convey.ShouldBeNil)

			convey.Convey("Then it is published", func() {
				convey.So(waitFor(func() bool { return len(pub.published()) == 1 }), convey.ShouldBeTrue)
				convey.So(pub.published()[0].ID, convey.ShouldEqual, "e-1")
			})
		})

		convey.Convey("When publishing fails", func() {
			pub.mu.Lock()
			pub.fail["t-bad"] = errors.New("broker down")
			pub.mu.Unlock()

			convey.So(q.Enqueue(ctx, event("e-bad", "t-bad")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, event("e-2", "t-2")), convey.ShouldBeNil)

			convey.Convey("Then the worker keeps going", func() {
				convey.So(waitFor(func() bool { return len(pub.published()) == 1 }), convey.ShouldBeTrue)
				convey.So(pub.published()[0].ID, convey.ShouldEqual, "e-2")
			})
		})

		convey.Convey("When the queue is closed", func() {
			convey.So(q.Close(), convey.ShouldBeNil)

			convey.Convey("Then Run returns", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					t.Fatal("worker did not stop")
				}
			})
		})

		convey.Convey("When the worker is shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(256))
		pub := newRecordingPublisher()
		pool := worker.NewPool(4, q, pub)
		convey.So(pool.Size(), convey.ShouldEqual, 4)

		ctx := context.Background()
		pool.Start(ctx)

		convey.Convey("When events are enqueued and the pool shuts down", func() {
			for i := 0; i < 100; i++ {
				convey.So(q.Enqueue(ctx, event(fmt.Sprintf("e-%d", i), fmt.Sprintf("t-%d", i))), convey.ShouldBeNil)
			}

			err := pool.Shutdown(ctx)

			convey.Convey("Then every queued event is delivered", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(pub.published()), convey.ShouldEqual, 100)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool of workers and interleaved events for a few tasks", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(512))
		pub := newRecordingPublisher()
		pool := worker.NewPool(8, q, pub)

		ctx := context.Background()
		pool.Start(ctx)

		tasks := []string{"t-a", "t-b", "t-c", "t-d", "t-e"}
		const perTask = 60
		for i := 0; i < perTask; i++ {
			for _, task := range tasks {
				convey.So(q.Enqueue(ctx, event(fmt.Sprintf("%s-%03d", task, i), task)), convey.ShouldBeNil)
			}
		}
		convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

		convey.Convey("Then each task's events publish in enqueue order", func() {
			got := pub.published()
			convey.So(len(got), convey.ShouldEqual, perTask*len(tasks))

			byTask := make(map[string][]string)
			for _, e := range got {
				byTask[e.TaskID] = append(byTask[e.TaskID], e.ID)
			}
			for _, task := range tasks {
				ids := byTask[task]
				convey.So(len(ids), convey.ShouldEqual, perTask)
				for i, id := range ids {
					convey.So(id, convey.ShouldEqual, fmt.Sprintf("%s-%03d", task, i))
				}
			}
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		_ = logging.Init()
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), newRecordingPublisher())

		convey.Convey("Then a CPU based default is used", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
