package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/nbai/internal/adapters/mq/queue"
	worker "github.com/okian/nbai/internal/adapters/mq/worker"
	model "github.com/okian/nbai/internal/domain/model"
	logging "github.com/okian/nbai/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 16)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	close(mq.jobs)
	return nil
}

type mockEvaluator struct {
	mu    sync.Mutex
	fails map[int]error
	calls int
}

func (m *mockEvaluator) Evaluate(_ context.Context, j model.EvalJob) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err, ok := m.fails[j.Candidate]; ok {
		return 0, err
	}
	return float64(j.Candidate) / 10, nil
}

type mockSink struct {
	mu      sync.Mutex
	results []model.EvalResult
}

func (s *mockSink) Record(_ context.Context, r model.EvalResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

func (s *mockSink) snapshot() []model.EvalResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.EvalResult(nil), s.results...)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a mock queue", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		eval := &mockEvaluator{fails: map[int]error{2: errors.New("boom")}}
		sink := &mockSink{}
		w := worker.NewInMemoryWorker(q, eval, sink, worker.WithName("test-worker"))

		convey.Convey("When jobs are processed and the queue closes", func() {
			q.jobs <- queue.Job{Candidate: 1, Fold: 0}
			q.jobs <- queue.Job{Candidate: 2, Fold: 1}
			_ = q.Close()
			w.Run(context.Background())

			convey.Convey("Then every result reaches the sink, failures included", func() {
				res := sink.snapshot()
				convey.So(res, convey.ShouldHaveLength, 2)
				convey.So(res[0].Accuracy, convey.ShouldEqual, 0.1)
				convey.So(res[0].Err, convey.ShouldBeNil)
				convey.So(res[1].Err, convey.ShouldNotBeNil)
				convey.So(res[1].Fold, convey.ShouldEqual, 1)
			})

			convey.Convey("Then the worker reports done", func() {
				select {
				case <-w.Done():
					convey.So(true, convey.ShouldBeTrue)
				case <-time.After(time.Second):
					convey.So("worker still running", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When shut down while idle", func() {
			go w.Run(context.Background())
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			convey.Convey("Then it stops gracefully and a second call is harmless", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool over the in-memory queue", t, func() {
		_ = logging.Init()
		ctx := context.Background()

		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		eval := &mockEvaluator{}
		sink := &mockSink{}
		pool := worker.NewPool(4, q, eval, sink)

		convey.Convey("When every job is enqueued and the queue closed", func() {
			for c := 0; c < 16; c++ {
				for f := 0; f < 3; f++ {
					convey.So(q.Enqueue(ctx, queue.Job{Candidate: c, Fold: f}), convey.ShouldBeNil)
				}
			}
			_ = q.Close()
			pool.Start(ctx)
			waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			err := pool.Wait(waitCtx)

			convey.Convey("Then each job is evaluated exactly once", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pool.Size(), convey.ShouldEqual, 4)
				res := sink.snapshot()
				convey.So(res, convey.ShouldHaveLength, 48)
				seen := map[model.EvalJob]bool{}
				for _, r := range res {
					convey.So(seen[r.EvalJob], convey.ShouldBeFalse)
					seen[r.EvalJob] = true
				}
			})

			convey.Convey("Then shutting the drained pool down succeeds, repeatedly", func() {
				convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
				convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the pool is shut down", func() {
			pool.Start(ctx)
			shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			convey.Convey("Then it closes the queue and returns", func() {
				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(q.Enqueue(ctx, queue.Job{}), convey.ShouldEqual, queue.ErrClosed)
			})
		})
	})

	convey.Convey("Given a default-sized pool", t, func() {
		_ = logging.Init()
		pool := worker.NewPool(0, newMockQueue(), &mockEvaluator{}, &mockSink{})
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
