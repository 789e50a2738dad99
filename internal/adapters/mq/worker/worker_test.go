package worker_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	queue "github.com/tolgaeren/swish/internal/adapters/mq/queue"
	worker "github.com/tolgaeren/swish/internal/adapters/mq/worker"
	"github.com/tolgaeren/swish/internal/domain/model"
	"github.com/tolgaeren/swish/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeUpdater struct {
	mu         sync.Mutex
	totals     map[string]int64
	failPlayer string
}

func (u *fakeUpdater) AddPoints(ctx context.Context, playerID string, points int) (int64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if playerID == u.failPlayer {
		return 0, errors.New("store unavailable")
	}
	if u.totals == nil {
		u.totals = make(map[string]int64)
	}
	u.totals[playerID] += int64(points)
	return u.totals[playerID], nil
}

func (u *fakeUpdater) total(playerID string) int64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.totals[playerID]
}

type fakeUnrecorder struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeUnrecorder) Unrecord(ctx context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
}

func (f *fakeUnrecorder) released() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

// waitUntil polls cond until it returns true or the deadline passes.
func waitUntil(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func makeResult(id, playerID string, points int) model.Result {
	return model.Result{
		ResultID:   id,
		PlayerID:   playerID,
		Points:     points,
		Quality:    "PERFECT",
		Distance:   6.9,
		ReleasedAt: time.Now(),
	}
}

func TestWorkerProcessing(t *testing.T) {
	Convey("Given a worker over a live queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		updater := &fakeUpdater{}
		unrec := &fakeUnrecorder{}
		w := worker.NewInMemoryWorker(q, updater, unrec, worker.WithName("worker-test"))

		ctx, cancel := context.WithCancel(context.Background())
		Reset(func() {
			cancel()
			q.Close()
		})
		go w.Run(ctx)

		Convey("When results are enqueued", func() {
			q.Enqueue(ctx, makeResult("res-1", "player-1", 2))
			q.Enqueue(ctx, makeResult("res-2", "player-1", 3))
			q.Enqueue(ctx, makeResult("res-3", "player-2", 2))

			Convey("Then points accumulate on the leaderboard", func() {
				So(waitUntil(func() bool {
					return updater.total("player-1") == 5 && updater.total("player-2") == 2
				}), ShouldBeTrue)
				So(unrec.released(), ShouldBeEmpty)
			})
		})

		Convey("When the store rejects an update", func() {
			updater.failPlayer = "player-broken"
			q.Enqueue(ctx, makeResult("res-bad", "player-broken", 2))
			q.Enqueue(ctx, makeResult("res-good", "player-1", 3))

			Convey("Then the failed result's ID is released for retry", func() {
				So(waitUntil(func() bool {
					return updater.total("player-1") == 3
				}), ShouldBeTrue)
				So(waitUntil(func() bool {
					return len(unrec.released()) == 1
				}), ShouldBeTrue)
				So(unrec.released(), ShouldResemble, []string{"res-bad"})
			})
		})
	})
}

func TestWorkerShutdown(t *testing.T) {
	Convey("Given a running worker", t, func() {
		q := queue.NewInMemoryQueue()
		updater := &fakeUpdater{}
		w := worker.NewInMemoryWorker(q, updater, nil)

		ctx := context.Background()
		go w.Run(ctx)

		Convey("When Shutdown is called", func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			err := w.Shutdown(shutdownCtx)

			Convey("Then it stops cleanly", func() {
				So(err, ShouldBeNil)
			})
		})
	})

	Convey("Given a worker whose queue closes", t, func() {
		q := queue.NewInMemoryQueue()
		updater := &fakeUpdater{}
		w := worker.NewInMemoryWorker(q, updater, nil)

		done := make(chan struct{})
		go func() {
			w.Run(context.Background())
			close(done)
		}()

		Convey("When the queue shuts down", func() {
			q.Close()

			Convey("Then the worker loop exits on its own", func() {
				exited := false
				select {
				case <-done:
					exited = true
				case <-time.After(2 * time.Second):
				}
				So(exited, ShouldBeTrue)
			})
		})
	})
}

func TestPoolDrainsOnShutdown(t *testing.T) {
	Convey("Given a started pool with buffered results", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		updater := &fakeUpdater{}
		ctx := context.Background()

		for i := range 20 {
			So(q.Enqueue(ctx, makeResult(fmt.Sprintf("res-%d", i), "player-1", 2)), ShouldBeTrue)
		}

		p := worker.NewPool(4, q, updater, nil)
		p.Start(ctx)

		Convey("When the pool shuts down", func() {
			err := p.Shutdown(ctx)

			Convey("Then every buffered result was applied first", func() {
				So(err, ShouldBeNil)
				So(updater.total("player-1"), ShouldEqual, 40)
				So(q.IsClosed(), ShouldBeTrue)
			})

			Convey("And shutting down again is harmless", func() {
				So(p.Shutdown(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given a pool with a non-positive worker count", t, func() {
		q := queue.NewInMemoryQueue()
		p := worker.NewPool(0, q, &fakeUpdater{}, nil)

		Convey("Then it falls back to a sane default and still stops", func() {
			So(p, ShouldNotBeNil)
			p.Start(context.Background())
			So(p.Shutdown(context.Background()), ShouldBeNil)
		})
	})
}
