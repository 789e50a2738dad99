// Package worker defines the recorder workers that drain queued shot
// results into the leaderboard.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/tolgaeren/swish/internal/domain/model"
	"github.com/tolgaeren/swish/pkg/logger"
	"github.com/tolgaeren/swish/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Result abstracts what workers read off the queue.
type Result = model.Result

// Updater applies a recorded result's points to the leaderboard.
type Updater interface {
	AddPoints(ctx context.Context, playerID string, points int) (int64, error)
}

// Unrecorder releases a result ID reserved by the deduper so a failed
// result can be retried.
type Unrecorder interface {
	Unrecord(ctx context.Context, id string)
}

// Queue defines how workers receive results.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Result
}

// Worker processes results and writes leaderboard updates.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue
	// closes.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the in-flight result.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing results.
type InMemoryWorker struct {
	queue      Queue
	updater    Updater
	unrecorder Unrecorder
	name       string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, updater Updater, unrecorder Unrecorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      queue,
		updater:    updater,
		unrecorder: unrecorder,
		name:       "worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop. It exits when ctx is canceled, Shutdown is
// called, or the dequeue channel closes after the queue drains.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	results := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-results:
			if !ok {
				return
			}
			if err := w.processResult(ctx, r); err != nil {
				w.logger.Error(ctx, "error recording result", logger.Err(err))
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processResult applies a single result to the leaderboard. On failure
// the result ID is released from the deduper so a retry can land.
func (w *InMemoryWorker) processResult(ctx context.Context, r Result) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))
	}()

	total, err := w.updater.AddPoints(ctx, r.PlayerID, r.Points)
	if err != nil {
		metrics.RecordWorkerError()
		if w.unrecorder != nil {
			w.unrecorder.Unrecord(ctx, r.ResultID)
		}
		w.logger.Error(ctx, "leaderboard update failed for result",
			logger.String("resultID", r.ResultID),
			logger.String("playerID", r.PlayerID),
			logger.Err(err),
		)
		return fmt.Errorf("record result %s: %w", r.ResultID, err)
	}

	metrics.RecordWorkerProcessed()
	metrics.RecordResultRecorded()
	w.logger.Debug(ctx, "result recorded",
		logger.String("resultID", r.ResultID),
		logger.String("playerID", r.PlayerID),
		logger.Int("points", r.Points),
		logger.Int64("total", total),
	)
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	stopOnce sync.Once

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive workerCount falls
// back to the CPU count.
func NewPool(workerCount int, queue Queue, updater Updater, unrecorder Unrecorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := range workerCount {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			updater,
			unrecorder,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown drains and stops the pool: the queue closes first so workers
// finish the buffered results, then each worker is awaited.
func (p *Pool) Shutdown(ctx context.Context) error {
	var err error
	p.stopOnce.Do(func() {
		if closer, ok := p.queue.(interface{ Close() error }); ok {
			if cerr := closer.Close(); cerr != nil {
				p.logger.Error(ctx, "error closing queue", logger.Err(cerr))
			}
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
		defer cancel()

		for i, w := range p.workers {
			select {
			case <-w.done:
			case <-shutdownCtx.Done():
				p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
				err = shutdownCtx.Err()
			}
		}

		metrics.UpdateWorkerActiveCount(0)
	})
	return err
}

// Stop shuts the pool down with a background context.
func (p *Pool) Stop() {
	_ = p.Shutdown(context.Background())
}
