// Package queue defines the contract for enqueuing and consuming shot
// results.
//
// Implementations may use channels or more advanced structures. The
// default is an in-memory bounded queue.
package queue

import (
	"context"
	"sync"

	"github.com/tolgaeren/swish/internal/domain/model"
	"github.com/tolgaeren/swish/pkg/metrics"
)

const defaultCapacity = 4096

// Result is the payload type flowing through the queue.
type Result = model.Result

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a result to the queue.
	// Returns false if the queue is full and the result was not enqueued.
	Enqueue(ctx context.Context, r Result) bool

	// Dequeue returns a channel that receives results as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Result

	// Len returns the current number of queued results.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new results can be enqueued and the dequeue
	// channel is closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	results  chan Result
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration
// options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.results = make(chan Result, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a result to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Result) bool {
	// The read lock keeps Close from racing the channel send.
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.results <- r:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.results))
		return true
	case <-ctx.Done():
		return false
	default:
		return false // queue is full
	}
}

// Dequeue returns a channel that receives results as they become
// available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		for r := range q.results {
			select {
			case out <- r:
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.results))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued results.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.results)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.results)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
