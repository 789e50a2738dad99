// Package dedupe defines the interface for result idempotency tracking.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen result IDs to ensure at-most-once recording.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	// This is the ONLY method for deduplication - thread-safe and atomic.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen list, allowing it to be retried.
	// This should only be used when a result was marked as seen but failed
	// to be processed (e.g., queue backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// node is a single entry in the recency list.
type node struct {
	id   string
	next *node
}

// reset clears the node state for reuse
func (n *node) reset() {
	n.id = ""
	n.next = nil
}

// inMemoryDeduper implements Deduper with an in-memory map plus a recency
// list for bounded eviction.
// For bounded mode (maxSize > 0): oldest IDs are evicted first and nodes
// come from a sync.Pool.
// For unbounded mode (maxSize <= 0): a plain map with no eviction.
type inMemoryDeduper struct {
	mu       sync.RWMutex
	seen     map[string]*node // id -> node pointer for bounded mode, nil for unbounded
	head     *node            // head of the recency list (most recently added)
	maxSize  int              // maximum number of IDs kept (0 or negative = unbounded)
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 65_536, // default max size
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*node)

	if d.maxSize > 0 {
		d.nodePool = sync.Pool{
			New: func() interface{} {
				return &node{}
			},
		}
	}

	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
// Returns true if id was already seen, false if it was newly recorded.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 {
		// Bounded mode: evict before adding so the map never exceeds maxSize.
		if len(d.seen) >= d.maxSize {
			d.evictOldest()
		}

		n := d.nodePool.Get().(*node)
		n.id = id
		n.next = d.head

		d.head = n
		d.seen[id] = n
	} else {
		d.seen[id] = nil
	}
	d.size.Add(1)
	return false
}

// Unrecord removes an ID from the seen list, allowing it to be retried.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, exists := d.seen[id]
	if !exists {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)

	if d.maxSize <= 0 {
		return
	}

	// Bounded mode: unlink the node from the recency list.
	if d.head == n {
		d.head = n.next
	} else {
		current := d.head
		for current != nil && current.next != n {
			current = current.next
		}
		if current != nil {
			current.next = n.next
		}
	}
	n.reset()
	d.nodePool.Put(n)
}

// evictOldest removes the least recently added entry (tail of the list).
// Must be called with d.mu.Lock() held.
func (d *inMemoryDeduper) evictOldest() {
	if len(d.seen) == 0 || d.head == nil {
		return
	}

	var prev *node
	current := d.head

	if current.next == nil {
		delete(d.seen, current.id)
		current.reset()
		d.nodePool.Put(current)
		d.head = nil
		d.size.Add(-1)
		return
	}

	// Walk to the tail.
	for current.next != nil {
		prev = current
		current = current.next
	}

	prev.next = nil
	delete(d.seen, current.id)
	current.reset()
	d.nodePool.Put(current)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
