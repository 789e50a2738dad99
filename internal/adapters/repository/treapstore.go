// Package repository defines the ranking store interface and errors.
package repository

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tolgaeren/swish/internal/domain/types"
	"github.com/tolgaeren/swish/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: points DESC, then playerID ASC (deterministic). The BST
// comparator's "less" means ranks earlier, so in-order traversal walks
// the leaderboard from best to worst. Priorities are random, which keeps
// the tree balanced even though cumulative point totals tie heavily.

// Snapshot is an immutable view of the leaderboard published on a timer.
// Readers that tolerate slight staleness (broadcast frames, dashboards)
// use it instead of taking the tree lock.
type Snapshot struct {
	// Rank and points in O(1) for reads.
	RankByPlayer   map[string]int
	PointsByPlayer map[string]int64

	// TopCache holds the first topCacheSize rows in rank order.
	TopCache []types.Entry

	// At is the publish time.
	At time.Time
}

// treap node
type node struct {
	id     string
	points int64
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aPoints, aID) ranks earlier than (bPoints, bID).
func less(aPoints int64, aID string, bPoints int64, bID string) bool {
	if aPoints != bPoints {
		return aPoints > bPoints // higher totals rank earlier
	}
	return aID < bID // tie-breaker by id asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, points int64) *node {
	if n == nil {
		return &node{id: id, points: points, prio: rand.Uint64(), size: 1}
	}
	if less(points, id, n.points, n.id) {
		n.left = insert(n.left, id, points)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, points)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, points int64) *node {
	if n == nil {
		return nil
	}
	if points == n.points && id == n.id {
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, points)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, points)
		}
	} else if less(points, id, n.points, n.id) {
		n.left = deleteNode(n.left, id, points)
	} else {
		n.right = deleteNode(n.right, id, points)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, out *[]types.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, types.Entry{PlayerID: n.id, Points: n.points})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// collectAll appends every entry in rank order.
func collectAll(n *node, out *[]types.Entry) {
	if n == nil {
		return
	}
	collectAll(n.left, out)
	*out = append(*out, types.Entry{PlayerID: n.id, Points: n.points})
	collectAll(n.right, out)
}

// assignRanksWithTies assigns dense ranks: equal totals share a rank and
// the next distinct total takes the next consecutive number. Entries must
// already be in rank order.
func assignRanksWithTies(entries []types.Entry) {
	currentRank := 0
	for i := range entries {
		if i == 0 || entries[i].Points != entries[i-1].Points {
			currentRank++
		}
		entries[i].Rank = currentRank
	}
}

// TreapStore is the in-memory leaderboard.
type TreapStore struct {
	mu               sync.RWMutex
	root             *node
	byID             map[string]int64
	snapshotInterval time.Duration
	topCacheSize     int

	snapshot atomic.Pointer[Snapshot]

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewTreapStore constructs a treap store with configuration options and
// starts its snapshot publisher.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		snapshotInterval: 500 * time.Millisecond,
		topCacheSize:     500,
		byID:             make(map[string]int64),
	}

	for _, opt := range opts {
		opt(s)
	}

	// Publish an empty snapshot so Snapshot never returns nil.
	s.publishSnapshot()

	s.stopChan = make(chan struct{})
	s.startPeriodicSnapshots(ctx)
	s.startMetricsUpdater(ctx)

	return s
}

// startPeriodicSnapshots publishes snapshots at the configured interval.
func (s *TreapStore) startPeriodicSnapshots(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.snapshotInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.publishSnapshot()
			}
		}
	}()
}

// publishSnapshot rebuilds and publishes a new snapshot.
func (s *TreapStore) publishSnapshot() {
	start := time.Now()

	s.mu.RLock()
	all := make([]types.Entry, 0, len(s.byID))
	collectAll(s.root, &all)
	s.mu.RUnlock()

	assignRanksWithTies(all)

	rankByPlayer := make(map[string]int, len(all))
	pointsByPlayer := make(map[string]int64, len(all))
	for _, e := range all {
		rankByPlayer[e.PlayerID] = e.Rank
		pointsByPlayer[e.PlayerID] = e.Points
	}

	top := all
	if len(top) > s.topCacheSize {
		top = top[:s.topCacheSize]
	}

	s.snapshot.Store(&Snapshot{
		RankByPlayer:   rankByPlayer,
		PointsByPlayer: pointsByPlayer,
		TopCache:       top,
		At:             time.Now(),
	})

	metrics.RecordSnapshot(float64(time.Since(start).Milliseconds()))
}

// Snapshot returns the latest published snapshot.
func (s *TreapStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Close gracefully shuts down the background goroutines.
func (s *TreapStore) Close() error {
	select {
	case <-s.stopChan:
		// Already closed.
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// AddPoints implements Store.AddPoints in O(log n) expected time.
func (s *TreapStore) AddPoints(ctx context.Context, playerID string, points int) (int64, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLeaderboardUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	total, known := s.byID[playerID]
	if known {
		s.root = deleteNode(s.root, playerID, total)
	}
	total += int64(points)
	s.byID[playerID] = total
	s.root = insert(s.root, playerID, total)
	count := len(s.byID)
	s.mu.Unlock()

	metrics.RecordLeaderboardUpdate()
	if !known {
		metrics.UpdateLeaderboardPlayers(count)
	}
	return total, nil
}

// Best returns a player's cumulative points.
func (s *TreapStore) Best(ctx context.Context, playerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total, ok := s.byID[playerID]
	if !ok {
		return 0, ErrNotFound
	}
	return total, nil
}

// Rank returns the current rank row for a player. Tied totals share a
// dense rank number, matching TopN.
func (s *TreapStore) Rank(ctx context.Context, playerID string) (types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLeaderboardQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	total, ok := s.byID[playerID]
	if !ok {
		s.mu.RUnlock()
		return types.Entry{}, ErrNotFound
	}
	distinctAbove := countDistinctAbove(s.root, total)
	s.mu.RUnlock()

	return types.Entry{
		Rank:     distinctAbove + 1,
		PlayerID: playerID,
		Points:   total,
	}, nil
}

// countDistinctAbove counts the distinct totals strictly greater than
// points by walking the rank-ordered prefix of the tree.
func countDistinctAbove(n *node, points int64) int {
	distinct := 0
	prev := int64(-1)
	seen := false
	var walk func(*node) bool
	walk = func(n *node) bool {
		if n == nil {
			return true
		}
		if !walk(n.left) {
			return false
		}
		if n.points <= points {
			return false
		}
		if !seen || n.points != prev {
			distinct++
			prev = n.points
			seen = true
		}
		return walk(n.right)
	}
	walk(n)
	return distinct
}

// TopN returns the top N entries ordered by points desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLeaderboardQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	out := make([]types.Entry, 0, n)
	collectTopN(s.root, n, &out)
	s.mu.RUnlock()

	assignRanksWithTies(out)
	return out, nil
}

// Count returns the total number of players.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// startMetricsUpdater refreshes the player-count gauge in the background.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateLeaderboardPlayers(s.Count(ctx))
			}
		}
	}()
}
