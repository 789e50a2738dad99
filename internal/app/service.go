package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	resultqueue "github.com/tolgaeren/swish/internal/adapters/mq/queue"
	workerpool "github.com/tolgaeren/swish/internal/adapters/mq/worker"
	repository "github.com/tolgaeren/swish/internal/adapters/repository"
	"github.com/tolgaeren/swish/internal/domain/dedupe"
	"github.com/tolgaeren/swish/internal/domain/model"
	"github.com/tolgaeren/swish/internal/domain/types"
	"github.com/tolgaeren/swish/pkg/logger"
	"github.com/tolgaeren/swish/pkg/metrics"
)

// gaugeInterval paces the background queue and session gauge refresh.
const gaugeInterval = 5 * time.Second

// Service owns the shared game infrastructure: the leaderboard store,
// the recorder pipeline, and the registry of live sessions.
type Service struct {
	mu sync.RWMutex

	leaderboard repository.Store
	deduper     dedupe.Deduper
	queue       *resultqueue.InMemoryQueue
	pool        *workerpool.Pool

	sessions map[string]*Session

	workerCount      int
	queueSize        int
	dedupeSize       int
	snapshotInterval time.Duration
	sessionOpts      []SessionOption

	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recorder workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the recorder queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the result deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSnapshotInterval sets how often the leaderboard snapshot is
// rebuilt.
func WithSnapshotInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.snapshotInterval = d
		}
	}
}

// WithSessionOptions sets options applied to every session the service
// starts, ahead of any per-session options.
func WithSessionOptions(opts ...SessionOption) Option {
	return func(s *Service) {
		s.sessionOpts = append(s.sessionOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New constructs a Service with default configuration. Call Start before
// use.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   4096,
		dedupeSize:  65_536,
		sessions:    make(map[string]*Session),
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get().Named("service")
	}

	var storeOpts []repository.Option
	if s.snapshotInterval > 0 {
		storeOpts = append(storeOpts, repository.WithSnapshotInterval(s.snapshotInterval))
	}
	s.leaderboard = repository.NewTreapStore(ctx, storeOpts...)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = resultqueue.NewInMemoryQueue(resultqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.leaderboard, s.deduper)
	s.pool.Start(ctx)

	s.wg.Add(1)
	go s.updateGauges()

	s.started = true
	s.log.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Stop gracefully shuts down the service: sessions first, then the
// recorder pipeline, then the store. The context bounds the recorder
// drain.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	closing := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		closing = append(closing, sess)
	}
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	s.log.Info(ctx, "stopping service", logger.Int("sessions", len(closing)))

	for _, sess := range closing {
		sess.Close()
	}
	metrics.UpdateActiveSessions(0)

	if err := s.pool.Shutdown(ctx); err != nil {
		s.log.Warn(ctx, "recorder pool shutdown", logger.Err(err))
	}
	if closer, ok := s.leaderboard.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.log.Warn(ctx, "leaderboard close", logger.Err(err))
		}
	}

	close(s.stopCh)
	s.wg.Wait()
	s.log.Info(ctx, "service stopped")
}

// StartSession registers a new live session for playerID and starts its
// frame loop. Per-call options typically attach the connection's
// snapshot and event sinks.
func (s *Service) StartSession(ctx context.Context, playerID string, opts ...SessionOption) (*Session, error) {
	if playerID == "" {
		return nil, ErrInvalidPlayer
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil, ErrNotStarted
	}

	all := make([]SessionOption, 0, len(s.sessionOpts)+len(opts))
	all = append(all, s.sessionOpts...)
	all = append(all, opts...)

	sess := NewSession(uuid.NewString(), playerID, s, all...)
	s.sessions[sess.ID()] = sess

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sess.Run(ctx)
	}()

	metrics.RecordSessionStarted()
	metrics.UpdateActiveSessions(len(s.sessions))
	s.log.Info(ctx, "session started",
		logger.String("session_id", sess.ID()),
		logger.String("player_id", playerID),
	)
	return sess, nil
}

// CloseSession stops a session and removes it from the registry.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	remaining := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.Close()

	metrics.RecordSessionClosed()
	metrics.UpdateActiveSessions(remaining)
	s.log.Info(ctx, "session closed", logger.String("session_id", id))
	return nil
}

// RecordResult accepts a finished shot for asynchronous recording. A
// duplicate result ID is acknowledged without being re-applied. A full
// queue drops the result, un-records its ID so a retry can land, and
// reports it unaccepted.
func (s *Service) RecordResult(ctx context.Context, r model.Result) (accepted, duplicate bool) {
	if s.deduper.SeenAndRecord(ctx, r.ResultID) {
		metrics.RecordResultDuplicate()
		return true, true
	}
	if !s.queue.Enqueue(ctx, r) {
		s.deduper.Unrecord(ctx, r.ResultID)
		metrics.RecordResultDropped()
		s.log.Warn(ctx, "result dropped, queue full", logger.String("result_id", r.ResultID))
		return false, false
	}
	return true, false
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	return s.leaderboard.TopN(ctx, n)
}

// Rank returns the rank row for a player.
func (s *Service) Rank(ctx context.Context, playerID string) (types.Entry, error) {
	return s.leaderboard.Rank(ctx, playerID)
}

// ScoreboardTop returns the cached top entries from the latest store
// snapshot. It bypasses the store lock, so the play transport can call
// it at broadcast rate.
func (s *Service) ScoreboardTop(n int) []types.Entry {
	if n < 1 {
		return nil
	}
	snap := s.leaderboard.Snapshot()
	if snap == nil {
		return nil
	}
	top := snap.TopCache
	if n < len(top) {
		top = top[:n]
	}
	return top
}

// Stats returns service statistics for the monitoring endpoint.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":      s.started,
		"worker_count": s.workerCount,
		"queue_size":   s.queueSize,
		"dedupe_size":  s.dedupeSize,
	}
	if s.started {
		stats["sessions"] = len(s.sessions)
		stats["queue_length"] = s.queue.Len(ctx)
		stats["players"] = s.leaderboard.Count(ctx)
		stats["dedupe_entries"] = s.deduper.Size()
	}
	return stats
}

func (s *Service) updateGauges() {
	defer s.wg.Done()
	ticker := time.NewTicker(gaugeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.mu.RLock()
			sessions := len(s.sessions)
			q := s.queue
			s.mu.RUnlock()

			metrics.UpdateActiveSessions(sessions)
			if q != nil {
				metrics.UpdateQueueSize(q.Len(context.Background()))
			}
		}
	}
}
