// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	eventqueue "github.com/medrift/medrift/internal/adapters/mq/queue"
	workerpool "github.com/medrift/medrift/internal/adapters/mq/worker"
	"github.com/medrift/medrift/internal/adapters/persistence"
	repository "github.com/medrift/medrift/internal/adapters/repository"
	"github.com/medrift/medrift/internal/domain/aggregate"
	"github.com/medrift/medrift/internal/domain/model"
	"github.com/medrift/medrift/internal/domain/scoring"
	"github.com/medrift/medrift/pkg/logger"
	"github.com/medrift/medrift/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultWorkerCount     = 4
	defaultQueueSize       = 10_000
	defaultWindowSeconds   = 300
	defaultAdmitTimeout    = 50 * time.Millisecond
	defaultPersistInterval = 15 * time.Second
)

// Service wires the admission gate, worker pool, windowed store,
// aggregator, and persistence manager into one event-scoring pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	gate       eventqueue.Queue
	scorer     scoring.Scorer
	workerPool *workerpool.Pool
	persister  *persistence.Manager

	// Configuration
	workerCount     int
	queueSize       int
	windowSeconds   int64
	admitTimeout    time.Duration
	statePath       string
	persistInterval time.Duration
	featureWeights  []float64
	scoreBias       float64
	scoringMin      time.Duration
	scoringMax      time.Duration
	now             func() int64

	// State
	started       bool
	persistCancel context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the admission queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWindowSeconds sets the per-user sliding window span.
func WithWindowSeconds(seconds int64) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.windowSeconds = seconds
		}
	}
}

// WithAdmitTimeout sets how long admission waits for a queue slot.
func WithAdmitTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.admitTimeout = timeout
		}
	}
}

// WithStateFile sets the snapshot path; empty disables persistence.
func WithStateFile(path string) Option {
	return func(s *Service) {
		s.statePath = path
	}
}

// WithPersistInterval sets the periodic snapshot save interval.
func WithPersistInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.persistInterval = interval
		}
	}
}

// WithScorer injects an external scorer implementation.
func WithScorer(scorer scoring.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithFeatureWeights configures the default in-memory scorer.
func WithFeatureWeights(weights []float64) Option {
	return func(s *Service) {
		if len(weights) > 0 {
			s.featureWeights = weights
		}
	}
}

// WithScoreBias sets the default scorer's additive bias.
func WithScoreBias(bias float64) Option {
	return func(s *Service) {
		s.scoreBias = bias
	}
}

// WithScoringLatencyRange sets the simulated scoring latency range.
func WithScoringLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Service) {
		if minLatency > 0 && maxLatency >= minLatency {
			s.scoringMin = minLatency
			s.scoringMax = maxLatency
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the wall clock used for reference timestamps.
func WithClock(now func() int64) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     defaultWorkerCount,
		queueSize:       defaultQueueSize,
		windowSeconds:   defaultWindowSeconds,
		admitTimeout:    defaultAdmitTimeout,
		persistInterval: defaultPersistInterval,
		now:             func() int64 { return time.Now().Unix() },
		logger:          nil, // resolved at Start
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components. Persisted state,
// if any, is restored before the first worker runs.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting scoring service...")

	s.store = repository.NewMemStore(ctx,
		repository.WithWindowSeconds(s.windowSeconds),
		repository.WithClock(s.now),
	)

	s.persister = persistence.NewManager(s.store, s.statePath,
		persistence.WithInterval(s.persistInterval),
	)
	s.persister.Load(ctx)

	s.gate = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithAdmitTimeout(s.admitTimeout),
	)

	if s.scorer == nil {
		s.scorer = scoring.NewInMemoryScorer(
			scoring.WithWeights(s.featureWeights),
			scoring.WithBias(s.scoreBias),
			scoring.WithLatencyRange(s.scoringMin, s.scoringMax),
		)
	}

	s.workerPool = workerpool.NewPool(s.workerCount, s.gate, s.scorer, s.store)
	s.workerPool.Start(ctx)

	persistCtx, cancel := context.WithCancel(context.Background())
	s.persistCancel = cancel
	go s.persister.Run(persistCtx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int64("windowSeconds", s.windowSeconds),
		logger.String("stateFile", s.statePath),
	)

	return nil
}

// Stop gracefully shuts down the service: stop intake, stop workers,
// then take one final best-effort snapshot once nothing mutates the
// store anymore.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring service...")

	if q, ok := s.gate.(*eventqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	if s.persistCancel != nil {
		s.persistCancel()
	}
	if err := s.persister.Save(ctx); err != nil {
		s.logger.Error(ctx, "final snapshot failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

// Now returns the current reference timestamp in unix seconds.
func (s *Service) Now() int64 {
	return s.now()
}

// Admit offers a batch of events to the admission gate, event by event.
// The first rejection aborts the rest of the batch; accepted reports how
// many events were queued before that. The ingest counters always
// reflect the accepted portion, even on failure.
func (s *Service) Admit(ctx context.Context, events []model.Event) (accepted int, err error) {
	for _, e := range events {
		if !s.gate.Enqueue(ctx, e) {
			s.store.AddQueueRejections(ctx, 1)
			err = fmt.Errorf("admitting event %d of %d: %w", accepted+1, len(events), eventqueue.ErrCapacityExceeded)
			break
		}
		accepted++
	}

	s.store.RecordIngest(ctx, accepted)
	metrics.RecordIngestRequest()
	metrics.RecordEventsIngested(accepted)

	return accepted, err
}

// UserWindow returns the user's trimmed window as of referenceTS.
// Reading evicts: stale points are dropped before the copy is returned.
func (s *Service) UserWindow(ctx context.Context, userID string, referenceTS int64) []model.ScoredPoint {
	cutoff := referenceTS - s.store.WindowSeconds()
	return s.store.Trim(ctx, userID, cutoff)
}

// UserMedian returns the median score of the user's in-window points.
// ok is false when the user has no data in the window.
func (s *Service) UserMedian(ctx context.Context, userID string, referenceTS int64) (median float64, ok bool) {
	window := s.UserWindow(ctx, userID, referenceTS)
	if len(window) == 0 {
		return 0, false
	}

	scores := make([]float64, len(window))
	for i, p := range window {
		scores[i] = p.Score
	}
	return aggregate.Median(scores)
}

// MedianOfMedians computes the cross-user aggregate at referenceTS.
func (s *Service) MedianOfMedians(ctx context.Context, referenceTS int64) (median float64, ok bool) {
	return aggregate.MedianOfMedians(ctx, s.store, referenceTS)
}

// Stats returns the pipeline counters plus the global aggregate, all
// evaluated against one reference timestamp.
func (s *Service) Stats(ctx context.Context, referenceTS int64) model.Stats {
	c := s.store.Counters(ctx)

	stats := model.Stats{
		IngestRequestsTotal:  c.IngestRequestsTotal,
		EventsReceivedTotal:  c.EventsReceivedTotal,
		LastIngestTime:       c.LastIngestTime,
		InferenceCallsTotal:  c.InferenceCallsTotal,
		QueueRejectionsTotal: c.QueueRejectionsTotal,
	}

	if m, ok := s.MedianOfMedians(ctx, referenceTS); ok {
		stats.MedianOfMedians = &m
	}

	return stats
}

// QueueLen reports the current admission queue depth.
func (s *Service) QueueLen(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return 0
	}
	return s.gate.Len(ctx)
}
