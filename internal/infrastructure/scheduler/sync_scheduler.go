package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invsync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Sync Job Types
// ---------------------------------------------------------------------------

// SyncJobStatus represents the status of a scheduled sync job
type SyncJobStatus string

const (
	SyncJobStatusPending SyncJobStatus = "PENDING"
	SyncJobStatusRunning SyncJobStatus = "RUNNING"
	SyncJobStatusSuccess SyncJobStatus = "SUCCESS"
	SyncJobStatusPartial SyncJobStatus = "PARTIAL"
	SyncJobStatusFailed  SyncJobStatus = "FAILED"
)

// SyncJob is one scheduled full sync of a marketplace
type SyncJob struct {
	ID              uuid.UUID
	MarketplaceID   uuid.UUID
	MarketplaceName string
	Status          SyncJobStatus
	Error           string
	QueuedAt        time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time

	// Sync results
	SyncedCount  int
	SkippedCount int
	ErrorCount   int
}

// NewSyncJob creates a pending job for m
func NewSyncJob(m integration.Marketplace) *SyncJob {
	return &SyncJob{
		ID:              uuid.New(),
		MarketplaceID:   m.ID,
		MarketplaceName: m.Name,
		Status:          SyncJobStatusPending,
		QueuedAt:        time.Now(),
	}
}

// Start marks the job as running
func (j *SyncJob) Start() {
	now := time.Now()
	j.Status = SyncJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete records the sync result. A successful run with item errors is partial.
func (j *SyncJob) Complete(result *integration.SyncResult) {
	now := time.Now()
	j.CompletedAt = &now
	j.SyncedCount = result.SyncedCount
	j.SkippedCount = result.SkippedCount
	j.ErrorCount = len(result.Errors)

	switch {
	case !result.Success:
		j.Status = SyncJobStatusFailed
		j.Error = result.Message
	case result.HasItemErrors():
		j.Status = SyncJobStatusPartial
	default:
		j.Status = SyncJobStatusSuccess
	}
}

// Fail marks the job as failed
func (j *SyncJob) Fail(err string) {
	now := time.Now()
	j.Status = SyncJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ---------------------------------------------------------------------------
// SyncRunner Interface
// ---------------------------------------------------------------------------

// SyncRunner runs marketplace syncs for the scheduler
type SyncRunner interface {
	// ActiveMarketplaces lists the marketplaces to schedule
	ActiveMarketplaces(ctx context.Context) ([]integration.Marketplace, error)
	// Sync runs a full sync of one marketplace
	Sync(ctx context.Context, marketplaceID uuid.UUID) (*integration.SyncResult, error)
}

// ---------------------------------------------------------------------------
// SyncSchedulerConfig
// ---------------------------------------------------------------------------

// SyncSchedulerConfig holds configuration for the sync scheduler
type SyncSchedulerConfig struct {
	// Interval is the period between scheduling rounds
	Interval time.Duration
	// MaxConcurrentJobs is the number of workers
	MaxConcurrentJobs int
	// JobTimeout is the maximum time one marketplace sync can run
	JobTimeout time.Duration
	// QueueSize bounds the number of queued jobs
	QueueSize int
	// RunOnStart schedules a round immediately on Start
	RunOnStart bool
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Interval:          15 * time.Minute,
		MaxConcurrentJobs: 4,
		JobTimeout:        30 * time.Minute,
		QueueSize:         100,
		RunOnStart:        true,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.QueueSize <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// SyncScheduler
// ---------------------------------------------------------------------------

// SyncScheduler periodically syncs every active marketplace on a bounded
// worker pool. A marketplace with a queued or running job is not queued again.
type SyncScheduler struct {
	config SyncSchedulerConfig
	runner SyncRunner
	logger *zap.Logger

	jobs      chan *SyncJob
	cancel    context.CancelFunc
	workers   sync.WaitGroup
	loop      sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inFlight  map[uuid.UUID]struct{}

	// Job history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*SyncJob
	maxHistory int
}

// NewSyncScheduler creates a new sync scheduler
func NewSyncScheduler(config SyncSchedulerConfig, runner SyncRunner, logger *zap.Logger) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SyncScheduler{
		config:     config,
		runner:     runner,
		logger:     logger.Named("scheduler"),
		inFlight:   make(map[uuid.UUID]struct{}),
		history:    make([]*SyncJob, 0, 100),
		maxHistory: 100,
	}, nil
}

// Start starts the workers and the scheduling loop
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.jobs = make(chan *SyncJob, s.config.QueueSize)
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.workers.Add(1)
		go s.worker(ctx, i)
	}

	s.loop.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Sync scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("interval", s.config.Interval),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop stops scheduling, cancels running jobs and waits for the workers
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	close(s.jobs)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.loop.Wait()
		s.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler has been started
func (s *SyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *SyncScheduler) runLoop(ctx context.Context) {
	defer s.loop.Done()

	if s.config.RunOnStart {
		s.scheduleRound(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scheduleRound(ctx)
		}
	}
}

func (s *SyncScheduler) scheduleRound(ctx context.Context) {
	queued, err := s.ScheduleAll(ctx)
	if err != nil {
		s.logger.Error("Failed to schedule marketplace syncs", zap.Error(err))
		return
	}
	s.logger.Debug("Scheduled marketplace syncs", zap.Int("queued", queued))
}

// ScheduleAll queues a sync job for every active marketplace and returns
// the number of jobs queued. Marketplaces that already have a job in
// flight are skipped.
func (s *SyncScheduler) ScheduleAll(ctx context.Context) (int, error) {
	marketplaces, err := s.runner.ActiveMarketplaces(ctx)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, m := range marketplaces {
		err := s.SubmitJob(NewSyncJob(m))
		switch {
		case err == nil:
			queued++
		case errors.Is(err, ErrSyncAlreadyScheduled):
			s.logger.Debug("Marketplace sync still in flight", zap.String("marketplace_id", m.ID.String()))
		default:
			return queued, err
		}
	}
	return queued, nil
}

// SubmitJob queues a job for execution
func (s *SyncScheduler) SubmitJob(job *SyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	if _, busy := s.inFlight[job.MarketplaceID]; busy {
		return ErrSyncAlreadyScheduled
	}

	select {
	case s.jobs <- job:
		s.inFlight[job.MarketplaceID] = struct{}{}
		s.logger.Debug("Sync job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("marketplace_id", job.MarketplaceID.String()),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// worker processes jobs from the queue
func (s *SyncScheduler) worker(ctx context.Context, workerID int) {
	defer s.workers.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job
func (s *SyncScheduler) processJob(ctx context.Context, job *SyncJob, workerID int) {
	defer s.release(job.MarketplaceID)

	job.Start()
	logger := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("marketplace_id", job.MarketplaceID.String()),
	)
	logger.Info("Processing sync job", zap.String("marketplace_name", job.MarketplaceName))

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	result, err := s.runner.Sync(jobCtx, job.MarketplaceID)
	if err != nil {
		job.Fail(err.Error())
		logger.Error("Sync job failed", zap.Error(err))
		s.addToHistory(job)
		return
	}

	job.Complete(result)
	logger.Info("Sync job completed",
		zap.String("status", string(job.Status)),
		zap.Int("synced", job.SyncedCount),
		zap.Int("skipped", job.SkippedCount),
		zap.Int("errors", job.ErrorCount),
	)
	s.addToHistory(job)
}

func (s *SyncScheduler) release(marketplaceID uuid.UUID) {
	s.mu.Lock()
	delete(s.inFlight, marketplaceID)
	s.mu.Unlock()
}

// addToHistory adds a completed job to history
func (s *SyncScheduler) addToHistory(job *SyncJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*SyncJob{job}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetJobHistory returns recent job history, newest first
func (s *SyncScheduler) GetJobHistory(limit int) []*SyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*SyncJob, limit)
	copy(result, s.history[:limit])
	return result
}

// GetJobHistoryByMarketplace returns job history for one marketplace, newest
// first. A limit of zero or less returns every retained job.
func (s *SyncScheduler) GetJobHistoryByMarketplace(marketplaceID uuid.UUID, limit int) []*SyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*SyncJob, 0, limit)
	for _, job := range s.history {
		if job.MarketplaceID == marketplaceID {
			result = append(result, job)
			if len(result) == limit {
				break
			}
		}
	}
	return result
}
