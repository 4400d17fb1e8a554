package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Refresher is implemented by the service layer. Declared here so the
// scheduler can be tested without a real service.
type Refresher interface {
	RefreshAll(ctx context.Context)
}

// Scheduler runs the periodic cache refresh so the upcoming issue's images
// are already cached before the first reader asks for them.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	refresher  Refresher
	interval   time.Duration
	jobTimeout time.Duration
	logger     *zap.Logger
}

// New creates a Scheduler that invokes refresher every interval. jobTimeout
// bounds a single refresh run.
func New(refresher Refresher, interval, jobTimeout time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		refresher:  refresher,
		interval:   interval,
		jobTimeout: jobTimeout,
		logger:     logger,
	}
}

// Start schedules the refresh job and starts the scheduler in the
// background. The first run fires immediately so a cold deploy does not
// wait a full interval for its cache.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("refresh interval not configured; scheduler disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).StartImmediately().Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("refresh scheduler started", zap.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) runOnce() {
	ctx := context.Background()
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	s.refresher.RefreshAll(ctx)
	s.logger.Info("refresh run completed", zap.Duration("elapsed", time.Since(start)))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
