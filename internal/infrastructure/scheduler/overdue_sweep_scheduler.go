package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/bnpl/backend/internal/application/installment"
	"go.uber.org/zap"
)

// OverdueSweepScheduler periodically marks past-due installment lines across all tenants
type OverdueSweepScheduler struct {
	service   *installment.OverdueSweepService
	logger    *zap.Logger
	config    OverdueSweepSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// OverdueSweepSchedulerConfig holds configuration for the overdue sweep scheduler
type OverdueSweepSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// SweepInterval is the time between sweep runs
	SweepInterval time.Duration

	// SweepTimeout is the maximum time for a single sweep run
	SweepTimeout time.Duration
}

// DefaultOverdueSweepSchedulerConfig returns default configuration
func DefaultOverdueSweepSchedulerConfig() OverdueSweepSchedulerConfig {
	return OverdueSweepSchedulerConfig{
		Enabled:       true,
		SweepInterval: 1 * time.Hour,
		SweepTimeout:  5 * time.Minute,
	}
}

// NewOverdueSweepScheduler creates a new overdue sweep scheduler
func NewOverdueSweepScheduler(
	service *installment.OverdueSweepService,
	logger *zap.Logger,
	config OverdueSweepSchedulerConfig,
) *OverdueSweepScheduler {
	return &OverdueSweepScheduler{
		service: service,
		logger:  logger,
		config:  config,
	}
}

// Start starts the scheduler
func (s *OverdueSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Overdue sweep scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runSweepLoop(ctx)

	s.logger.Info("Overdue sweep scheduler started",
		zap.Duration("sweep_interval", s.config.SweepInterval),
		zap.Duration("sweep_timeout", s.config.SweepTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *OverdueSweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Overdue sweep scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Overdue sweep scheduler stop timed out")
		return ctx.Err()
	}
}

// runSweepLoop runs a sweep once per interval
func (s *OverdueSweepScheduler) runSweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	// Run one sweep immediately on startup so overdue state does not
	// wait a full interval after a restart
	s.executeSweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Overdue sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

// executeSweep runs a single sweep with a timeout
func (s *OverdueSweepScheduler) executeSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	startTime := time.Now()
	stats, err := s.service.SweepOverdue(sweepCtx, startTime)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Overdue sweep failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Overdue sweep completed",
		zap.Duration("duration", duration),
		zap.Int("plans_scanned", stats.PlansScanned),
		zap.Int("plans_updated", stats.PlansUpdated),
		zap.Int("lines_marked", stats.LinesMarked),
		zap.Int("failures", stats.Failures),
	)
}

// TriggerImmediateSweep triggers a sweep run outside the regular interval
func (s *OverdueSweepScheduler) TriggerImmediateSweep(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate overdue sweep")

	go func() {
		defer s.wg.Done()
		s.executeSweep(ctx)
	}()

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *OverdueSweepScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
