package installment

import (
	"context"
	"time"

	"github.com/bnpl/backend/internal/domain/installment"
	"github.com/bnpl/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OverdueSweepService flips pending schedule lines past their due date to
// OVERDUE across all active plans. It is driven by the scheduler but can be
// invoked on demand.
type OverdueSweepService struct {
	planRepo       installment.InstallmentPlanRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOverdueSweepService creates a new OverdueSweepService
func NewOverdueSweepService(
	planRepo installment.InstallmentPlanRepository,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *OverdueSweepService {
	return &OverdueSweepService{
		planRepo:       planRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for publishing events
func (s *OverdueSweepService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// OverdueSweepStats contains statistics about one sweep run
type OverdueSweepStats struct {
	PlansScanned int       `json:"plans_scanned"`
	PlansUpdated int       `json:"plans_updated"`
	LinesMarked  int       `json:"lines_marked"`
	Failures     int       `json:"failures"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// SweepOverdue scans active plans with lines due before now and marks them
// overdue. A failure on one plan is logged and does not stop the sweep.
func (s *OverdueSweepService) SweepOverdue(ctx context.Context, now time.Time) (*OverdueSweepStats, error) {
	stats := &OverdueSweepStats{
		ProcessedAt: time.Now(),
	}

	plans, err := s.planRepo.FindActiveWithDueBefore(ctx, now)
	if err != nil {
		s.logger.Error("Failed to find plans for overdue sweep", zap.Error(err))
		return nil, err
	}

	stats.PlansScanned = len(plans)
	if stats.PlansScanned == 0 {
		s.logger.Debug("No plans with overdue candidates found")
		return stats, nil
	}

	for i := range plans {
		plan := &plans[i]
		marked := plan.MarkOverdue(now)
		if marked == 0 {
			continue
		}

		if err := s.planRepo.SaveWithLock(ctx, plan); err != nil {
			s.logger.Error("Failed to save plan during overdue sweep",
				zap.String("plan_id", plan.ID.String()),
				zap.String("plan_number", plan.PlanNumber),
				zap.Error(err),
			)
			stats.Failures++
			continue
		}

		s.publishEvents(ctx, plan)
		stats.PlansUpdated++
		stats.LinesMarked += marked
	}

	s.logger.Info("Completed overdue sweep",
		zap.Int("scanned", stats.PlansScanned),
		zap.Int("updated", stats.PlansUpdated),
		zap.Int("lines_marked", stats.LinesMarked),
		zap.Int("failures", stats.Failures),
	)

	return stats, nil
}

func (s *OverdueSweepService) publishEvents(ctx context.Context, plan *installment.InstallmentPlan) {
	if s.eventPublisher == nil {
		return
	}
	events := plan.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish sweep events",
			zap.String("plan_id", plan.ID.String()),
			zap.Error(err),
		)
	}
	plan.ClearDomainEvents()
}
