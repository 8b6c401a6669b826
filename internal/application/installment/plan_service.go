package installment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnpl/backend/internal/domain/installment"
	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/bnpl/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlanService handles installment plan lifecycle use cases
type PlanService struct {
	planRepo       installment.InstallmentPlanRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPlanService creates a new PlanService
func NewPlanService(
	planRepo installment.InstallmentPlanRepository,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *PlanService {
	return &PlanService{
		planRepo:       planRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for publishing events
// This is useful when the event bus is not available at construction time
func (s *PlanService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreatePlan finances a sale: validates the request, generates the schedule
// and persists the new plan.
func (s *PlanService) CreatePlan(ctx context.Context, tenantID uuid.UUID, req CreatePlanRequest) (*PlanResponse, error) {
	existing, err := s.planRepo.FindBySale(ctx, tenantID, req.SaleID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check sale: %w", err)
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Sale is already financed by an installment plan")
	}

	planNumber, err := s.planRepo.GeneratePlanNumber(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan number: %w", err)
	}

	startDate := time.Now()
	if req.StartDate != nil {
		startDate = *req.StartDate
	}

	plan, err := installment.NewInstallmentPlan(
		tenantID,
		planNumber,
		req.SaleID,
		req.CustomerID,
		toProductLines(req.Products),
		req.TotalPrice,
		req.DownPayment,
		req.NumberOfInstallments,
		req.InterestRate,
		startDate,
	)
	if err != nil {
		return nil, err
	}

	if err := s.planRepo.Save(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	s.publishEvents(ctx, plan)

	s.logger.Info("Installment plan created",
		zap.String("plan_id", plan.ID.String()),
		zap.String("plan_number", plan.PlanNumber),
		zap.String("customer_id", plan.CustomerID.String()),
		zap.Int("installments", plan.NumberOfInstallments),
	)

	response := ToPlanResponse(plan)
	return &response, nil
}

// GetByID returns a plan with its full schedule
func (s *PlanService) GetByID(ctx context.Context, tenantID, planID uuid.UUID) (*PlanResponse, error) {
	plan, err := s.findPlan(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}
	response := ToPlanResponse(plan)
	return &response, nil
}

// GetByPlanNumber returns a plan looked up by its business number
func (s *PlanService) GetByPlanNumber(ctx context.Context, tenantID uuid.UUID, planNumber string) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByPlanNumber(ctx, tenantID, planNumber)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	response := ToPlanResponse(plan)
	return &response, nil
}

// GetBySale returns the plan financing the given sale
func (s *PlanService) GetBySale(ctx context.Context, tenantID, saleID uuid.UUID) (*PlanResponse, error) {
	plan, err := s.planRepo.FindBySale(ctx, tenantID, saleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	response := ToPlanResponse(plan)
	return &response, nil
}

// List returns a paginated plan list for the tenant
func (s *PlanService) List(ctx context.Context, tenantID uuid.UUID, filter PlanListFilter) (*shared.Paginated[PlanListItemResponse], error) {
	domainFilter := toDomainPlanFilter(filter)

	plans, err := s.planRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	total, err := s.planRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count plans: %w", err)
	}

	items := make([]PlanListItemResponse, 0, len(plans))
	for i := range plans {
		items = append(items, ToPlanListItemResponse(&plans[i]))
	}

	result := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.Limit())
	return &result, nil
}

// RecordPayment applies a payment to one schedule line under optimistic
// locking. A CONCURRENCY_CONFLICT surfaces when another process moved the
// plan first.
func (s *PlanService) RecordPayment(ctx context.Context, tenantID, planID uuid.UUID, req RecordPaymentRequest) (*PlanResponse, error) {
	plan, err := s.findPlan(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}

	paidAt := time.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	if err := plan.RecordPayment(req.InstallmentIndex, req.Amount, paidAt); err != nil {
		return nil, err
	}

	if err := s.planRepo.SaveWithLock(ctx, plan); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, plan)

	s.logger.Info("Payment recorded",
		zap.String("plan_id", plan.ID.String()),
		zap.Int("installment_index", req.InstallmentIndex),
		zap.String("amount", req.Amount.String()),
		zap.String("status", plan.Status.String()),
	)

	response := ToPlanResponse(plan)
	return &response, nil
}

// Cancel transitions an active plan to CANCELLED
func (s *PlanService) Cancel(ctx context.Context, tenantID, planID uuid.UUID) (*PlanResponse, error) {
	return s.transition(ctx, tenantID, planID, func(p *installment.InstallmentPlan) error {
		return p.Cancel()
	})
}

// MarkDefaulted transitions an active plan to DEFAULTED
func (s *PlanService) MarkDefaulted(ctx context.Context, tenantID, planID uuid.UUID) (*PlanResponse, error) {
	return s.transition(ctx, tenantID, planID, func(p *installment.InstallmentPlan) error {
		return p.MarkDefaulted()
	})
}

// GetPortfolioSummary aggregates the tenant's installment book
func (s *PlanService) GetPortfolioSummary(ctx context.Context, tenantID uuid.UUID) (*PortfolioSummary, error) {
	summary := &PortfolioSummary{}

	counts := []struct {
		status installment.PlanStatus
		target *int64
	}{
		{installment.PlanStatusActive, &summary.ActivePlans},
		{installment.PlanStatusCompleted, &summary.CompletedPlans},
		{installment.PlanStatusDefaulted, &summary.DefaultedPlans},
		{installment.PlanStatusCancelled, &summary.CancelledPlans},
	}
	for _, c := range counts {
		n, err := s.planRepo.CountByStatus(ctx, tenantID, c.status)
		if err != nil {
			return nil, fmt.Errorf("failed to count plans: %w", err)
		}
		*c.target = n
	}

	totals, err := s.planRepo.TotalsForTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum plan totals: %w", err)
	}
	summary.TotalFinanced = valueobject.NewMoneyUSD(totals.TotalFinanced)
	summary.TotalCollected = valueobject.NewMoneyUSD(totals.TotalCollected)
	summary.TotalOutstanding = valueobject.NewMoneyUSD(totals.TotalOutstanding)

	return summary, nil
}

// transition loads the plan, applies fn and saves under optimistic locking
func (s *PlanService) transition(ctx context.Context, tenantID, planID uuid.UUID, fn func(*installment.InstallmentPlan) error) (*PlanResponse, error) {
	plan, err := s.findPlan(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}

	if err := fn(plan); err != nil {
		return nil, err
	}

	if err := s.planRepo.SaveWithLock(ctx, plan); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, plan)

	response := ToPlanResponse(plan)
	return &response, nil
}

func (s *PlanService) findPlan(ctx context.Context, tenantID, planID uuid.UUID) (*installment.InstallmentPlan, error) {
	plan, err := s.planRepo.FindByIDForTenant(ctx, tenantID, planID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

func (s *PlanService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
	aggregate.ClearDomainEvents()
}

func toDomainPlanFilter(filter PlanListFilter) installment.PlanFilter {
	domainFilter := installment.PlanFilter{
		Filter:     shared.DefaultFilter(),
		CustomerID: filter.CustomerID,
		SaleID:     filter.SaleID,
		Status:     filter.Status,
		FromDate:   filter.StartDate,
		ToDate:     filter.EndDate,
		Overdue:    filter.Overdue,
	}
	domainFilter.Search = filter.Search
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	return domainFilter
}
