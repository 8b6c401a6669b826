package installment

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnpl/backend/internal/domain/installment"
	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ModificationService handles the request/approve/apply workflow for plan
// modifications. Previews are free of side effects; only Apply rewrites the
// plan, and only for an approved modification.
type ModificationService struct {
	planRepo       installment.InstallmentPlanRepository
	modRepo        installment.PlanModificationRepository
	engine         *installment.ModificationEngine
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewModificationService creates a new ModificationService
func NewModificationService(
	planRepo installment.InstallmentPlanRepository,
	modRepo installment.PlanModificationRepository,
	engine *installment.ModificationEngine,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *ModificationService {
	return &ModificationService{
		planRepo:       planRepo,
		modRepo:        modRepo,
		engine:         engine,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for publishing events
func (s *ModificationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Request creates a pending modification after verifying it would be
// applicable to the plan as it stands.
func (s *ModificationService) Request(ctx context.Context, tenantID, planID uuid.UUID, requestedBy string, req RequestModificationRequest) (*ModificationResponse, error) {
	plan, err := s.findPlan(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}

	payload := toModificationPayload(req.Type, req.NewInstallmentCount, req.NewInterestRate, req.AdditionalProducts, req.AdditionalDownPayment)

	// Run the projection up front so an inapplicable request is rejected
	// before it enters the approval queue.
	if _, err := s.engine.Preview(plan, req.Type, payload); err != nil {
		return nil, err
	}

	mod, err := installment.NewPlanModification(tenantID, planID, req.Type, req.Reason, requestedBy, payload)
	if err != nil {
		return nil, err
	}

	if err := s.modRepo.Save(ctx, mod); err != nil {
		return nil, fmt.Errorf("failed to save modification: %w", err)
	}

	s.publishEvents(ctx, mod)

	s.logger.Info("Plan modification requested",
		zap.String("modification_id", mod.ID.String()),
		zap.String("plan_id", planID.String()),
		zap.String("type", mod.Type.String()),
		zap.String("requested_by", requestedBy),
	)

	response := ToModificationResponse(mod)
	return &response, nil
}

// Preview projects the financial impact of a modification without creating
// a record or touching the plan.
func (s *ModificationService) Preview(ctx context.Context, tenantID, planID uuid.UUID, req PreviewModificationRequest) (*installment.ModificationPreview, error) {
	plan, err := s.findPlan(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}

	payload := toModificationPayload(req.Type, req.NewInstallmentCount, req.NewInterestRate, req.AdditionalProducts, req.AdditionalDownPayment)
	return s.engine.Preview(plan, req.Type, payload)
}

// GetByID returns a modification request
func (s *ModificationService) GetByID(ctx context.Context, tenantID, modID uuid.UUID) (*ModificationResponse, error) {
	mod, err := s.findModification(ctx, tenantID, modID)
	if err != nil {
		return nil, err
	}
	response := ToModificationResponse(mod)
	return &response, nil
}

// ListByPlan returns all modifications requested against a plan
func (s *ModificationService) ListByPlan(ctx context.Context, tenantID, planID uuid.UUID, filter ModificationListFilter) ([]ModificationResponse, error) {
	mods, err := s.modRepo.FindByPlan(ctx, tenantID, planID, toDomainModificationFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to list modifications: %w", err)
	}
	return toModificationResponses(mods), nil
}

// List returns modifications for the tenant with filtering
func (s *ModificationService) List(ctx context.Context, tenantID uuid.UUID, filter ModificationListFilter) ([]ModificationResponse, error) {
	mods, err := s.modRepo.FindAllForTenant(ctx, tenantID, toDomainModificationFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to list modifications: %w", err)
	}
	return toModificationResponses(mods), nil
}

// Approve moves a pending modification to APPROVED
func (s *ModificationService) Approve(ctx context.Context, tenantID, modID uuid.UUID, approver string, req DecideModificationRequest) (*ModificationResponse, error) {
	mod, err := s.findModification(ctx, tenantID, modID)
	if err != nil {
		return nil, err
	}

	if err := mod.Approve(approver, req.Notes); err != nil {
		return nil, err
	}

	if err := s.modRepo.SaveWithLock(ctx, mod); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, mod)

	response := ToModificationResponse(mod)
	return &response, nil
}

// Reject moves a pending modification to REJECTED
func (s *ModificationService) Reject(ctx context.Context, tenantID, modID uuid.UUID, rejecter string, req DecideModificationRequest) (*ModificationResponse, error) {
	mod, err := s.findModification(ctx, tenantID, modID)
	if err != nil {
		return nil, err
	}

	if err := mod.Reject(rejecter, req.Notes); err != nil {
		return nil, err
	}

	if err := s.modRepo.SaveWithLock(ctx, mod); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, mod)

	response := ToModificationResponse(mod)
	return &response, nil
}

// Apply rewrites the plan according to an approved modification and marks
// the modification APPLIED. The plan save uses optimistic locking, so a
// concurrent payment forces the caller to retry.
func (s *ModificationService) Apply(ctx context.Context, tenantID, modID uuid.UUID) (*PlanResponse, error) {
	mod, err := s.findModification(ctx, tenantID, modID)
	if err != nil {
		return nil, err
	}

	plan, err := s.findPlan(ctx, tenantID, mod.PlanID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Apply(plan, mod); err != nil {
		return nil, err
	}

	if err := s.planRepo.SaveWithLock(ctx, plan); err != nil {
		return nil, err
	}

	if err := mod.MarkApplied(); err != nil {
		return nil, err
	}
	if err := s.modRepo.SaveWithLock(ctx, mod); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, plan)
	s.publishEvents(ctx, mod)

	s.logger.Info("Plan modification applied",
		zap.String("modification_id", mod.ID.String()),
		zap.String("plan_id", plan.ID.String()),
		zap.String("type", mod.Type.String()),
		zap.Int("installments", plan.NumberOfInstallments),
	)

	response := ToPlanResponse(plan)
	return &response, nil
}

func (s *ModificationService) findPlan(ctx context.Context, tenantID, planID uuid.UUID) (*installment.InstallmentPlan, error) {
	plan, err := s.planRepo.FindByIDForTenant(ctx, tenantID, planID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

func (s *ModificationService) findModification(ctx context.Context, tenantID, modID uuid.UUID) (*installment.PlanModification, error) {
	mod, err := s.modRepo.FindByIDForTenant(ctx, tenantID, modID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get modification: %w", err)
	}
	return mod, nil
}

func (s *ModificationService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
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

func toModificationResponses(mods []installment.PlanModification) []ModificationResponse {
	responses := make([]ModificationResponse, 0, len(mods))
	for i := range mods {
		responses = append(responses, ToModificationResponse(&mods[i]))
	}
	return responses
}

func toDomainModificationFilter(filter ModificationListFilter) installment.ModificationFilter {
	domainFilter := installment.ModificationFilter{
		Filter: shared.DefaultFilter(),
		PlanID: filter.PlanID,
		Type:   filter.Type,
		Status: filter.Status,
	}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	return domainFilter
}
