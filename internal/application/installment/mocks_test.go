package installment

import (
	"context"
	"time"

	"github.com/bnpl/backend/internal/domain/installment"
	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockPlanRepository is a mock implementation of InstallmentPlanRepository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*installment.InstallmentPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.InstallmentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*installment.InstallmentPlan, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.InstallmentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindByPlanNumber(ctx context.Context, tenantID uuid.UUID, planNumber string) (*installment.InstallmentPlan, error) {
	args := m.Called(ctx, tenantID, planNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.InstallmentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) (*installment.InstallmentPlan, error) {
	args := m.Called(ctx, tenantID, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.InstallmentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter installment.PlanFilter) ([]installment.InstallmentPlan, error) {
	args := m.Called(ctx, tenantID, customerID, filter)
	return args.Get(0).([]installment.InstallmentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter installment.PlanFilter) ([]installment.InstallmentPlan, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]installment.InstallmentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindActiveWithDueBefore(ctx context.Context, now time.Time) ([]installment.InstallmentPlan, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]installment.InstallmentPlan), args.Error(1)
}

func (m *MockPlanRepository) Save(ctx context.Context, plan *installment.InstallmentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) SaveWithLock(ctx context.Context, plan *installment.InstallmentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter installment.PlanFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlanRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status installment.PlanStatus) (int64, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlanRepository) TotalsForTenant(ctx context.Context, tenantID uuid.UUID) (installment.PlanTotals, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(installment.PlanTotals), args.Error(1)
}

func (m *MockPlanRepository) GeneratePlanNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockModificationRepository is a mock implementation of PlanModificationRepository
type MockModificationRepository struct {
	mock.Mock
}

func (m *MockModificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*installment.PlanModification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.PlanModification), args.Error(1)
}

func (m *MockModificationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*installment.PlanModification, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.PlanModification), args.Error(1)
}

func (m *MockModificationRepository) FindByPlan(ctx context.Context, tenantID, planID uuid.UUID, filter installment.ModificationFilter) ([]installment.PlanModification, error) {
	args := m.Called(ctx, tenantID, planID, filter)
	return args.Get(0).([]installment.PlanModification), args.Error(1)
}

func (m *MockModificationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter installment.ModificationFilter) ([]installment.PlanModification, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]installment.PlanModification), args.Error(1)
}

func (m *MockModificationRepository) Save(ctx context.Context, mod *installment.PlanModification) error {
	args := m.Called(ctx, mod)
	return args.Error(0)
}

func (m *MockModificationRepository) SaveWithLock(ctx context.Context, mod *installment.PlanModification) error {
	args := m.Called(ctx, mod)
	return args.Error(0)
}

func (m *MockModificationRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter installment.ModificationFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
	published []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	m.published = append(m.published, events...)
	return args.Error(0)
}

// PublishedEventTypes returns the types of all events seen so far
func (m *MockEventPublisher) PublishedEventTypes() []string {
	types := make([]string, 0, len(m.published))
	for _, e := range m.published {
		types = append(types, e.EventType())
	}
	return types
}
