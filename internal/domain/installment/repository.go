package installment

import (
	"context"
	"time"

	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanFilter defines filtering options for plan queries
type PlanFilter struct {
	shared.Filter
	CustomerID *uuid.UUID  // Filter by customer
	SaleID     *uuid.UUID  // Filter by originating sale
	Status     *PlanStatus // Filter by lifecycle status
	FromDate   *time.Time  // Filter by start date range start
	ToDate     *time.Time  // Filter by start date range end
	Overdue    *bool       // Filter only plans carrying overdue lines
}

// PlanTotals aggregates the money columns across a tenant's plans
type PlanTotals struct {
	TotalFinanced    decimal.Decimal
	TotalCollected   decimal.Decimal
	TotalOutstanding decimal.Decimal
}

// InstallmentPlanRepository defines the interface for plan persistence
type InstallmentPlanRepository interface {
	// FindByID finds a plan by ID
	FindByID(ctx context.Context, id uuid.UUID) (*InstallmentPlan, error)

	// FindByIDForTenant finds a plan by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*InstallmentPlan, error)

	// FindByPlanNumber finds a plan by plan number for a tenant
	FindByPlanNumber(ctx context.Context, tenantID uuid.UUID, planNumber string) (*InstallmentPlan, error)

	// FindBySale finds the plan financing a given sale
	FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) (*InstallmentPlan, error)

	// FindByCustomer finds plans for a customer
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter PlanFilter) ([]InstallmentPlan, error)

	// FindAllForTenant finds all plans for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PlanFilter) ([]InstallmentPlan, error)

	// FindActiveWithDueBefore finds active plans holding at least one pending
	// line due before the given instant, for the overdue sweep
	FindActiveWithDueBefore(ctx context.Context, now time.Time) ([]InstallmentPlan, error)

	// Save creates or updates a plan
	Save(ctx context.Context, plan *InstallmentPlan) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, plan *InstallmentPlan) error

	// CountForTenant counts plans for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter PlanFilter) (int64, error)

	// CountByStatus counts plans by status for a tenant
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status PlanStatus) (int64, error)

	// TotalsForTenant sums financed, collected and outstanding amounts
	// across all plans of a tenant
	TotalsForTenant(ctx context.Context, tenantID uuid.UUID) (PlanTotals, error)

	// GeneratePlanNumber generates the next sequential plan number for a tenant
	GeneratePlanNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// ModificationFilter defines filtering options for modification queries
type ModificationFilter struct {
	shared.Filter
	PlanID *uuid.UUID          // Filter by plan
	Type   *ModificationType   // Filter by modification type
	Status *ModificationStatus // Filter by workflow status
}

// PlanModificationRepository defines the interface for modification persistence
type PlanModificationRepository interface {
	// FindByID finds a modification by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PlanModification, error)

	// FindByIDForTenant finds a modification by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PlanModification, error)

	// FindByPlan finds all modifications requested against a plan
	FindByPlan(ctx context.Context, tenantID, planID uuid.UUID, filter ModificationFilter) ([]PlanModification, error)

	// FindAllForTenant finds all modifications for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ModificationFilter) ([]PlanModification, error)

	// Save creates or updates a modification
	Save(ctx context.Context, mod *PlanModification) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, mod *PlanModification) error

	// CountForTenant counts modifications for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ModificationFilter) (int64, error)
}
