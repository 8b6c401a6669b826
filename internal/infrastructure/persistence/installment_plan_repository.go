package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnpl/backend/internal/domain/installment"
	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/bnpl/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInstallmentPlanRepository implements InstallmentPlanRepository using GORM
type GormInstallmentPlanRepository struct {
	db *gorm.DB
}

// NewGormInstallmentPlanRepository creates a new GormInstallmentPlanRepository
func NewGormInstallmentPlanRepository(db *gorm.DB) *GormInstallmentPlanRepository {
	return &GormInstallmentPlanRepository{db: db}
}

// FindByID finds a plan by its ID
func (r *GormInstallmentPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*installment.InstallmentPlan, error) {
	var model models.InstallmentPlanModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a plan by ID for a specific tenant
func (r *GormInstallmentPlanRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*installment.InstallmentPlan, error) {
	var model models.InstallmentPlanModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPlanNumber finds a plan by plan number for a tenant
func (r *GormInstallmentPlanRepository) FindByPlanNumber(ctx context.Context, tenantID uuid.UUID, planNumber string) (*installment.InstallmentPlan, error) {
	var model models.InstallmentPlanModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND plan_number = ?", tenantID, planNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySale finds the plan financing a given sale
func (r *GormInstallmentPlanRepository) FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) (*installment.InstallmentPlan, error) {
	var model models.InstallmentPlanModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sale_id = ?", tenantID, saleID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer finds plans for a customer
func (r *GormInstallmentPlanRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter installment.PlanFilter) ([]installment.InstallmentPlan, error) {
	var planModels []models.InstallmentPlanModel
	query := r.db.WithContext(ctx).Model(&models.InstallmentPlanModel{}).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID)
	query = r.applyPlanFilter(query, filter, true)

	if err := query.Find(&planModels).Error; err != nil {
		return nil, err
	}
	return toDomainPlans(planModels), nil
}

// FindAllForTenant finds all plans for a tenant with filtering
func (r *GormInstallmentPlanRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter installment.PlanFilter) ([]installment.InstallmentPlan, error) {
	var planModels []models.InstallmentPlanModel
	query := r.db.WithContext(ctx).Model(&models.InstallmentPlanModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyPlanFilter(query, filter, true)

	if err := query.Find(&planModels).Error; err != nil {
		return nil, err
	}
	return toDomainPlans(planModels), nil
}

// FindActiveWithDueBefore finds active plans across all tenants holding at
// least one unsettled line due before the given instant
func (r *GormInstallmentPlanRepository) FindActiveWithDueBefore(ctx context.Context, now time.Time) ([]installment.InstallmentPlan, error) {
	var planModels []models.InstallmentPlanModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND next_due_date IS NOT NULL AND next_due_date < ?", installment.PlanStatusActive, now).
		Order("next_due_date ASC").
		Find(&planModels).Error; err != nil {
		return nil, err
	}
	return toDomainPlans(planModels), nil
}

// Save creates or updates a plan
func (r *GormInstallmentPlanRepository) Save(ctx context.Context, plan *installment.InstallmentPlan) error {
	model := models.InstallmentPlanModelFromDomain(plan)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. Select("*") forces every
// column through the update so zero values (an overdue count back at 0,
// a cleared next due date) land as well.
func (r *GormInstallmentPlanRepository) SaveWithLock(ctx context.Context, plan *installment.InstallmentPlan) error {
	model := models.InstallmentPlanModelFromDomain(plan)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Where("id = ? AND version = ?", plan.ID, plan.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// CountForTenant counts plans for a tenant with optional filters
func (r *GormInstallmentPlanRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter installment.PlanFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.InstallmentPlanModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyPlanFilter(query, filter, false)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts plans by status for a tenant
func (r *GormInstallmentPlanRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status installment.PlanStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InstallmentPlanModel{}).
		Where("tenant_id = ? AND status = ?", tenantID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// TotalsForTenant sums financed, collected and outstanding amounts across all plans of a tenant
func (r *GormInstallmentPlanRepository) TotalsForTenant(ctx context.Context, tenantID uuid.UUID) (installment.PlanTotals, error) {
	var totals installment.PlanTotals
	if err := r.db.WithContext(ctx).
		Model(&models.InstallmentPlanModel{}).
		Select(
			"COALESCE(SUM(total_price - down_payment), 0) as total_financed, " +
				"COALESCE(SUM(total_paid), 0) as total_collected, " +
				"COALESCE(SUM(remaining_balance), 0) as total_outstanding",
		).
		Where("tenant_id = ?", tenantID).
		Scan(&totals).Error; err != nil {
		return installment.PlanTotals{}, err
	}
	return totals, nil
}

// GeneratePlanNumber generates a unique plan number for a tenant.
// Format: IP-YYYY-NNNNN (e.g., IP-2026-00001)
func (r *GormInstallmentPlanRepository) GeneratePlanNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("IP-%d-", year)

	var lastPlan models.InstallmentPlanModel
	err := r.db.WithContext(ctx).
		Model(&models.InstallmentPlanModel{}).
		Where("tenant_id = ? AND plan_number LIKE ?", tenantID, prefix+"%").
		Order("plan_number DESC").
		First(&lastPlan).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastPlan.PlanNumber != "" {
		parts := strings.Split(lastPlan.PlanNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

// applyPlanFilter applies filter conditions and optional pagination to a query
func (r *GormInstallmentPlanRepository) applyPlanFilter(query *gorm.DB, filter installment.PlanFilter, paginate bool) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.SaleID != nil {
		query = query.Where("sale_id = ?", *filter.SaleID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("start_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("start_date <= ?", *filter.ToDate)
	}
	if filter.Overdue != nil {
		if *filter.Overdue {
			query = query.Where("overdue_count > 0")
		} else {
			query = query.Where("overdue_count = 0")
		}
	}

	if paginate {
		orderBy := filter.OrderBy
		if orderBy == "" {
			orderBy = "created_at"
		}
		orderDir := strings.ToLower(filter.OrderDir)
		if orderDir != "asc" {
			orderDir = "desc"
		}
		query = query.
			Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
			Offset(filter.Offset()).
			Limit(filter.Limit())
	}

	return query
}

func toDomainPlans(planModels []models.InstallmentPlanModel) []installment.InstallmentPlan {
	plans := make([]installment.InstallmentPlan, len(planModels))
	for i, model := range planModels {
		plans[i] = *model.ToDomain()
	}
	return plans
}

var _ installment.InstallmentPlanRepository = (*GormInstallmentPlanRepository)(nil)
