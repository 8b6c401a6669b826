package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnpl/backend/internal/domain/installment"
	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/bnpl/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPlanModificationRepository implements PlanModificationRepository using GORM
type GormPlanModificationRepository struct {
	db *gorm.DB
}

// NewGormPlanModificationRepository creates a new GormPlanModificationRepository
func NewGormPlanModificationRepository(db *gorm.DB) *GormPlanModificationRepository {
	return &GormPlanModificationRepository{db: db}
}

// FindByID finds a modification by its ID
func (r *GormPlanModificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*installment.PlanModification, error) {
	var model models.PlanModificationModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a modification by ID for a specific tenant
func (r *GormPlanModificationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*installment.PlanModification, error) {
	var model models.PlanModificationModel
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

// FindByPlan finds modifications for a plan
func (r *GormPlanModificationRepository) FindByPlan(ctx context.Context, tenantID, planID uuid.UUID, filter installment.ModificationFilter) ([]installment.PlanModification, error) {
	var modModels []models.PlanModificationModel
	query := r.db.WithContext(ctx).Model(&models.PlanModificationModel{}).
		Where("tenant_id = ? AND plan_id = ?", tenantID, planID)
	query = r.applyModificationFilter(query, filter, true)

	if err := query.Find(&modModels).Error; err != nil {
		return nil, err
	}
	return toDomainModifications(modModels), nil
}

// FindAllForTenant finds all modifications for a tenant with filtering
func (r *GormPlanModificationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter installment.ModificationFilter) ([]installment.PlanModification, error) {
	var modModels []models.PlanModificationModel
	query := r.db.WithContext(ctx).Model(&models.PlanModificationModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyModificationFilter(query, filter, true)

	if err := query.Find(&modModels).Error; err != nil {
		return nil, err
	}
	return toDomainModifications(modModels), nil
}

// Save creates or updates a modification
func (r *GormPlanModificationRepository) Save(ctx context.Context, mod *installment.PlanModification) error {
	model := models.PlanModificationModelFromDomain(mod)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking. Select("*") keeps zero-valued
// columns in the update, matching the plan repository.
func (r *GormPlanModificationRepository) SaveWithLock(ctx context.Context, mod *installment.PlanModification) error {
	model := models.PlanModificationModelFromDomain(mod)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Where("id = ? AND version = ?", mod.ID, mod.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// CountForTenant counts modifications for a tenant with optional filters
func (r *GormPlanModificationRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter installment.ModificationFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.PlanModificationModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyModificationFilter(query, filter, false)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyModificationFilter applies filter conditions and optional pagination to a query
func (r *GormPlanModificationRepository) applyModificationFilter(query *gorm.DB, filter installment.ModificationFilter, paginate bool) *gorm.DB {
	if filter.PlanID != nil {
		query = query.Where("plan_id = ?", *filter.PlanID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
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

func toDomainModifications(modModels []models.PlanModificationModel) []installment.PlanModification {
	mods := make([]installment.PlanModification, len(modModels))
	for i, model := range modModels {
		mods[i] = *model.ToDomain()
	}
	return mods
}

var _ installment.PlanModificationRepository = (*GormPlanModificationRepository)(nil)
