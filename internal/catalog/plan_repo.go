package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduport/eduport-backend/pkg/db/models"
	pkgpagination "github.com/eduport/eduport-backend/pkg/pagination"
)

// PlanRepository exposes subscription plan persistence operations.
type PlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository constructs a plan repository tied to the provided GORM DB.
func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create inserts a new plan row.
func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) (*models.Plan, error) {
	if err := r.db.WithContext(ctx).Create(plan).Error; err != nil {
		return nil, err
	}
	return plan, nil
}

// FindByID loads a plan by its UUID.
func (r *PlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// Update persists the provided column updates for the plan.
func (r *PlanRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Plan{}).
		Where("id = ?", id).
		Updates(updates).Error
}

type planListQuery struct {
	activeOnly bool
	limit      int
	cursor     *pkgpagination.Cursor
}

// List returns plans using cursor pagination, newest first.
func (r *PlanRepository) List(ctx context.Context, opts planListQuery) ([]models.Plan, error) {
	query := r.db.WithContext(ctx).Model(&models.Plan{})

	if opts.activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.Plan
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
