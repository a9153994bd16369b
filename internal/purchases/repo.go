package purchases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduport/eduport-backend/pkg/db/models"
	"github.com/eduport/eduport-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchases repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePlanPurchase(ctx context.Context, row *models.PlanPurchase) (*models.PlanPurchase, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *repository) CreateCoursePurchase(ctx context.Context, row *models.CoursePurchase) (*models.CoursePurchase, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *repository) FindPlanPurchaseByID(ctx context.Context, id uuid.UUID) (*models.PlanPurchase, error) {
	var row models.PlanPurchase
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindCoursePurchaseByID(ctx context.Context, id uuid.UUID) (*models.CoursePurchase, error) {
	var row models.CoursePurchase
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) TransitionPlanPurchase(ctx context.Context, id uuid.UUID, to enums.ApprovalStatus, actorID uuid.UUID, decidedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PlanPurchase{}).
		Where("id = ? AND approval_status = ?", id, enums.ApprovalStatusPending).
		Updates(map[string]any{
			"approval_status": to,
			"approved_at":     decidedAt,
			"approved_by":     actorID,
			"updated_at":      decidedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) TransitionCoursePurchase(ctx context.Context, id uuid.UUID, to enums.ApprovalStatus, actorID uuid.UUID, decidedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CoursePurchase{}).
		Where("id = ? AND approval_status = ?", id, enums.ApprovalStatusPending).
		Updates(map[string]any{
			"approval_status": to,
			"approved_at":     decidedAt,
			"approved_by":     actorID,
			"updated_at":      decidedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListLivePlanPurchases(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.PlanPurchase, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PlanPurchase{}).
		Where("customer_id = ?", customerID).
		Where("approval_status = ? AND payment_status = ?", enums.ApprovalStatusApproved, enums.PaymentStatusCompleted).
		Where("expires_at > ?", opts.now)
	query = applyCursor(query, opts)

	var rows []models.PlanPurchase
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListLiveCoursePurchases(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.CoursePurchase, error) {
	query := r.db.WithContext(ctx).
		Model(&models.CoursePurchase{}).
		Where("customer_id = ?", customerID).
		Where("approval_status = ? AND payment_status = ?", enums.ApprovalStatusApproved, enums.PaymentStatusCompleted).
		Where("expires_at > ?", opts.now)
	query = applyCursor(query, opts)

	var rows []models.CoursePurchase
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListPendingPlanPurchasesByCustomer(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.PlanPurchase, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PlanPurchase{}).
		Where("customer_id = ? AND approval_status = ?", customerID, enums.ApprovalStatusPending)
	query = applyCursor(query, opts)

	var rows []models.PlanPurchase
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListPendingCoursePurchasesByCustomer(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.CoursePurchase, error) {
	query := r.db.WithContext(ctx).
		Model(&models.CoursePurchase{}).
		Where("customer_id = ? AND approval_status = ?", customerID, enums.ApprovalStatusPending)
	query = applyCursor(query, opts)

	var rows []models.CoursePurchase
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListPendingPlanPurchases(ctx context.Context, opts listQuery) ([]models.PlanPurchase, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PlanPurchase{}).
		Where("approval_status = ?", enums.ApprovalStatusPending)
	query = applyCursor(query, opts)

	var rows []models.PlanPurchase
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListPendingCoursePurchases(ctx context.Context, opts listQuery) ([]models.CoursePurchase, error) {
	query := r.db.WithContext(ctx).
		Model(&models.CoursePurchase{}).
		Where("course_purchases.approval_status = ?", enums.ApprovalStatusPending)
	if opts.teacherID != nil {
		query = query.
			Joins("JOIN courses ON courses.id = course_purchases.course_id").
			Where("courses.teacher_id = ?", *opts.teacherID)
	}
	query = applyCoursePurchaseCursor(query, opts)

	var rows []models.CoursePurchase
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) PlanStats(ctx context.Context) ([]PlanStatsRow, error) {
	var rows []PlanStatsRow
	err := r.db.WithContext(ctx).
		Table("plans").
		Select(`plans.id AS plan_id,
plans.name AS plan_name,
COUNT(plan_purchases.id) AS total_purchases,
SUM(CASE WHEN plan_purchases.approval_status = 'pending' THEN 1 ELSE 0 END) AS pending_purchases,
SUM(CASE WHEN plan_purchases.approval_status = 'approved' THEN 1 ELSE 0 END) AS approved_purchases,
COALESCE(SUM(CASE WHEN plan_purchases.approval_status = 'approved' THEN plan_purchases.amount_paid ELSE 0 END), 0) AS revenue`).
		Joins("LEFT JOIN plan_purchases ON plan_purchases.plan_id = plans.id").
		Group("plans.id, plans.name").
		Order("plans.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CourseStats(ctx context.Context, teacherID *uuid.UUID) ([]CourseStatsRow, error) {
	query := r.db.WithContext(ctx).
		Table("courses").
		Select(`courses.id AS course_id,
courses.teacher_id AS teacher_id,
courses.title AS course_title,
COUNT(course_purchases.id) AS total_purchases,
SUM(CASE WHEN course_purchases.approval_status = 'pending' THEN 1 ELSE 0 END) AS pending_purchases,
SUM(CASE WHEN course_purchases.approval_status = 'approved' THEN 1 ELSE 0 END) AS approved_purchases,
COALESCE(SUM(CASE WHEN course_purchases.approval_status = 'approved' THEN course_purchases.amount_paid ELSE 0 END), 0) AS revenue`).
		Joins("LEFT JOIN course_purchases ON course_purchases.course_id = courses.id").
		Group("courses.id, courses.teacher_id, courses.title").
		Order("courses.title ASC")
	if teacherID != nil {
		query = query.Where("courses.teacher_id = ?", *teacherID)
	}

	var rows []CourseStatsRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func applyCursor(query *gorm.DB, opts listQuery) *gorm.DB {
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}
	return query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)
}

func applyCoursePurchaseCursor(query *gorm.DB, opts listQuery) *gorm.DB {
	if opts.cursor != nil {
		query = query.Where("(course_purchases.created_at < ?) OR (course_purchases.created_at = ? AND course_purchases.id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}
	return query.Order("course_purchases.created_at DESC").Order("course_purchases.id DESC").Limit(opts.limit)
}
