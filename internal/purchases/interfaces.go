package purchases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduport/eduport-backend/pkg/db/models"
	"github.com/eduport/eduport-backend/pkg/enums"
	pkgpagination "github.com/eduport/eduport-backend/pkg/pagination"
)

type listQuery struct {
	limit     int
	cursor    *pkgpagination.Cursor
	now       time.Time
	teacherID *uuid.UUID
}

// Repository defines persistence operations for the purchase tables.
//
// Transition methods perform a single conditional update keyed on
// approval_status=pending. Under a concurrent approve/reject race exactly one
// caller observes updated=true; the loser sees updated=false and must not
// retry.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePlanPurchase(ctx context.Context, row *models.PlanPurchase) (*models.PlanPurchase, error)
	CreateCoursePurchase(ctx context.Context, row *models.CoursePurchase) (*models.CoursePurchase, error)
	FindPlanPurchaseByID(ctx context.Context, id uuid.UUID) (*models.PlanPurchase, error)
	FindCoursePurchaseByID(ctx context.Context, id uuid.UUID) (*models.CoursePurchase, error)
	TransitionPlanPurchase(ctx context.Context, id uuid.UUID, to enums.ApprovalStatus, actorID uuid.UUID, decidedAt time.Time) (bool, error)
	TransitionCoursePurchase(ctx context.Context, id uuid.UUID, to enums.ApprovalStatus, actorID uuid.UUID, decidedAt time.Time) (bool, error)
	ListLivePlanPurchases(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.PlanPurchase, error)
	ListLiveCoursePurchases(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.CoursePurchase, error)
	ListPendingPlanPurchasesByCustomer(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.PlanPurchase, error)
	ListPendingCoursePurchasesByCustomer(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.CoursePurchase, error)
	ListPendingPlanPurchases(ctx context.Context, opts listQuery) ([]models.PlanPurchase, error)
	ListPendingCoursePurchases(ctx context.Context, opts listQuery) ([]models.CoursePurchase, error)
	PlanStats(ctx context.Context) ([]PlanStatsRow, error)
	CourseStats(ctx context.Context, teacherID *uuid.UUID) ([]CourseStatsRow, error)
}
