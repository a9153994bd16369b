package purchases

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eduport/eduport-backend/pkg/db/models"
	"github.com/eduport/eduport-backend/pkg/enums"
	pkgpagination "github.com/eduport/eduport-backend/pkg/pagination"
)

// ListParams configures the paginated purchase list queries.
type ListParams struct {
	pkgpagination.Params
}

// PurchaseDTO is the transport shape shared by plan and course purchases.
//
// Status is derived: pending_approval, active, expired, or rejected. An
// approved row flips from active to expired purely by the clock passing
// expires_at; the stored row never changes.
type PurchaseDTO struct {
	ID             uuid.UUID            `json:"id"`
	Kind           enums.PurchaseKind   `json:"kind"`
	CustomerID     uuid.UUID            `json:"customer_id"`
	ItemID         uuid.UUID            `json:"item_id"`
	AmountPaid     decimal.Decimal      `json:"amount_paid"`
	DurationDays   int                  `json:"duration_days"`
	PaymentStatus  enums.PaymentStatus  `json:"payment_status"`
	ApprovalStatus enums.ApprovalStatus `json:"approval_status"`
	Status         string               `json:"status"`
	PurchasedAt    time.Time            `json:"purchased_at"`
	ApprovedAt     *time.Time           `json:"approved_at,omitempty"`
	ApprovedBy     *uuid.UUID           `json:"approved_by,omitempty"`
	ExpiresAt      time.Time            `json:"expires_at"`
}

// PurchaseList wraps paginated purchases plus the next page cursor.
type PurchaseList struct {
	Items  []PurchaseDTO `json:"items"`
	Cursor string        `json:"cursor"`
}

// PlanStatsRow aggregates purchase and revenue figures for one plan.
type PlanStatsRow struct {
	PlanID            uuid.UUID       `gorm:"column:plan_id" json:"plan_id"`
	PlanName          string          `gorm:"column:plan_name" json:"plan_name"`
	TotalPurchases    int64           `gorm:"column:total_purchases" json:"total_purchases"`
	PendingPurchases  int64           `gorm:"column:pending_purchases" json:"pending_purchases"`
	ApprovedPurchases int64           `gorm:"column:approved_purchases" json:"approved_purchases"`
	Revenue           decimal.Decimal `gorm:"column:revenue" json:"revenue"`
}

// CourseStatsRow aggregates purchase and revenue figures for one course.
type CourseStatsRow struct {
	CourseID          uuid.UUID       `gorm:"column:course_id" json:"course_id"`
	TeacherID         uuid.UUID       `gorm:"column:teacher_id" json:"teacher_id"`
	CourseTitle       string          `gorm:"column:course_title" json:"course_title"`
	TotalPurchases    int64           `gorm:"column:total_purchases" json:"total_purchases"`
	PendingPurchases  int64           `gorm:"column:pending_purchases" json:"pending_purchases"`
	ApprovedPurchases int64           `gorm:"column:approved_purchases" json:"approved_purchases"`
	Revenue           decimal.Decimal `gorm:"column:revenue" json:"revenue"`
}

// AggregateStats groups the per-item rollups returned to approvers. Teachers
// only receive the course section, scoped to their own courses.
type AggregateStats struct {
	Plans   []PlanStatsRow   `json:"plans,omitempty"`
	Courses []CourseStatsRow `json:"courses"`
}

const (
	statusPendingApproval = "pending_approval"
	statusActive          = "active"
	statusExpired         = "expired"
	statusRejected        = "rejected"
)

func derivedStatus(approval enums.ApprovalStatus, expiresAt, now time.Time) string {
	switch approval {
	case enums.ApprovalStatusPending:
		return statusPendingApproval
	case enums.ApprovalStatusRejected:
		return statusRejected
	default:
		if expiresAt.After(now) {
			return statusActive
		}
		return statusExpired
	}
}

func fromPlanPurchase(m models.PlanPurchase, now time.Time) PurchaseDTO {
	return PurchaseDTO{
		ID:             m.ID,
		Kind:           enums.PurchaseKindPlan,
		CustomerID:     m.CustomerID,
		ItemID:         m.PlanID,
		AmountPaid:     m.AmountPaid,
		DurationDays:   m.DurationDays,
		PaymentStatus:  m.PaymentStatus,
		ApprovalStatus: m.ApprovalStatus,
		Status:         derivedStatus(m.ApprovalStatus, m.ExpiresAt, now),
		PurchasedAt:    m.PurchasedAt,
		ApprovedAt:     m.ApprovedAt,
		ApprovedBy:     m.ApprovedBy,
		ExpiresAt:      m.ExpiresAt,
	}
}

func fromCoursePurchase(m models.CoursePurchase, now time.Time) PurchaseDTO {
	return PurchaseDTO{
		ID:             m.ID,
		Kind:           enums.PurchaseKindCourse,
		CustomerID:     m.CustomerID,
		ItemID:         m.CourseID,
		AmountPaid:     m.AmountPaid,
		DurationDays:   m.DurationDays,
		PaymentStatus:  m.PaymentStatus,
		ApprovalStatus: m.ApprovalStatus,
		Status:         derivedStatus(m.ApprovalStatus, m.ExpiresAt, now),
		PurchasedAt:    m.PurchasedAt,
		ApprovedAt:     m.ApprovedAt,
		ApprovedBy:     m.ApprovedBy,
		ExpiresAt:      m.ExpiresAt,
	}
}
