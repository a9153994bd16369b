package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eduport/eduport-backend/pkg/enums"
)

// CoursePurchase records a customer's enrollment request for a course.
//
// Inserts run through the course_purchase_quota trigger: a customer holding
// five live entitlements cannot create a sixth row, no matter how many
// requests race.
type CoursePurchase struct {
	ID             uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID     uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	CourseID       uuid.UUID            `gorm:"column:course_id;type:uuid;not null;index"`
	AmountPaid     decimal.Decimal      `gorm:"column:amount_paid;type:numeric(12,2);not null"`
	DurationDays   int                  `gorm:"column:duration_days;not null"`
	PaymentStatus  enums.PaymentStatus  `gorm:"column:payment_status;type:payment_status;not null"`
	ApprovalStatus enums.ApprovalStatus `gorm:"column:approval_status;type:approval_status;not null"`
	PurchasedAt    time.Time            `gorm:"column:purchased_at;not null"`
	ApprovedAt     *time.Time           `gorm:"column:approved_at"`
	ApprovedBy     *uuid.UUID           `gorm:"column:approved_by;type:uuid"`
	ExpiresAt      time.Time            `gorm:"column:expires_at;not null"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
