package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Course is a teacher-owned catalog item.
type Course struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TeacherID    uuid.UUID       `gorm:"column:teacher_id;type:uuid;not null;index"`
	Title        string          `gorm:"type:text;not null"`
	Description  string          `gorm:"type:text;not null;default:''"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	DurationDays int             `gorm:"column:duration_days;not null"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
