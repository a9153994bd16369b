package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eduport/eduport-backend/pkg/db/models"
	pkgpagination "github.com/eduport/eduport-backend/pkg/pagination"
)

// CreateCourseInput holds the metadata required to publish a course.
type CreateCourseInput struct {
	Title        string
	Description  string
	Price        decimal.Decimal
	DurationDays int
}

// UpdateCourseInput carries the optional fields a teacher can change.
type UpdateCourseInput struct {
	Title        *string
	Description  *string
	Price        *decimal.Decimal
	DurationDays *int
	IsActive     *bool
}

// CreatePlanInput holds the metadata required to publish a subscription plan.
type CreatePlanInput struct {
	Name         string
	Description  string
	Price        decimal.Decimal
	DurationDays int
}

// UpdatePlanInput carries the optional fields an admin can change.
type UpdatePlanInput struct {
	Name         *string
	Description  *string
	Price        *decimal.Decimal
	DurationDays *int
	IsActive     *bool
}

// CourseListParams configures the course list query.
type CourseListParams struct {
	TeacherID  *uuid.UUID
	ActiveOnly bool
	pkgpagination.Params
}

// PlanListParams configures the plan list query.
type PlanListParams struct {
	ActiveOnly bool
	pkgpagination.Params
}

// CourseDTO is the transport shape for catalog courses.
type CourseDTO struct {
	ID           uuid.UUID       `json:"id"`
	TeacherID    uuid.UUID       `json:"teacher_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	DurationDays int             `json:"duration_days"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CourseList wraps paginated courses plus the next page cursor.
type CourseList struct {
	Items  []CourseDTO `json:"items"`
	Cursor string      `json:"cursor"`
}

// PlanDTO is the transport shape for subscription plans.
type PlanDTO struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	DurationDays int             `json:"duration_days"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PlanList wraps paginated plans plus the next page cursor.
type PlanList struct {
	Items  []PlanDTO `json:"items"`
	Cursor string    `json:"cursor"`
}

func toCourseDTO(m models.Course) CourseDTO {
	return CourseDTO{
		ID:           m.ID,
		TeacherID:    m.TeacherID,
		Title:        m.Title,
		Description:  m.Description,
		Price:        m.Price,
		DurationDays: m.DurationDays,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toPlanDTO(m models.Plan) PlanDTO {
	return PlanDTO{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		Price:        m.Price,
		DurationDays: m.DurationDays,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
