package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduport/eduport-backend/pkg/db/models"
	pkgpagination "github.com/eduport/eduport-backend/pkg/pagination"
)

// CourseRepository exposes course persistence operations.
type CourseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs a course repository tied to the provided GORM DB.
func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a new course row.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) (*models.Course, error) {
	if err := r.db.WithContext(ctx).Create(course).Error; err != nil {
		return nil, err
	}
	return course, nil
}

// FindByID loads a course by its UUID.
func (r *CourseRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// Update persists the provided column updates for the course.
func (r *CourseRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Updates(updates).Error
}

type courseListQuery struct {
	teacherID  *uuid.UUID
	activeOnly bool
	limit      int
	cursor     *pkgpagination.Cursor
}

// List returns courses using cursor pagination, newest first.
func (r *CourseRepository) List(ctx context.Context, opts courseListQuery) ([]models.Course, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{})

	if opts.teacherID != nil {
		query = query.Where("teacher_id = ?", *opts.teacherID)
	}
	if opts.activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.Course
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
