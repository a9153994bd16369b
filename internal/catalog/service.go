package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduport/eduport-backend/pkg/db/models"
	"github.com/eduport/eduport-backend/pkg/enums"
	pkgerrors "github.com/eduport/eduport-backend/pkg/errors"
	pkgpagination "github.com/eduport/eduport-backend/pkg/pagination"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) (*models.Course, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, opts courseListQuery) ([]models.Course, error)
}

type planRepository interface {
	Create(ctx context.Context, plan *models.Plan) (*models.Plan, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, opts planListQuery) ([]models.Plan, error)
}

// Service exposes catalog management for courses and subscription plans.
type Service interface {
	CreateCourse(ctx context.Context, teacherID uuid.UUID, actorRole enums.UserRole, input CreateCourseInput) (*CourseDTO, error)
	UpdateCourse(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, courseID uuid.UUID, input UpdateCourseInput) (*CourseDTO, error)
	GetCourse(ctx context.Context, courseID uuid.UUID) (*CourseDTO, error)
	ListCourses(ctx context.Context, params CourseListParams) (*CourseList, error)
	CreatePlan(ctx context.Context, adminID uuid.UUID, actorRole enums.UserRole, input CreatePlanInput) (*PlanDTO, error)
	UpdatePlan(ctx context.Context, actorRole enums.UserRole, planID uuid.UUID, input UpdatePlanInput) (*PlanDTO, error)
	GetPlan(ctx context.Context, planID uuid.UUID) (*PlanDTO, error)
	ListPlans(ctx context.Context, params PlanListParams) (*PlanList, error)
}

type service struct {
	courses courseRepository
	plans   planRepository
}

// NewService builds a catalog service backed by the provided repositories.
func NewService(courses courseRepository, plans planRepository) (Service, error) {
	if courses == nil {
		return nil, fmt.Errorf("course repository required")
	}
	if plans == nil {
		return nil, fmt.Errorf("plan repository required")
	}
	return &service{courses: courses, plans: plans}, nil
}

func (s *service) CreateCourse(ctx context.Context, teacherID uuid.UUID, actorRole enums.UserRole, input CreateCourseInput) (*CourseDTO, error) {
	if teacherID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if actorRole != enums.UserRoleTeacher && actorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only teachers can publish courses")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.DurationDays <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration_days must be positive")
	}

	course := &models.Course{
		TeacherID:    teacherID,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Price:        input.Price,
		DurationDays: input.DurationDays,
		IsActive:     true,
	}

	created, err := s.courses.Create(ctx, course)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create course")
	}
	dto := toCourseDTO(*created)
	return &dto, nil
}

func (s *service) UpdateCourse(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, courseID uuid.UUID, input UpdateCourseInput) (*CourseDTO, error) {
	if courseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "course id is required")
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "course not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup course")
	}
	if course.TeacherID != actorID && actorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "course does not belong to teacher")
	}

	updates := map[string]any{}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title must not be empty")
		}
		updates["title"] = strings.TrimSpace(*input.Title)
		course.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
		course.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		updates["price"] = *input.Price
		course.Price = *input.Price
	}
	if input.DurationDays != nil {
		if *input.DurationDays <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration_days must be positive")
		}
		updates["duration_days"] = *input.DurationDays
		course.DurationDays = *input.DurationDays
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
		course.IsActive = *input.IsActive
	}

	if len(updates) == 0 {
		dto := toCourseDTO(*course)
		return &dto, nil
	}

	if err := s.courses.Update(ctx, courseID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update course")
	}

	dto := toCourseDTO(*course)
	return &dto, nil
}

func (s *service) GetCourse(ctx context.Context, courseID uuid.UUID) (*CourseDTO, error) {
	if courseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "course id is required")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "course not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup course")
	}
	dto := toCourseDTO(*course)
	return &dto, nil
}

func (s *service) ListCourses(ctx context.Context, params CourseListParams) (*CourseList, error) {
	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := courseListQuery{
		teacherID:  params.TeacherID,
		activeOnly: params.ActiveOnly,
		limit:      pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.courses.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list courses")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	items := make([]CourseDTO, len(rows))
	for i, row := range rows {
		items[i] = toCourseDTO(row)
	}

	return &CourseList{
		Items:  items,
		Cursor: nextCursor,
	}, nil
}

func (s *service) CreatePlan(ctx context.Context, adminID uuid.UUID, actorRole enums.UserRole, input CreatePlanInput) (*PlanDTO, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if actorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can publish plans")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.DurationDays <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration_days must be positive")
	}

	creator := adminID
	plan := &models.Plan{
		CreatedBy:    &creator,
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		Price:        input.Price,
		DurationDays: input.DurationDays,
		IsActive:     true,
	}

	created, err := s.plans.Create(ctx, plan)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create plan")
	}
	dto := toPlanDTO(*created)
	return &dto, nil
}

func (s *service) UpdatePlan(ctx context.Context, actorRole enums.UserRole, planID uuid.UUID, input UpdatePlanInput) (*PlanDTO, error) {
	if planID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan id is required")
	}
	if actorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can update plans")
	}

	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup plan")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
		plan.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
		plan.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		updates["price"] = *input.Price
		plan.Price = *input.Price
	}
	if input.DurationDays != nil {
		if *input.DurationDays <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration_days must be positive")
		}
		updates["duration_days"] = *input.DurationDays
		plan.DurationDays = *input.DurationDays
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
		plan.IsActive = *input.IsActive
	}

	if len(updates) == 0 {
		dto := toPlanDTO(*plan)
		return &dto, nil
	}

	if err := s.plans.Update(ctx, planID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update plan")
	}

	dto := toPlanDTO(*plan)
	return &dto, nil
}

func (s *service) GetPlan(ctx context.Context, planID uuid.UUID) (*PlanDTO, error) {
	if planID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan id is required")
	}
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup plan")
	}
	dto := toPlanDTO(*plan)
	return &dto, nil
}

func (s *service) ListPlans(ctx context.Context, params PlanListParams) (*PlanList, error) {
	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := planListQuery{
		activeOnly: params.ActiveOnly,
		limit:      pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.plans.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list plans")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	items := make([]PlanDTO, len(rows))
	for i, row := range rows {
		items[i] = toPlanDTO(row)
	}

	return &PlanList{
		Items:  items,
		Cursor: nextCursor,
	}, nil
}
