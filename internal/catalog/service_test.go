package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/eduport/eduport-backend/pkg/db/models"
	"github.com/eduport/eduport-backend/pkg/enums"
	pkgerrors "github.com/eduport/eduport-backend/pkg/errors"
	pkgpagination "github.com/eduport/eduport-backend/pkg/pagination"
)

type fakeCourseRepo struct {
	createFn func(ctx context.Context, course *models.Course) (*models.Course, error)
	findFn   func(ctx context.Context, id uuid.UUID) (*models.Course, error)
	updateFn func(ctx context.Context, id uuid.UUID, updates map[string]any) error
	listFn   func(ctx context.Context, opts courseListQuery) ([]models.Course, error)
}

func (f *fakeCourseRepo) Create(ctx context.Context, course *models.Course) (*models.Course, error) {
	return f.createFn(ctx, course)
}

func (f *fakeCourseRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	return f.findFn(ctx, id)
}

func (f *fakeCourseRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return f.updateFn(ctx, id, updates)
}

func (f *fakeCourseRepo) List(ctx context.Context, opts courseListQuery) ([]models.Course, error) {
	return f.listFn(ctx, opts)
}

type fakePlanRepo struct {
	createFn func(ctx context.Context, plan *models.Plan) (*models.Plan, error)
	findFn   func(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	updateFn func(ctx context.Context, id uuid.UUID, updates map[string]any) error
	listFn   func(ctx context.Context, opts planListQuery) ([]models.Plan, error)
}

func (f *fakePlanRepo) Create(ctx context.Context, plan *models.Plan) (*models.Plan, error) {
	return f.createFn(ctx, plan)
}

func (f *fakePlanRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	return f.findFn(ctx, id)
}

func (f *fakePlanRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return f.updateFn(ctx, id, updates)
}

func (f *fakePlanRepo) List(ctx context.Context, opts planListQuery) ([]models.Plan, error) {
	return f.listFn(ctx, opts)
}

func newCatalogService(t *testing.T, courses courseRepository, plans planRepository) Service {
	t.Helper()
	svc, err := NewService(courses, plans)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, typed.Code(), err)
	}
}

func TestCreateCourseRequiresTeacherRole(t *testing.T) {
	svc := newCatalogService(t, &fakeCourseRepo{}, &fakePlanRepo{})

	_, err := svc.CreateCourse(context.Background(), uuid.New(), enums.UserRoleCustomer, CreateCourseInput{
		Title:        "Go for Beginners",
		Price:        decimal.NewFromInt(50),
		DurationDays: 30,
	})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestCreateCoursePersistsTrimmedFields(t *testing.T) {
	var captured *models.Course
	repo := &fakeCourseRepo{
		createFn: func(ctx context.Context, course *models.Course) (*models.Course, error) {
			captured = course
			course.ID = uuid.New()
			return course, nil
		},
	}
	svc := newCatalogService(t, repo, &fakePlanRepo{})

	teacherID := uuid.New()
	dto, err := svc.CreateCourse(context.Background(), teacherID, enums.UserRoleTeacher, CreateCourseInput{
		Title:        "  Advanced SQL  ",
		Description:  " window functions ",
		Price:        decimal.NewFromInt(99),
		DurationDays: 45,
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	if captured == nil {
		t.Fatalf("repo never called")
	}
	if captured.Title != "Advanced SQL" {
		t.Fatalf("expected trimmed title, got %q", captured.Title)
	}
	if captured.TeacherID != teacherID {
		t.Fatalf("teacher id not propagated")
	}
	if !captured.IsActive {
		t.Fatalf("new course should be active")
	}
	if dto.Title != "Advanced SQL" {
		t.Fatalf("dto title mismatch: %q", dto.Title)
	}
}

func TestCreateCourseValidation(t *testing.T) {
	svc := newCatalogService(t, &fakeCourseRepo{}, &fakePlanRepo{})

	cases := []struct {
		name  string
		input CreateCourseInput
	}{
		{"empty title", CreateCourseInput{Price: decimal.NewFromInt(10), DurationDays: 10}},
		{"negative price", CreateCourseInput{Title: "t", Price: decimal.NewFromInt(-1), DurationDays: 10}},
		{"zero duration", CreateCourseInput{Title: "t", Price: decimal.NewFromInt(10)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateCourse(context.Background(), uuid.New(), enums.UserRoleTeacher, tc.input)
			expectCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestUpdateCourseOwnership(t *testing.T) {
	owner := uuid.New()
	courseID := uuid.New()
	repo := &fakeCourseRepo{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Course, error) {
			return &models.Course{ID: courseID, TeacherID: owner, Title: "t", DurationDays: 30}, nil
		},
		updateFn: func(ctx context.Context, id uuid.UUID, updates map[string]any) error {
			return nil
		},
	}
	svc := newCatalogService(t, repo, &fakePlanRepo{})

	newTitle := "renamed"
	_, err := svc.UpdateCourse(context.Background(), uuid.New(), enums.UserRoleTeacher, courseID, UpdateCourseInput{Title: &newTitle})
	expectCode(t, err, pkgerrors.CodeForbidden)

	if _, err := svc.UpdateCourse(context.Background(), owner, enums.UserRoleTeacher, courseID, UpdateCourseInput{Title: &newTitle}); err != nil {
		t.Fatalf("owner update: %v", err)
	}

	if _, err := svc.UpdateCourse(context.Background(), uuid.New(), enums.UserRoleAdmin, courseID, UpdateCourseInput{Title: &newTitle}); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestGetCourseNotFound(t *testing.T) {
	repo := &fakeCourseRepo{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Course, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := newCatalogService(t, repo, &fakePlanRepo{})

	_, err := svc.GetCourse(context.Background(), uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestListCoursesPagination(t *testing.T) {
	now := time.Now().UTC()
	rows := []models.Course{
		{ID: uuid.New(), Title: "newest", CreatedAt: now},
		{ID: uuid.New(), Title: "older", CreatedAt: now.Add(-time.Hour)},
	}
	repo := &fakeCourseRepo{
		listFn: func(ctx context.Context, opts courseListQuery) ([]models.Course, error) {
			if opts.limit != 2 {
				t.Fatalf("expected buffered limit 2, got %d", opts.limit)
			}
			return rows, nil
		},
	}
	svc := newCatalogService(t, repo, &fakePlanRepo{})

	list, err := svc.ListCourses(context.Background(), CourseListParams{ActiveOnly: true, Params: pkgpagination.Params{Limit: 1}})
	if err != nil {
		t.Fatalf("list courses: %v", err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(list.Items))
	}
	if list.Cursor == "" {
		t.Fatalf("expected next cursor")
	}
	if list.Items[0].Title != "newest" {
		t.Fatalf("unexpected first item %q", list.Items[0].Title)
	}
}

func TestCreatePlanAdminOnly(t *testing.T) {
	svc := newCatalogService(t, &fakeCourseRepo{}, &fakePlanRepo{})

	_, err := svc.CreatePlan(context.Background(), uuid.New(), enums.UserRoleTeacher, CreatePlanInput{
		Name:         "Monthly",
		Price:        decimal.NewFromInt(20),
		DurationDays: 30,
	})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestCreatePlanRecordsCreator(t *testing.T) {
	var captured *models.Plan
	repo := &fakePlanRepo{
		createFn: func(ctx context.Context, plan *models.Plan) (*models.Plan, error) {
			captured = plan
			plan.ID = uuid.New()
			return plan, nil
		},
	}
	svc := newCatalogService(t, &fakeCourseRepo{}, repo)

	adminID := uuid.New()
	if _, err := svc.CreatePlan(context.Background(), adminID, enums.UserRoleAdmin, CreatePlanInput{
		Name:         "Annual",
		Price:        decimal.NewFromInt(199),
		DurationDays: 365,
	}); err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if captured == nil || captured.CreatedBy == nil || *captured.CreatedBy != adminID {
		t.Fatalf("creator not recorded")
	}
}
