package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduport/eduport-backend/internal/catalog"
	"github.com/eduport/eduport-backend/pkg/enums"
	pkgerrors "github.com/eduport/eduport-backend/pkg/errors"
)

type fakeCatalogService struct {
	createCourse func(ctx context.Context, teacherID uuid.UUID, role enums.UserRole, input catalog.CreateCourseInput) (*catalog.CourseDTO, error)
	updateCourse func(ctx context.Context, actorID uuid.UUID, role enums.UserRole, courseID uuid.UUID, input catalog.UpdateCourseInput) (*catalog.CourseDTO, error)
	getCourse    func(ctx context.Context, courseID uuid.UUID) (*catalog.CourseDTO, error)
	listCourses  func(ctx context.Context, params catalog.CourseListParams) (*catalog.CourseList, error)
	createPlan   func(ctx context.Context, adminID uuid.UUID, role enums.UserRole, input catalog.CreatePlanInput) (*catalog.PlanDTO, error)
	updatePlan   func(ctx context.Context, role enums.UserRole, planID uuid.UUID, input catalog.UpdatePlanInput) (*catalog.PlanDTO, error)
	getPlan      func(ctx context.Context, planID uuid.UUID) (*catalog.PlanDTO, error)
	listPlans    func(ctx context.Context, params catalog.PlanListParams) (*catalog.PlanList, error)
}

func (f *fakeCatalogService) CreateCourse(ctx context.Context, teacherID uuid.UUID, role enums.UserRole, input catalog.CreateCourseInput) (*catalog.CourseDTO, error) {
	if f.createCourse == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unexpected CreateCourse call")
	}
	return f.createCourse(ctx, teacherID, role, input)
}

func (f *fakeCatalogService) UpdateCourse(ctx context.Context, actorID uuid.UUID, role enums.UserRole, courseID uuid.UUID, input catalog.UpdateCourseInput) (*catalog.CourseDTO, error) {
	if f.updateCourse == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unexpected UpdateCourse call")
	}
	return f.updateCourse(ctx, actorID, role, courseID, input)
}

func (f *fakeCatalogService) GetCourse(ctx context.Context, courseID uuid.UUID) (*catalog.CourseDTO, error) {
	if f.getCourse == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unexpected GetCourse call")
	}
	return f.getCourse(ctx, courseID)
}

func (f *fakeCatalogService) ListCourses(ctx context.Context, params catalog.CourseListParams) (*catalog.CourseList, error) {
	if f.listCourses == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unexpected ListCourses call")
	}
	return f.listCourses(ctx, params)
}

func (f *fakeCatalogService) CreatePlan(ctx context.Context, adminID uuid.UUID, role enums.UserRole, input catalog.CreatePlanInput) (*catalog.PlanDTO, error) {
	if f.createPlan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unexpected CreatePlan call")
	}
	return f.createPlan(ctx, adminID, role, input)
}

func (f *fakeCatalogService) UpdatePlan(ctx context.Context, role enums.UserRole, planID uuid.UUID, input catalog.UpdatePlanInput) (*catalog.PlanDTO, error) {
	if f.updatePlan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unexpected UpdatePlan call")
	}
	return f.updatePlan(ctx, role, planID, input)
}

func (f *fakeCatalogService) GetPlan(ctx context.Context, planID uuid.UUID) (*catalog.PlanDTO, error) {
	if f.getPlan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unexpected GetPlan call")
	}
	return f.getPlan(ctx, planID)
}

func (f *fakeCatalogService) ListPlans(ctx context.Context, params catalog.PlanListParams) (*catalog.PlanList, error) {
	if f.listPlans == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unexpected ListPlans call")
	}
	return f.listPlans(ctx, params)
}

func TestCourseCreateForwardsActorAndInput(t *testing.T) {
	teacherID := uuid.New()

	var gotInput catalog.CreateCourseInput
	svc := &fakeCatalogService{
		createCourse: func(_ context.Context, actorID uuid.UUID, role enums.UserRole, input catalog.CreateCourseInput) (*catalog.CourseDTO, error) {
			require.Equal(t, teacherID, actorID)
			require.Equal(t, enums.UserRoleTeacher, role)
			gotInput = input
			return &catalog.CourseDTO{
				ID:           uuid.New(),
				TeacherID:    actorID,
				Title:        input.Title,
				Price:        input.Price,
				DurationDays: input.DurationDays,
				IsActive:     true,
			}, nil
		},
	}

	body, _ := json.Marshal(map[string]any{
		"title":         "Distributed Systems",
		"description":   "Consensus and replication",
		"price":         "149.99",
		"duration_days": 90,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses", bytes.NewReader(body))
	req = seedActor(req, teacherID, enums.UserRoleTeacher)

	rec := httptest.NewRecorder()
	CourseCreate(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Distributed Systems", gotInput.Title)
	assert.True(t, gotInput.Price.Equal(decimal.RequireFromString("149.99")))
	assert.Equal(t, 90, gotInput.DurationDays)

	var dto catalog.CourseDTO
	decodeData(t, rec, &dto)
	assert.Equal(t, teacherID, dto.TeacherID)
	assert.True(t, dto.IsActive)
}

func TestCourseCreateMissingTitle(t *testing.T) {
	svc := &fakeCatalogService{}

	body, _ := json.Marshal(map[string]any{"duration_days": 30})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/courses", bytes.NewReader(body))
	req = seedActor(req, uuid.New(), enums.UserRoleTeacher)

	rec := httptest.NewRecorder()
	CourseCreate(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeErrorCode(t, rec))
}

func TestCourseUpdateNotOwner(t *testing.T) {
	svc := &fakeCatalogService{
		updateCourse: func(context.Context, uuid.UUID, enums.UserRole, uuid.UUID, catalog.UpdateCourseInput) (*catalog.CourseDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "course belongs to another teacher")
		},
	}

	courseID := uuid.New()
	body, _ := json.Marshal(map[string]any{"title": "New title"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/courses/"+courseID.String(), bytes.NewReader(body))
	req = seedActor(req, uuid.New(), enums.UserRoleTeacher)
	req = withRouteParams(req, map[string]string{"courseId": courseID.String()})

	rec := httptest.NewRecorder()
	CourseUpdate(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	assert.Equal(t, string(pkgerrors.CodeForbidden), decodeErrorCode(t, rec))
}

func TestCourseGetInvalidID(t *testing.T) {
	svc := &fakeCatalogService{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses/not-a-uuid", nil)
	req = withRouteParams(req, map[string]string{"courseId": "not-a-uuid"})

	rec := httptest.NewRecorder()
	CourseGet(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestCourseListParsesFilters(t *testing.T) {
	teacherID := uuid.New()

	var gotParams catalog.CourseListParams
	svc := &fakeCatalogService{
		listCourses: func(_ context.Context, params catalog.CourseListParams) (*catalog.CourseList, error) {
			gotParams = params
			return &catalog.CourseList{Items: []catalog.CourseDTO{}}, nil
		},
	}

	target := "/api/v1/courses?limit=10&active=false&teacher_id=" + teacherID.String()
	req := httptest.NewRequest(http.MethodGet, target, nil)

	rec := httptest.NewRecorder()
	CourseList(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 10, gotParams.Limit)
	assert.False(t, gotParams.ActiveOnly)
	require.NotNil(t, gotParams.TeacherID)
	assert.Equal(t, teacherID, *gotParams.TeacherID)
}

func TestCourseListBadTeacherID(t *testing.T) {
	svc := &fakeCatalogService{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/courses?teacher_id=oops", nil)

	rec := httptest.NewRecorder()
	CourseList(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeErrorCode(t, rec))
}
