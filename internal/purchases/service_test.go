package purchases

import (
	"context"
	"errors"
	"fmt"
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

type fakeRepo struct {
	createPlanFn       func(ctx context.Context, row *models.PlanPurchase) (*models.PlanPurchase, error)
	createCourseFn     func(ctx context.Context, row *models.CoursePurchase) (*models.CoursePurchase, error)
	findPlanFn         func(ctx context.Context, id uuid.UUID) (*models.PlanPurchase, error)
	findCourseFn       func(ctx context.Context, id uuid.UUID) (*models.CoursePurchase, error)
	transitionPlanFn   func(ctx context.Context, id uuid.UUID, to enums.ApprovalStatus, actorID uuid.UUID, decidedAt time.Time) (bool, error)
	transitionCourseFn func(ctx context.Context, id uuid.UUID, to enums.ApprovalStatus, actorID uuid.UUID, decidedAt time.Time) (bool, error)
	livePlansFn        func(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.PlanPurchase, error)
	liveCoursesFn      func(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.CoursePurchase, error)
	pendingPlansByFn   func(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.PlanPurchase, error)
	pendingCoursesByFn func(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.CoursePurchase, error)
	pendingPlansFn     func(ctx context.Context, opts listQuery) ([]models.PlanPurchase, error)
	pendingCoursesFn   func(ctx context.Context, opts listQuery) ([]models.CoursePurchase, error)
	planStatsFn        func(ctx context.Context) ([]PlanStatsRow, error)
	courseStatsFn      func(ctx context.Context, teacherID *uuid.UUID) ([]CourseStatsRow, error)
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) CreatePlanPurchase(ctx context.Context, row *models.PlanPurchase) (*models.PlanPurchase, error) {
	return f.createPlanFn(ctx, row)
}

func (f *fakeRepo) CreateCoursePurchase(ctx context.Context, row *models.CoursePurchase) (*models.CoursePurchase, error) {
	return f.createCourseFn(ctx, row)
}

func (f *fakeRepo) FindPlanPurchaseByID(ctx context.Context, id uuid.UUID) (*models.PlanPurchase, error) {
	return f.findPlanFn(ctx, id)
}

func (f *fakeRepo) FindCoursePurchaseByID(ctx context.Context, id uuid.UUID) (*models.CoursePurchase, error) {
	return f.findCourseFn(ctx, id)
}

func (f *fakeRepo) TransitionPlanPurchase(ctx context.Context, id uuid.UUID, to enums.ApprovalStatus, actorID uuid.UUID, decidedAt time.Time) (bool, error) {
	return f.transitionPlanFn(ctx, id, to, actorID, decidedAt)
}

func (f *fakeRepo) TransitionCoursePurchase(ctx context.Context, id uuid.UUID, to enums.ApprovalStatus, actorID uuid.UUID, decidedAt time.Time) (bool, error) {
	return f.transitionCourseFn(ctx, id, to, actorID, decidedAt)
}

func (f *fakeRepo) ListLivePlanPurchases(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.PlanPurchase, error) {
	return f.livePlansFn(ctx, customerID, opts)
}

func (f *fakeRepo) ListLiveCoursePurchases(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.CoursePurchase, error) {
	return f.liveCoursesFn(ctx, customerID, opts)
}

func (f *fakeRepo) ListPendingPlanPurchasesByCustomer(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.PlanPurchase, error) {
	return f.pendingPlansByFn(ctx, customerID, opts)
}

func (f *fakeRepo) ListPendingCoursePurchasesByCustomer(ctx context.Context, customerID uuid.UUID, opts listQuery) ([]models.CoursePurchase, error) {
	return f.pendingCoursesByFn(ctx, customerID, opts)
}

func (f *fakeRepo) ListPendingPlanPurchases(ctx context.Context, opts listQuery) ([]models.PlanPurchase, error) {
	return f.pendingPlansFn(ctx, opts)
}

func (f *fakeRepo) ListPendingCoursePurchases(ctx context.Context, opts listQuery) ([]models.CoursePurchase, error) {
	return f.pendingCoursesFn(ctx, opts)
}

func (f *fakeRepo) PlanStats(ctx context.Context) ([]PlanStatsRow, error) {
	return f.planStatsFn(ctx)
}

func (f *fakeRepo) CourseStats(ctx context.Context, teacherID *uuid.UUID) ([]CourseStatsRow, error) {
	return f.courseStatsFn(ctx, teacherID)
}

type fakeCourseCatalog struct {
	findFn func(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

func (f *fakeCourseCatalog) FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	return f.findFn(ctx, id)
}

type fakePlanCatalog struct {
	findFn func(ctx context.Context, id uuid.UUID) (*models.Plan, error)
}

func (f *fakePlanCatalog) FindByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	return f.findFn(ctx, id)
}

type sentNote struct {
	userID  uuid.UUID
	ntype   enums.NotificationType
	title   string
	message string
	data    map[string]any
}

type fakeDispatcher struct {
	notes      []sentNote
	adminNotes []sentNote
}

func (f *fakeDispatcher) NotifyOneAsync(ctx context.Context, userID uuid.UUID, ntype enums.NotificationType, title, message string, data map[string]any) {
	f.notes = append(f.notes, sentNote{userID: userID, ntype: ntype, title: title, message: message, data: data})
}

func (f *fakeDispatcher) NotifyAdminsAsync(ctx context.Context, ntype enums.NotificationType, title, message string, data map[string]any) {
	f.adminNotes = append(f.adminNotes, sentNote{ntype: ntype, title: title, message: message, data: data})
}

func newPurchaseService(t *testing.T, repo Repository, courses courseCatalog, plans planCatalog, notify dispatcher) *service {
	t.Helper()
	svc, err := NewService(repo, courses, plans, notify, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc.(*service)
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

func activePlan(durationDays int) *models.Plan {
	return &models.Plan{
		ID:           uuid.New(),
		Name:         "Monthly",
		Price:        decimal.NewFromInt(20),
		DurationDays: durationDays,
		IsActive:     true,
	}
}

func activeCourse(teacherID uuid.UUID, durationDays int) *models.Course {
	return &models.Course{
		ID:           uuid.New(),
		TeacherID:    teacherID,
		Title:        "Go Basics",
		Price:        decimal.NewFromInt(50),
		DurationDays: durationDays,
		IsActive:     true,
	}
}

func TestSubmitPlanPurchaseSnapshotsExpiry(t *testing.T) {
	plan := activePlan(30)
	var captured *models.PlanPurchase
	repo := &fakeRepo{
		createPlanFn: func(ctx context.Context, row *models.PlanPurchase) (*models.PlanPurchase, error) {
			captured = row
			row.ID = uuid.New()
			return row, nil
		},
	}
	notify := &fakeDispatcher{}
	svc := newPurchaseService(t, repo, &fakeCourseCatalog{}, &fakePlanCatalog{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Plan, error) { return plan, nil },
	}, notify)

	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }

	dto, err := svc.SubmitPlanPurchase(context.Background(), uuid.New(), plan.ID)
	if err != nil {
		t.Fatalf("submit plan purchase: %v", err)
	}
	if captured == nil {
		t.Fatalf("repo never called")
	}
	wantExpiry := frozen.AddDate(0, 0, 30)
	if !captured.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expires_at %v, got %v", wantExpiry, captured.ExpiresAt)
	}
	if captured.ApprovalStatus != enums.ApprovalStatusPending {
		t.Fatalf("expected pending approval status, got %s", captured.ApprovalStatus)
	}
	if captured.PaymentStatus != enums.PaymentStatusCompleted {
		t.Fatalf("expected completed payment status, got %s", captured.PaymentStatus)
	}
	if !captured.AmountPaid.Equal(plan.Price) {
		t.Fatalf("expected amount %s, got %s", plan.Price, captured.AmountPaid)
	}
	if dto.Status != statusPendingApproval {
		t.Fatalf("expected status %q, got %q", statusPendingApproval, dto.Status)
	}
	if len(notify.adminNotes) != 1 {
		t.Fatalf("expected one admin notification, got %d", len(notify.adminNotes))
	}
	if notify.adminNotes[0].ntype != enums.NotificationTypePurchaseRequested {
		t.Fatalf("unexpected admin notification type %s", notify.adminNotes[0].ntype)
	}
}

func TestSubmitPlanPurchaseInactivePlan(t *testing.T) {
	plan := activePlan(30)
	plan.IsActive = false
	svc := newPurchaseService(t, &fakeRepo{}, &fakeCourseCatalog{}, &fakePlanCatalog{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Plan, error) { return plan, nil },
	}, &fakeDispatcher{})

	_, err := svc.SubmitPlanPurchase(context.Background(), uuid.New(), plan.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestSubmitPlanPurchaseNotFound(t *testing.T) {
	svc := newPurchaseService(t, &fakeRepo{}, &fakeCourseCatalog{}, &fakePlanCatalog{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Plan, error) { return nil, gorm.ErrRecordNotFound },
	}, &fakeDispatcher{})

	_, err := svc.SubmitPlanPurchase(context.Background(), uuid.New(), uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestSubmitPlanPurchaseDuplicate(t *testing.T) {
	plan := activePlan(30)
	repo := &fakeRepo{
		createPlanFn: func(ctx context.Context, row *models.PlanPurchase) (*models.PlanPurchase, error) {
			return nil, errors.New(`duplicate key value violates unique constraint "idx_plan_purchases_customer_plan_live"`)
		},
	}
	svc := newPurchaseService(t, repo, &fakeCourseCatalog{}, &fakePlanCatalog{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Plan, error) { return plan, nil },
	}, &fakeDispatcher{})

	_, err := svc.SubmitPlanPurchase(context.Background(), uuid.New(), plan.ID)
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestSubmitCoursePurchaseQuotaTranslated(t *testing.T) {
	course := activeCourse(uuid.New(), 30)
	repo := &fakeRepo{
		createCourseFn: func(ctx context.Context, row *models.CoursePurchase) (*models.CoursePurchase, error) {
			return nil, fmt.Errorf("pq: course_purchase_quota: active course limit reached")
		},
	}
	notify := &fakeDispatcher{}
	svc := newPurchaseService(t, repo, &fakeCourseCatalog{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Course, error) { return course, nil },
	}, &fakePlanCatalog{}, notify)

	_, err := svc.SubmitCoursePurchase(context.Background(), uuid.New(), course.ID)
	expectCode(t, err, pkgerrors.CodeQuotaExceeded)
	if len(notify.notes) != 0 || len(notify.adminNotes) != 0 {
		t.Fatalf("no notifications expected on quota failure")
	}
}

func TestSubmitCoursePurchaseNotifiesTeacherAndAdmins(t *testing.T) {
	teacherID := uuid.New()
	course := activeCourse(teacherID, 60)
	repo := &fakeRepo{
		createCourseFn: func(ctx context.Context, row *models.CoursePurchase) (*models.CoursePurchase, error) {
			row.ID = uuid.New()
			return row, nil
		},
	}
	notify := &fakeDispatcher{}
	svc := newPurchaseService(t, repo, &fakeCourseCatalog{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Course, error) { return course, nil },
	}, &fakePlanCatalog{}, notify)

	if _, err := svc.SubmitCoursePurchase(context.Background(), uuid.New(), course.ID); err != nil {
		t.Fatalf("submit course purchase: %v", err)
	}

	if len(notify.notes) != 2 {
		t.Fatalf("expected two teacher notifications, got %d", len(notify.notes))
	}
	for _, note := range notify.notes {
		if note.userID != teacherID {
			t.Fatalf("teacher notification sent to %s", note.userID)
		}
	}
	if notify.notes[0].ntype != enums.NotificationTypeEnrollmentRequest {
		t.Fatalf("expected enrollment_request first, got %s", notify.notes[0].ntype)
	}
	if len(notify.adminNotes) != 1 {
		t.Fatalf("expected one admin notification, got %d", len(notify.adminNotes))
	}
}

func TestApprovePlanRequiresAdmin(t *testing.T) {
	svc := newPurchaseService(t, &fakeRepo{}, &fakeCourseCatalog{}, &fakePlanCatalog{}, &fakeDispatcher{})

	_, err := svc.Approve(context.Background(), uuid.New(), enums.UserRoleTeacher, enums.PurchaseKindPlan, uuid.New())
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestApproveAlreadyProcessed(t *testing.T) {
	done := time.Now().UTC()
	actor := uuid.New()
	repo := &fakeRepo{
		findPlanFn: func(ctx context.Context, id uuid.UUID) (*models.PlanPurchase, error) {
			return &models.PlanPurchase{
				ID:             id,
				ApprovalStatus: enums.ApprovalStatusApproved,
				ApprovedAt:     &done,
				ApprovedBy:     &actor,
			}, nil
		},
	}
	svc := newPurchaseService(t, repo, &fakeCourseCatalog{}, &fakePlanCatalog{}, &fakeDispatcher{})

	_, err := svc.Approve(context.Background(), uuid.New(), enums.UserRoleAdmin, enums.PurchaseKindPlan, uuid.New())
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestApproveLostRaceObservesStateConflict(t *testing.T) {
	repo := &fakeRepo{
		findPlanFn: func(ctx context.Context, id uuid.UUID) (*models.PlanPurchase, error) {
			return &models.PlanPurchase{ID: id, ApprovalStatus: enums.ApprovalStatusPending}, nil
		},
		transitionPlanFn: func(ctx context.Context, id uuid.UUID, to enums.ApprovalStatus, actorID uuid.UUID, decidedAt time.Time) (bool, error) {
			// Another decision landed between the read and the update.
			return false, nil
		},
	}
	notify := &fakeDispatcher{}
	svc := newPurchaseService(t, repo, &fakeCourseCatalog{}, &fakePlanCatalog{}, notify)

	_, err := svc.Approve(context.Background(), uuid.New(), enums.UserRoleAdmin, enums.PurchaseKindPlan, uuid.New())
	expectCode(t, err, pkgerrors.CodeStateConflict)
	if len(notify.notes) != 0 {
		t.Fatalf("no notifications expected when the decision lost the race")
	}
}

func TestApprovePlanNotifiesCustomer(t *testing.T) {
	customerID := uuid.New()
	adminID := uuid.New()
	var transitionedTo enums.ApprovalStatus
	repo := &fakeRepo{
		findPlanFn: func(ctx context.Context, id uuid.UUID) (*models.PlanPurchase, error) {
			return &models.PlanPurchase{ID: id, CustomerID: customerID, PlanID: uuid.New(), ApprovalStatus: enums.ApprovalStatusPending}, nil
		},
		transitionPlanFn: func(ctx context.Context, id uuid.UUID, to enums.ApprovalStatus, actorID uuid.UUID, decidedAt time.Time) (bool, error) {
			transitionedTo = to
			if actorID != adminID {
				t.Fatalf("expected actor %s, got %s", adminID, actorID)
			}
			return true, nil
		},
	}
	notify := &fakeDispatcher{}
	svc := newPurchaseService(t, repo, &fakeCourseCatalog{}, &fakePlanCatalog{}, notify)

	dto, err := svc.Approve(context.Background(), adminID, enums.UserRoleAdmin, enums.PurchaseKindPlan, uuid.New())
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if transitionedTo != enums.ApprovalStatusApproved {
		t.Fatalf("expected transition to approved, got %s", transitionedTo)
	}
	if dto.ApprovalStatus != enums.ApprovalStatusApproved {
		t.Fatalf("dto approval status %s", dto.ApprovalStatus)
	}
	if dto.ApprovedBy == nil || *dto.ApprovedBy != adminID {
		t.Fatalf("approved_by not recorded")
	}
	if len(notify.notes) != 1 || notify.notes[0].userID != customerID {
		t.Fatalf("expected one customer notification")
	}
	if notify.notes[0].ntype != enums.NotificationTypePurchaseApproved {
		t.Fatalf("unexpected notification type %s", notify.notes[0].ntype)
	}
}

func TestDecideCourseOwnership(t *testing.T) {
	teacherID := uuid.New()
	course := activeCourse(teacherID, 30)
	repo := &fakeRepo{
		findCourseFn: func(ctx context.Context, id uuid.UUID) (*models.CoursePurchase, error) {
			return &models.CoursePurchase{ID: id, CourseID: course.ID, CustomerID: uuid.New(), ApprovalStatus: enums.ApprovalStatusPending}, nil
		},
		transitionCourseFn: func(ctx context.Context, id uuid.UUID, to enums.ApprovalStatus, actorID uuid.UUID, decidedAt time.Time) (bool, error) {
			return true, nil
		},
	}
	notify := &fakeDispatcher{}
	svc := newPurchaseService(t, repo, &fakeCourseCatalog{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Course, error) { return course, nil },
	}, &fakePlanCatalog{}, notify)

	_, err := svc.Approve(context.Background(), uuid.New(), enums.UserRoleTeacher, enums.PurchaseKindCourse, uuid.New())
	expectCode(t, err, pkgerrors.CodeForbidden)

	if _, err := svc.Approve(context.Background(), teacherID, enums.UserRoleTeacher, enums.PurchaseKindCourse, uuid.New()); err != nil {
		t.Fatalf("owning teacher approve: %v", err)
	}
	if _, err := svc.Approve(context.Background(), uuid.New(), enums.UserRoleAdmin, enums.PurchaseKindCourse, uuid.New()); err != nil {
		t.Fatalf("admin approve: %v", err)
	}
}

func TestRejectCourseNotifiesCustomerAndTeacher(t *testing.T) {
	teacherID := uuid.New()
	customerID := uuid.New()
	course := activeCourse(teacherID, 30)
	repo := &fakeRepo{
		findCourseFn: func(ctx context.Context, id uuid.UUID) (*models.CoursePurchase, error) {
			return &models.CoursePurchase{ID: id, CourseID: course.ID, CustomerID: customerID, ApprovalStatus: enums.ApprovalStatusPending}, nil
		},
		transitionCourseFn: func(ctx context.Context, id uuid.UUID, to enums.ApprovalStatus, actorID uuid.UUID, decidedAt time.Time) (bool, error) {
			if to != enums.ApprovalStatusRejected {
				t.Fatalf("expected transition to rejected, got %s", to)
			}
			return true, nil
		},
	}
	notify := &fakeDispatcher{}
	svc := newPurchaseService(t, repo, &fakeCourseCatalog{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Course, error) { return course, nil },
	}, &fakePlanCatalog{}, notify)

	dto, err := svc.Reject(context.Background(), teacherID, enums.UserRoleTeacher, enums.PurchaseKindCourse, uuid.New())
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if dto.Status != statusRejected {
		t.Fatalf("expected status %q, got %q", statusRejected, dto.Status)
	}
	if len(notify.notes) != 2 {
		t.Fatalf("expected two notifications, got %d", len(notify.notes))
	}
	if notify.notes[0].userID != customerID || notify.notes[0].ntype != enums.NotificationTypePurchaseRejected {
		t.Fatalf("customer rejection notification missing")
	}
	if notify.notes[1].userID != teacherID {
		t.Fatalf("teacher rejection notification missing")
	}
}

func TestListMyLiveEntitlementsPagination(t *testing.T) {
	now := time.Now().UTC()
	customerID := uuid.New()
	rows := []models.CoursePurchase{
		{ID: uuid.New(), CustomerID: customerID, ApprovalStatus: enums.ApprovalStatusApproved, ExpiresAt: now.Add(time.Hour), CreatedAt: now},
		{ID: uuid.New(), CustomerID: customerID, ApprovalStatus: enums.ApprovalStatusApproved, ExpiresAt: now.Add(time.Hour), CreatedAt: now.Add(-time.Minute)},
	}
	repo := &fakeRepo{
		liveCoursesFn: func(ctx context.Context, gotCustomer uuid.UUID, opts listQuery) ([]models.CoursePurchase, error) {
			if gotCustomer != customerID {
				t.Fatalf("wrong customer id")
			}
			if opts.limit != 2 {
				t.Fatalf("expected buffered limit 2, got %d", opts.limit)
			}
			if opts.now.IsZero() {
				t.Fatalf("query time not set")
			}
			return rows, nil
		},
	}
	svc := newPurchaseService(t, repo, &fakeCourseCatalog{}, &fakePlanCatalog{}, &fakeDispatcher{})

	list, err := svc.ListMyLiveEntitlements(context.Background(), customerID, enums.PurchaseKindCourse, ListParams{Params: pkgpagination.Params{Limit: 1}})
	if err != nil {
		t.Fatalf("list live entitlements: %v", err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(list.Items))
	}
	if list.Cursor == "" {
		t.Fatalf("expected next cursor")
	}
	if list.Items[0].Status != statusActive {
		t.Fatalf("expected active status, got %q", list.Items[0].Status)
	}
}

func TestListPendingForApproverScoping(t *testing.T) {
	teacherID := uuid.New()
	var seenTeacher *uuid.UUID
	repo := &fakeRepo{
		pendingCoursesFn: func(ctx context.Context, opts listQuery) ([]models.CoursePurchase, error) {
			seenTeacher = opts.teacherID
			return nil, nil
		},
		pendingPlansFn: func(ctx context.Context, opts listQuery) ([]models.PlanPurchase, error) {
			return nil, nil
		},
	}
	svc := newPurchaseService(t, repo, &fakeCourseCatalog{}, &fakePlanCatalog{}, &fakeDispatcher{})

	if _, err := svc.ListPendingForApprover(context.Background(), teacherID, enums.UserRoleTeacher, enums.PurchaseKindCourse, ListParams{}); err != nil {
		t.Fatalf("teacher queue: %v", err)
	}
	if seenTeacher == nil || *seenTeacher != teacherID {
		t.Fatalf("teacher queue not scoped to teacher")
	}

	if _, err := svc.ListPendingForApprover(context.Background(), uuid.New(), enums.UserRoleAdmin, enums.PurchaseKindCourse, ListParams{}); err != nil {
		t.Fatalf("admin queue: %v", err)
	}
	if seenTeacher != nil {
		t.Fatalf("admin queue must not be teacher scoped")
	}

	_, err := svc.ListPendingForApprover(context.Background(), uuid.New(), enums.UserRoleCustomer, enums.PurchaseKindCourse, ListParams{})
	expectCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.ListPendingForApprover(context.Background(), teacherID, enums.UserRoleTeacher, enums.PurchaseKindPlan, ListParams{})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestGetAggregateStatsByRole(t *testing.T) {
	teacherID := uuid.New()
	repo := &fakeRepo{
		planStatsFn: func(ctx context.Context) ([]PlanStatsRow, error) {
			return []PlanStatsRow{{PlanName: "Monthly", TotalPurchases: 3}}, nil
		},
		courseStatsFn: func(ctx context.Context, gotTeacher *uuid.UUID) ([]CourseStatsRow, error) {
			if gotTeacher != nil && *gotTeacher != teacherID {
				t.Fatalf("unexpected teacher filter %s", *gotTeacher)
			}
			return []CourseStatsRow{{CourseTitle: "Go Basics", TotalPurchases: 5}}, nil
		},
	}
	svc := newPurchaseService(t, repo, &fakeCourseCatalog{}, &fakePlanCatalog{}, &fakeDispatcher{})

	adminStats, err := svc.GetAggregateStats(context.Background(), uuid.New(), enums.UserRoleAdmin)
	if err != nil {
		t.Fatalf("admin stats: %v", err)
	}
	if len(adminStats.Plans) != 1 || len(adminStats.Courses) != 1 {
		t.Fatalf("admin stats incomplete")
	}

	teacherStats, err := svc.GetAggregateStats(context.Background(), teacherID, enums.UserRoleTeacher)
	if err != nil {
		t.Fatalf("teacher stats: %v", err)
	}
	if len(teacherStats.Plans) != 0 {
		t.Fatalf("teacher stats must not include plans")
	}

	_, err = svc.GetAggregateStats(context.Background(), uuid.New(), enums.UserRoleCustomer)
	expectCode(t, err, pkgerrors.CodeForbidden)
}
