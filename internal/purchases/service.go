package purchases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduport/eduport-backend/pkg/db"
	"github.com/eduport/eduport-backend/pkg/db/models"
	"github.com/eduport/eduport-backend/pkg/enums"
	pkgerrors "github.com/eduport/eduport-backend/pkg/errors"
	"github.com/eduport/eduport-backend/pkg/metrics"
	pkgpagination "github.com/eduport/eduport-backend/pkg/pagination"
)

type courseCatalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type planCatalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
}

type dispatcher interface {
	NotifyOneAsync(ctx context.Context, userID uuid.UUID, ntype enums.NotificationType, title, message string, data map[string]any)
	NotifyAdminsAsync(ctx context.Context, ntype enums.NotificationType, title, message string, data map[string]any)
}

// Service exposes the purchase approval workflow: submission, approve/reject
// decisions, entitlement queries, and revenue rollups.
type Service interface {
	SubmitPlanPurchase(ctx context.Context, customerID, planID uuid.UUID) (*PurchaseDTO, error)
	SubmitCoursePurchase(ctx context.Context, customerID, courseID uuid.UUID) (*PurchaseDTO, error)
	Approve(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, kind enums.PurchaseKind, purchaseID uuid.UUID) (*PurchaseDTO, error)
	Reject(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, kind enums.PurchaseKind, purchaseID uuid.UUID) (*PurchaseDTO, error)
	ListMyLiveEntitlements(ctx context.Context, customerID uuid.UUID, kind enums.PurchaseKind, params ListParams) (*PurchaseList, error)
	ListMyPendingRequests(ctx context.Context, customerID uuid.UUID, kind enums.PurchaseKind, params ListParams) (*PurchaseList, error)
	ListPendingForApprover(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, kind enums.PurchaseKind, params ListParams) (*PurchaseList, error)
	GetAggregateStats(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole) (*AggregateStats, error)
}

type service struct {
	repo    Repository
	courses courseCatalog
	plans   planCatalog
	notify  dispatcher
	metrics *metrics.PurchaseMetrics
	now     func() time.Time
}

// NewService builds the purchase workflow service. The dispatcher and metrics
// may be nil-valued no-ops in tests; repositories are required.
func NewService(repo Repository, courses courseCatalog, plans planCatalog, notify dispatcher, purchaseMetrics *metrics.PurchaseMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchases repository required")
	}
	if courses == nil {
		return nil, fmt.Errorf("course catalog required")
	}
	if plans == nil {
		return nil, fmt.Errorf("plan catalog required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	return &service{
		repo:    repo,
		courses: courses,
		plans:   plans,
		notify:  notify,
		metrics: purchaseMetrics,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) SubmitPlanPurchase(ctx context.Context, customerID, planID uuid.UUID) (*PurchaseDTO, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveDuration("submit_plan", time.Since(started)) }()

	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
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
	if !plan.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "plan is not active")
	}

	now := s.now()
	row := &models.PlanPurchase{
		CustomerID:     customerID,
		PlanID:         plan.ID,
		AmountPaid:     plan.Price,
		DurationDays:   plan.DurationDays,
		PaymentStatus:  enums.PaymentStatusCompleted,
		ApprovalStatus: enums.ApprovalStatusPending,
		PurchasedAt:    now,
		ExpiresAt:      now.AddDate(0, 0, plan.DurationDays),
	}

	created, err := s.repo.CreatePlanPurchase(ctx, row)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			s.metrics.IncSubmission("plan", "conflict")
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a pending or approved purchase of this plan already exists")
		}
		s.metrics.IncSubmission("plan", "error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create plan purchase")
	}
	s.metrics.IncSubmission("plan", "accepted")

	s.notify.NotifyAdminsAsync(ctx, enums.NotificationTypePurchaseRequested,
		"New plan purchase request",
		fmt.Sprintf("A customer requested the %s plan.", plan.Name),
		purchaseEventData(created.ID, enums.PurchaseKindPlan, created.CustomerID, created.PlanID))

	dto := fromPlanPurchase(*created, now)
	return &dto, nil
}

func (s *service) SubmitCoursePurchase(ctx context.Context, customerID, courseID uuid.UUID) (*PurchaseDTO, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveDuration("submit_course", time.Since(started)) }()

	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
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
	if !course.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "course is not active")
	}

	now := s.now()
	row := &models.CoursePurchase{
		CustomerID:     customerID,
		CourseID:       course.ID,
		AmountPaid:     course.Price,
		DurationDays:   course.DurationDays,
		PaymentStatus:  enums.PaymentStatusCompleted,
		ApprovalStatus: enums.ApprovalStatusPending,
		PurchasedAt:    now,
		ExpiresAt:      now.AddDate(0, 0, course.DurationDays),
	}

	created, err := s.repo.CreateCoursePurchase(ctx, row)
	if err != nil {
		// The quota trigger fires before the dedup index, so check it first.
		if db.IsQuotaViolation(err) {
			s.metrics.IncSubmission("course", "quota_exceeded")
			return nil, pkgerrors.New(pkgerrors.CodeQuotaExceeded, "active course limit reached, at most 5 courses can be held at once")
		}
		if db.IsUniqueViolation(err, "") {
			s.metrics.IncSubmission("course", "conflict")
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a pending or approved purchase of this course already exists")
		}
		s.metrics.IncSubmission("course", "error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create course purchase")
	}
	s.metrics.IncSubmission("course", "accepted")

	data := purchaseEventData(created.ID, enums.PurchaseKindCourse, created.CustomerID, created.CourseID)
	s.notify.NotifyOneAsync(ctx, course.TeacherID, enums.NotificationTypeEnrollmentRequest,
		"New enrollment request",
		fmt.Sprintf("A customer wants to join %s.", course.Title), data)
	s.notify.NotifyOneAsync(ctx, course.TeacherID, enums.NotificationTypePurchaseRequested,
		"Course purchased",
		fmt.Sprintf("%s was purchased and is awaiting your approval.", course.Title), data)
	s.notify.NotifyAdminsAsync(ctx, enums.NotificationTypePurchaseRequested,
		"New course purchase request",
		fmt.Sprintf("A customer requested the %s course.", course.Title), data)

	dto := fromCoursePurchase(*created, now)
	return &dto, nil
}

func (s *service) Approve(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, kind enums.PurchaseKind, purchaseID uuid.UUID) (*PurchaseDTO, error) {
	return s.decide(ctx, actorID, actorRole, kind, purchaseID, enums.ApprovalStatusApproved)
}

func (s *service) Reject(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, kind enums.PurchaseKind, purchaseID uuid.UUID) (*PurchaseDTO, error) {
	return s.decide(ctx, actorID, actorRole, kind, purchaseID, enums.ApprovalStatusRejected)
}

func (s *service) decide(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, kind enums.PurchaseKind, purchaseID uuid.UUID, to enums.ApprovalStatus) (*PurchaseDTO, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveDuration("decide", time.Since(started)) }()

	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor identity missing")
	}
	if purchaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id is required")
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase kind")
	}

	switch kind {
	case enums.PurchaseKindPlan:
		return s.decidePlan(ctx, actorID, actorRole, purchaseID, to)
	default:
		return s.decideCourse(ctx, actorID, actorRole, purchaseID, to)
	}
}

func (s *service) decidePlan(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, purchaseID uuid.UUID, to enums.ApprovalStatus) (*PurchaseDTO, error) {
	if actorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can decide plan purchases")
	}

	purchase, err := s.repo.FindPlanPurchaseByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup plan purchase")
	}
	if purchase.ApprovalStatus != enums.ApprovalStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "purchase already processed")
	}

	now := s.now()
	updated, err := s.repo.TransitionPlanPurchase(ctx, purchaseID, to, actorID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition plan purchase")
	}
	if !updated {
		s.metrics.IncDecision("plan", "lost_race")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "purchase already processed")
	}
	s.metrics.IncDecision("plan", to.String())

	purchase.ApprovalStatus = to
	purchase.ApprovedAt = &now
	purchase.ApprovedBy = &actorID

	data := purchaseEventData(purchase.ID, enums.PurchaseKindPlan, purchase.CustomerID, purchase.PlanID)
	if to == enums.ApprovalStatusApproved {
		s.notify.NotifyOneAsync(ctx, purchase.CustomerID, enums.NotificationTypePurchaseApproved,
			"Purchase approved", "Your plan purchase was approved.", data)
	} else {
		s.notify.NotifyOneAsync(ctx, purchase.CustomerID, enums.NotificationTypePurchaseRejected,
			"Purchase rejected", "Your plan purchase was rejected.", data)
	}

	dto := fromPlanPurchase(*purchase, now)
	return &dto, nil
}

func (s *service) decideCourse(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, purchaseID uuid.UUID, to enums.ApprovalStatus) (*PurchaseDTO, error) {
	purchase, err := s.repo.FindCoursePurchaseByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup course purchase")
	}

	course, err := s.courses.FindByID(ctx, purchase.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "course not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup course")
	}
	if course.TeacherID != actorID && actorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "course does not belong to teacher")
	}
	if purchase.ApprovalStatus != enums.ApprovalStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "purchase already processed")
	}

	now := s.now()
	updated, err := s.repo.TransitionCoursePurchase(ctx, purchaseID, to, actorID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition course purchase")
	}
	if !updated {
		s.metrics.IncDecision("course", "lost_race")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "purchase already processed")
	}
	s.metrics.IncDecision("course", to.String())

	purchase.ApprovalStatus = to
	purchase.ApprovedAt = &now
	purchase.ApprovedBy = &actorID

	data := purchaseEventData(purchase.ID, enums.PurchaseKindCourse, purchase.CustomerID, purchase.CourseID)
	if to == enums.ApprovalStatusApproved {
		s.notify.NotifyOneAsync(ctx, purchase.CustomerID, enums.NotificationTypePurchaseApproved,
			"Purchase approved",
			fmt.Sprintf("Your enrollment in %s was approved.", course.Title), data)
		s.notify.NotifyOneAsync(ctx, course.TeacherID, enums.NotificationTypeEnrollmentApproved,
			"New enrollment",
			fmt.Sprintf("A new student joined %s.", course.Title), data)
	} else {
		s.notify.NotifyOneAsync(ctx, purchase.CustomerID, enums.NotificationTypePurchaseRejected,
			"Purchase rejected",
			fmt.Sprintf("Your enrollment in %s was rejected.", course.Title), data)
		s.notify.NotifyOneAsync(ctx, course.TeacherID, enums.NotificationTypePurchaseRejected,
			"Enrollment rejected",
			fmt.Sprintf("You rejected an enrollment request for %s.", course.Title), data)
	}

	dto := fromCoursePurchase(*purchase, now)
	return &dto, nil
}

func (s *service) ListMyLiveEntitlements(ctx context.Context, customerID uuid.UUID, kind enums.PurchaseKind, params ListParams) (*PurchaseList, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase kind")
	}

	query, limit, err := s.buildListQuery(params)
	if err != nil {
		return nil, err
	}

	if kind == enums.PurchaseKindPlan {
		rows, err := s.repo.ListLivePlanPurchases(ctx, customerID, query)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list live plan purchases")
		}
		return s.buildPlanList(rows, limit, query.now), nil
	}

	rows, err := s.repo.ListLiveCoursePurchases(ctx, customerID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list live course purchases")
	}
	return s.buildCourseList(rows, limit, query.now), nil
}

func (s *service) ListMyPendingRequests(ctx context.Context, customerID uuid.UUID, kind enums.PurchaseKind, params ListParams) (*PurchaseList, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase kind")
	}

	query, limit, err := s.buildListQuery(params)
	if err != nil {
		return nil, err
	}

	if kind == enums.PurchaseKindPlan {
		rows, err := s.repo.ListPendingPlanPurchasesByCustomer(ctx, customerID, query)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending plan purchases")
		}
		return s.buildPlanList(rows, limit, query.now), nil
	}

	rows, err := s.repo.ListPendingCoursePurchasesByCustomer(ctx, customerID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending course purchases")
	}
	return s.buildCourseList(rows, limit, query.now), nil
}

func (s *service) ListPendingForApprover(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, kind enums.PurchaseKind, params ListParams) (*PurchaseList, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor identity missing")
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase kind")
	}

	query, limit, err := s.buildListQuery(params)
	if err != nil {
		return nil, err
	}

	if kind == enums.PurchaseKindPlan {
		if actorRole != enums.UserRoleAdmin {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can review plan purchases")
		}
		rows, err := s.repo.ListPendingPlanPurchases(ctx, query)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending plan purchases")
		}
		return s.buildPlanList(rows, limit, query.now), nil
	}

	switch actorRole {
	case enums.UserRoleAdmin:
		// Admins see the whole queue.
	case enums.UserRoleTeacher:
		query.teacherID = &actorID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only teachers and admins can review course purchases")
	}

	rows, err := s.repo.ListPendingCoursePurchases(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending course purchases")
	}
	return s.buildCourseList(rows, limit, query.now), nil
}

func (s *service) GetAggregateStats(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole) (*AggregateStats, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor identity missing")
	}

	switch actorRole {
	case enums.UserRoleAdmin:
		plans, err := s.repo.PlanStats(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate plan stats")
		}
		courses, err := s.repo.CourseStats(ctx, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate course stats")
		}
		return &AggregateStats{Plans: plans, Courses: courses}, nil
	case enums.UserRoleTeacher:
		courses, err := s.repo.CourseStats(ctx, &actorID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate course stats")
		}
		return &AggregateStats{Courses: courses}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "stats are restricted to teachers and admins")
	}
}

func (s *service) buildListQuery(params ListParams) (listQuery, int, error) {
	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := listQuery{
		limit: pkgpagination.LimitWithBuffer(params.Limit),
		now:   s.now(),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return listQuery{}, 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}
	return query, limit, nil
}

func (s *service) buildPlanList(rows []models.PlanPurchase, limit int, now time.Time) *PurchaseList {
	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}
	items := make([]PurchaseDTO, len(rows))
	for i, row := range rows {
		items[i] = fromPlanPurchase(row, now)
	}
	return &PurchaseList{Items: items, Cursor: nextCursor}
}

func (s *service) buildCourseList(rows []models.CoursePurchase, limit int, now time.Time) *PurchaseList {
	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}
	items := make([]PurchaseDTO, len(rows))
	for i, row := range rows {
		items[i] = fromCoursePurchase(row, now)
	}
	return &PurchaseList{Items: items, Cursor: nextCursor}
}

func purchaseEventData(purchaseID uuid.UUID, kind enums.PurchaseKind, customerID, itemID uuid.UUID) map[string]any {
	return map[string]any{
		"purchase_id": purchaseID.String(),
		"kind":        kind.String(),
		"customer_id": customerID.String(),
		"item_id":     itemID.String(),
	}
}
