package purchases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eduport/eduport-backend/pkg/db"
	"github.com/eduport/eduport-backend/pkg/db/models"
	"github.com/eduport/eduport-backend/pkg/enums"
)

func setupPurchasesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	courses := `
CREATE TABLE IF NOT EXISTS courses (
  id TEXT PRIMARY KEY,
  teacher_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL,
  duration_days INTEGER NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	plans := `
CREATE TABLE IF NOT EXISTS plans (
  id TEXT PRIMARY KEY,
  created_by TEXT,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL,
  duration_days INTEGER NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	planPurchases := `
CREATE TABLE IF NOT EXISTS plan_purchases (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  plan_id TEXT NOT NULL,
  amount_paid NUMERIC NOT NULL,
  duration_days INTEGER NOT NULL,
  payment_status TEXT NOT NULL,
  approval_status TEXT NOT NULL,
  purchased_at DATETIME NOT NULL,
  approved_at DATETIME,
  approved_by TEXT,
  expires_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	coursePurchases := `
CREATE TABLE IF NOT EXISTS course_purchases (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  amount_paid NUMERIC NOT NULL,
  duration_days INTEGER NOT NULL,
  payment_status TEXT NOT NULL,
  approval_status TEXT NOT NULL,
  purchased_at DATETIME NOT NULL,
  approved_at DATETIME,
  approved_by TEXT,
  expires_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	planDedup := `
CREATE UNIQUE INDEX IF NOT EXISTS idx_plan_purchases_customer_plan_live
ON plan_purchases (customer_id, plan_id)
WHERE approval_status IN ('pending', 'approved');`
	courseDedup := `
CREATE UNIQUE INDEX IF NOT EXISTS idx_course_purchases_customer_course_live
ON course_purchases (customer_id, course_id)
WHERE approval_status IN ('pending', 'approved');`
	quotaTrigger := `
CREATE TRIGGER IF NOT EXISTS course_purchase_quota
BEFORE INSERT ON course_purchases
WHEN (
  SELECT COUNT(*) FROM course_purchases
  WHERE customer_id = NEW.customer_id
    AND approval_status = 'approved'
    AND payment_status = 'completed'
    AND expires_at > datetime('now')
) >= 5
BEGIN
  SELECT RAISE(ABORT, 'course_purchase_quota: active course limit reached');
END;`

	require.NoError(t, conn.Exec(courses).Error)
	require.NoError(t, conn.Exec(plans).Error)
	require.NoError(t, conn.Exec(planPurchases).Error)
	require.NoError(t, conn.Exec(coursePurchases).Error)
	require.NoError(t, conn.Exec(planDedup).Error)
	require.NoError(t, conn.Exec(courseDedup).Error)
	require.NoError(t, conn.Exec(quotaTrigger).Error)
	return conn
}

func newCourse(t *testing.T, conn *gorm.DB, teacherID uuid.UUID, title string) *models.Course {
	t.Helper()

	course := &models.Course{
		ID:           uuid.New(),
		TeacherID:    teacherID,
		Title:        title,
		Price:        decimal.NewFromInt(50),
		DurationDays: 30,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(course).Error)
	return course
}

func newCoursePurchase(customerID, courseID uuid.UUID, status enums.ApprovalStatus, expiresAt time.Time) *models.CoursePurchase {
	now := time.Now().UTC()
	return &models.CoursePurchase{
		ID:             uuid.New(),
		CustomerID:     customerID,
		CourseID:       courseID,
		AmountPaid:     decimal.NewFromInt(50),
		DurationDays:   30,
		PaymentStatus:  enums.PaymentStatusCompleted,
		ApprovalStatus: status,
		PurchasedAt:    now,
		ExpiresAt:      expiresAt,
	}
}

func newPlanPurchase(customerID, planID uuid.UUID, status enums.ApprovalStatus, expiresAt time.Time) *models.PlanPurchase {
	now := time.Now().UTC()
	return &models.PlanPurchase{
		ID:             uuid.New(),
		CustomerID:     customerID,
		PlanID:         planID,
		AmountPaid:     decimal.NewFromInt(20),
		DurationDays:   30,
		PaymentStatus:  enums.PaymentStatusCompleted,
		ApprovalStatus: status,
		PurchasedAt:    now,
		ExpiresAt:      expiresAt,
	}
}

func TestCoursePurchaseQuotaGuard(t *testing.T) {
	conn := setupPurchasesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customerID := uuid.New()
	future := time.Now().UTC().Add(30 * 24 * time.Hour)

	for i := 0; i < 5; i++ {
		row := newCoursePurchase(customerID, uuid.New(), enums.ApprovalStatusApproved, future)
		_, err := repo.CreateCoursePurchase(ctx, row)
		require.NoError(t, err)
	}

	sixth := newCoursePurchase(customerID, uuid.New(), enums.ApprovalStatusPending, future)
	_, err := repo.CreateCoursePurchase(ctx, sixth)
	require.Error(t, err)
	assert.True(t, db.IsQuotaViolation(err), "expected quota marker in %v", err)

	// Expire one entitlement and the next submission goes through.
	past := time.Now().UTC().Add(-24 * time.Hour)
	var victim models.CoursePurchase
	require.NoError(t, conn.Where("customer_id = ?", customerID).First(&victim).Error)
	require.NoError(t, conn.Model(&models.CoursePurchase{}).Where("id = ?", victim.ID).UpdateColumn("expires_at", past).Error)

	retry := newCoursePurchase(customerID, uuid.New(), enums.ApprovalStatusPending, future)
	_, err = repo.CreateCoursePurchase(ctx, retry)
	require.NoError(t, err)
}

func TestCoursePurchaseDedup(t *testing.T) {
	conn := setupPurchasesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customerID := uuid.New()
	courseID := uuid.New()
	future := time.Now().UTC().Add(30 * 24 * time.Hour)

	first := newCoursePurchase(customerID, courseID, enums.ApprovalStatusPending, future)
	_, err := repo.CreateCoursePurchase(ctx, first)
	require.NoError(t, err)

	dup := newCoursePurchase(customerID, courseID, enums.ApprovalStatusPending, future)
	_, err = repo.CreateCoursePurchase(ctx, dup)
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""), "expected unique violation, got %v", err)

	// Once the first request is rejected the customer may try again.
	updated, err := repo.TransitionCoursePurchase(ctx, first.ID, enums.ApprovalStatusRejected, uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	require.True(t, updated)

	retry := newCoursePurchase(customerID, courseID, enums.ApprovalStatusPending, future)
	_, err = repo.CreateCoursePurchase(ctx, retry)
	require.NoError(t, err)
}

func TestTransitionSingleWinner(t *testing.T) {
	conn := setupPurchasesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	planID := uuid.New()
	future := time.Now().UTC().Add(30 * 24 * time.Hour)
	row := newPlanPurchase(uuid.New(), planID, enums.ApprovalStatusPending, future)
	_, err := repo.CreatePlanPurchase(ctx, row)
	require.NoError(t, err)

	approver := uuid.New()
	decidedAt := time.Now().UTC()

	updated, err := repo.TransitionPlanPurchase(ctx, row.ID, enums.ApprovalStatusApproved, approver, decidedAt)
	require.NoError(t, err)
	assert.True(t, updated)

	// A competing reject after the approve must lose.
	updated, err = repo.TransitionPlanPurchase(ctx, row.ID, enums.ApprovalStatusRejected, uuid.New(), decidedAt)
	require.NoError(t, err)
	assert.False(t, updated)

	stored, err := repo.FindPlanPurchaseByID(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ApprovalStatusApproved, stored.ApprovalStatus)
	require.NotNil(t, stored.ApprovedBy)
	assert.Equal(t, approver, *stored.ApprovedBy)
	require.NotNil(t, stored.ApprovedAt)
}

func TestListLiveCoursePurchasesFiltersAtQueryTime(t *testing.T) {
	conn := setupPurchasesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customerID := uuid.New()
	now := time.Now().UTC()
	future := now.Add(30 * 24 * time.Hour)
	past := now.Add(-time.Hour)

	live := newCoursePurchase(customerID, uuid.New(), enums.ApprovalStatusApproved, future)
	_, err := repo.CreateCoursePurchase(ctx, live)
	require.NoError(t, err)

	// Approved but expired: the row survives, the query hides it.
	expired := newCoursePurchase(customerID, uuid.New(), enums.ApprovalStatusApproved, future)
	_, err = repo.CreateCoursePurchase(ctx, expired)
	require.NoError(t, err)
	require.NoError(t, conn.Model(&models.CoursePurchase{}).Where("id = ?", expired.ID).UpdateColumn("expires_at", past).Error)

	pending := newCoursePurchase(customerID, uuid.New(), enums.ApprovalStatusPending, future)
	_, err = repo.CreateCoursePurchase(ctx, pending)
	require.NoError(t, err)

	rows, err := repo.ListLiveCoursePurchases(ctx, customerID, listQuery{limit: 10, now: now})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, live.ID, rows[0].ID)

	var count int64
	require.NoError(t, conn.Model(&models.CoursePurchase{}).Where("id = ?", expired.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListPendingCoursePurchasesScopedToTeacher(t *testing.T) {
	conn := setupPurchasesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	teacherID := uuid.New()
	otherTeacherID := uuid.New()
	mine := newCourse(t, conn, teacherID, "Mine")
	theirs := newCourse(t, conn, otherTeacherID, "Theirs")

	future := time.Now().UTC().Add(30 * 24 * time.Hour)
	minePending := newCoursePurchase(uuid.New(), mine.ID, enums.ApprovalStatusPending, future)
	_, err := repo.CreateCoursePurchase(ctx, minePending)
	require.NoError(t, err)
	_, err = repo.CreateCoursePurchase(ctx, newCoursePurchase(uuid.New(), theirs.ID, enums.ApprovalStatusPending, future))
	require.NoError(t, err)

	rows, err := repo.ListPendingCoursePurchases(ctx, listQuery{limit: 10, now: time.Now().UTC(), teacherID: &teacherID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, minePending.ID, rows[0].ID)

	all, err := repo.ListPendingCoursePurchases(ctx, listQuery{limit: 10, now: time.Now().UTC()})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), 2)
}

func TestCourseStatsAggregation(t *testing.T) {
	conn := setupPurchasesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	teacherID := uuid.New()
	course := newCourse(t, conn, teacherID, "Stats 101")
	future := time.Now().UTC().Add(30 * 24 * time.Hour)

	approved := newCoursePurchase(uuid.New(), course.ID, enums.ApprovalStatusApproved, future)
	approved.AmountPaid = decimal.NewFromInt(75)
	_, err := repo.CreateCoursePurchase(ctx, approved)
	require.NoError(t, err)
	_, err = repo.CreateCoursePurchase(ctx, newCoursePurchase(uuid.New(), course.ID, enums.ApprovalStatusPending, future))
	require.NoError(t, err)

	rows, err := repo.CourseStats(ctx, &teacherID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, course.ID, rows[0].CourseID)
	assert.Equal(t, int64(2), rows[0].TotalPurchases)
	assert.Equal(t, int64(1), rows[0].PendingPurchases)
	assert.Equal(t, int64(1), rows[0].ApprovedPurchases)
	assert.True(t, rows[0].Revenue.Equal(decimal.NewFromInt(75)), "revenue %s", rows[0].Revenue)
}
