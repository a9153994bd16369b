package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduport/eduport-backend/internal/notifications"
	"github.com/eduport/eduport-backend/pkg/db/models"
	"github.com/eduport/eduport-backend/pkg/enums"
	pkgerrors "github.com/eduport/eduport-backend/pkg/errors"
)

type fakeNotificationService struct {
	list        func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	markRead    func(ctx context.Context, userID, notificationID uuid.UUID) error
	markAllRead func(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (f *fakeNotificationService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if f.list == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unexpected List call")
	}
	return f.list(ctx, params)
}

func (f *fakeNotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if f.markRead == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "unexpected MarkRead call")
	}
	return f.markRead(ctx, userID, notificationID)
}

func (f *fakeNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if f.markAllRead == nil {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "unexpected MarkAllRead call")
	}
	return f.markAllRead(ctx, userID)
}

func TestListNotificationsScopesToActor(t *testing.T) {
	userID := uuid.New()

	var gotParams notifications.ListParams
	svc := &fakeNotificationService{
		list: func(_ context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			gotParams = params
			return &notifications.ListResult{Items: []models.Notification{}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=10&unreadOnly=true", nil)
	req = seedActor(req, userID, enums.UserRoleCustomer)

	rec := httptest.NewRecorder()
	ListNotifications(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, userID, gotParams.UserID)
	assert.Equal(t, 10, gotParams.Limit)
	assert.True(t, gotParams.UnreadOnly)
}

func TestListNotificationsRejectsBadLimit(t *testing.T) {
	svc := &fakeNotificationService{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=zero", nil)
	req = seedActor(req, uuid.New(), enums.UserRoleCustomer)

	rec := httptest.NewRecorder()
	ListNotifications(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeErrorCode(t, rec))
}

func TestMarkNotificationRead(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()

	var gotUser, gotNotification uuid.UUID
	svc := &fakeNotificationService{
		markRead: func(_ context.Context, u, n uuid.UUID) error {
			gotUser, gotNotification = u, n
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read", nil)
	req = seedActor(req, userID, enums.UserRoleCustomer)
	req = withRouteParams(req, map[string]string{"notificationId": notificationID.String()})

	rec := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, userID, gotUser)
	assert.Equal(t, notificationID, gotNotification)

	var data map[string]bool
	decodeData(t, rec, &data)
	assert.True(t, data["read"])
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	svc := &fakeNotificationService{
		markRead: func(context.Context, uuid.UUID, uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		},
	}

	notificationID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read", nil)
	req = seedActor(req, uuid.New(), enums.UserRoleCustomer)
	req = withRouteParams(req, map[string]string{"notificationId": notificationID.String()})

	rec := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Equal(t, string(pkgerrors.CodeNotFound), decodeErrorCode(t, rec))
}

func TestMarkAllNotificationsRead(t *testing.T) {
	userID := uuid.New()

	svc := &fakeNotificationService{
		markAllRead: func(_ context.Context, u uuid.UUID) (int64, error) {
			require.Equal(t, userID, u)
			return 4, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read-all", nil)
	req = seedActor(req, userID, enums.UserRoleCustomer)

	rec := httptest.NewRecorder()
	MarkAllNotificationsRead(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data map[string]int64
	decodeData(t, rec, &data)
	assert.Equal(t, int64(4), data["updated"])
}
