package alerts_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/services/alerts"
)

// Мок для Repository
type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) FindExpiringSoon(ctx context.Context, days int, unalertedOnly bool) ([]*models.Subscription, error) {
	args := m.Called(ctx, days, unalertedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *RepoMock) FindExpired(ctx context.Context) ([]*models.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *RepoMock) MarkAlertSent(ctx context.Context, id int, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *RepoMock) MarkExpired(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *RepoMock) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// Мок для AdminNotifier
type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) NotifyAdmins(ctx context.Context, typ, title, message string, payload map[string]any) error {
	args := m.Called(ctx, typ, title, message, payload)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func expiringSub(id int, userUID string) *models.Subscription {
	end := time.Now().Add(48 * time.Hour)
	return &models.Subscription{
		ID:      id,
		UserUID: userUID,
		Plan:    models.PlanSponsor,
		Status:  models.SubscriptionActive,
		EndDate: &end,
	}
}

func TestRunExpiringSoon(t *testing.T) {
	repo := new(RepoMock)
	notifier := new(NotifierMock)

	user := &models.User{UID: "uid-1", Name: "Sponsor", Email: "sponsor@example.com"}
	repo.On("FindExpiringSoon", mock.Anything, alerts.ExpiringSoonDays, true).
		Return([]*models.Subscription{expiringSub(1, "uid-1")}, nil).Once()
	repo.On("GetUserByUID", mock.Anything, "uid-1").Return(user, nil).Once()
	notifier.On("NotifyAdmins", mock.Anything, models.NotificationSubscriptionExpiring,
		mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("MarkAlertSent", mock.Anything, 1, mock.Anything).Return(nil).Once()

	svc := alerts.New(newNoopLogger(), repo, notifier)
	assert.NoError(t, svc.RunExpiringSoon(context.Background()))

	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestRunExpiringSoon_NotifyFailureSkipsMark(t *testing.T) {
	repo := new(RepoMock)
	notifier := new(NotifierMock)

	user := &models.User{UID: "uid-1", Email: "sponsor@example.com"}
	repo.On("FindExpiringSoon", mock.Anything, alerts.ExpiringSoonDays, true).
		Return([]*models.Subscription{expiringSub(1, "uid-1")}, nil).Once()
	repo.On("GetUserByUID", mock.Anything, "uid-1").Return(user, nil).Once()
	notifier.On("NotifyAdmins", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("broker down")).Once()

	svc := alerts.New(newNoopLogger(), repo, notifier)
	assert.NoError(t, svc.RunExpiringSoon(context.Background()))

	// Отметка не ставится, повторный запуск уведомит снова.
	repo.AssertNotCalled(t, "MarkAlertSent")
}

func TestRunExpired(t *testing.T) {
	repo := new(RepoMock)
	notifier := new(NotifierMock)

	user := &models.User{UID: "uid-1", Email: "sponsor@example.com"}
	end := time.Now().Add(-24 * time.Hour)
	sub := &models.Subscription{
		ID: 7, UserUID: "uid-1", Plan: models.PlanSponsor,
		Status: models.SubscriptionActive, EndDate: &end,
	}

	repo.On("FindExpired", mock.Anything).Return([]*models.Subscription{sub}, nil).Once()
	repo.On("MarkExpired", mock.Anything, 7).Return(nil).Once()
	repo.On("GetUserByUID", mock.Anything, "uid-1").Return(user, nil).Once()
	notifier.On("NotifyAdmins", mock.Anything, models.NotificationSubscriptionExpired,
		mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	svc := alerts.New(newNoopLogger(), repo, notifier)
	assert.NoError(t, svc.RunExpired(context.Background()))

	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestRun_ExpiringFailureDoesNotStopExpiredPass(t *testing.T) {
	repo := new(RepoMock)
	notifier := new(NotifierMock)

	repo.On("FindExpiringSoon", mock.Anything, alerts.ExpiringSoonDays, true).
		Return(nil, errors.New("db error")).Once()
	repo.On("FindExpired", mock.Anything).Return([]*models.Subscription{}, nil).Once()

	svc := alerts.New(newNoopLogger(), repo, notifier)
	assert.Error(t, svc.Run(context.Background()))

	repo.AssertExpectations(t)
}
