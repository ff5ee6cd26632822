package notification_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/services/notification"
)

// Мок для Repository
type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) CreateNotification(ctx context.Context, n models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *RepoMock) ListNotifications(ctx context.Context, userUID string, limit, offset int) ([]*models.Notification, error) {
	args := m.Called(ctx, userUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Notification), args.Error(1)
}

func (m *RepoMock) MarkNotificationRead(ctx context.Context, userUID, uid string) error {
	args := m.Called(ctx, userUID, uid)
	return args.Error(0)
}

func (m *RepoMock) ListAdmins(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// Мок для Publisher
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) PublishEmail(msg models.EmailMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotify(t *testing.T) {
	repo := new(RepoMock)
	publisher := new(PublisherMock)

	user := &models.User{UID: "uid-1", Name: "User", Email: "user@example.com"}
	repo.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.UserUID == "uid-1" &&
			n.Type == models.NotificationWelcome &&
			n.UID != ""
	})).Return(nil).Once()
	publisher.On("PublishEmail", mock.MatchedBy(func(msg models.EmailMessage) bool {
		return msg.Email == "user@example.com"
	})).Return(nil).Once()

	svc := notification.New(newNoopLogger(), repo, publisher)
	err := svc.Notify(context.Background(), user, models.NotificationWelcome, "Welcome", "Hi", nil)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestNotify_PublishFailureIsNotFatal(t *testing.T) {
	repo := new(RepoMock)
	publisher := new(PublisherMock)

	user := &models.User{UID: "uid-1", Email: "user@example.com"}
	repo.On("CreateNotification", mock.Anything, mock.Anything).Return(nil).Once()
	publisher.On("PublishEmail", mock.Anything).Return(errors.New("broker down")).Once()

	svc := notification.New(newNoopLogger(), repo, publisher)
	err := svc.Notify(context.Background(), user, models.NotificationWelcome, "Welcome", "Hi", nil)

	// Уведомление в ящике сохраняется даже при недоступной очереди.
	assert.NoError(t, err)
}

func TestNotifyAdmins(t *testing.T) {
	repo := new(RepoMock)
	publisher := new(PublisherMock)

	admins := []*models.User{
		{UID: "admin-1", Email: "a1@example.com"},
		{UID: "admin-2", Email: "a2@example.com"},
	}
	repo.On("ListAdmins", mock.Anything).Return(admins, nil).Once()
	repo.On("CreateNotification", mock.Anything, mock.Anything).Return(nil).Twice()
	publisher.On("PublishEmail", mock.Anything).Return(nil).Twice()

	svc := notification.New(newNoopLogger(), repo, publisher)
	err := svc.NotifyAdmins(context.Background(), models.NotificationSubscriptionExpiring,
		"Subscription expiring soon", "details", nil)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestList_LimitDefaults(t *testing.T) {
	repo := new(RepoMock)
	publisher := new(PublisherMock)

	repo.On("ListNotifications", mock.Anything, "uid-1", 20, 0).
		Return([]*models.Notification{}, nil).Once()

	svc := notification.New(newNoopLogger(), repo, publisher)
	_, err := svc.List(context.Background(), "uid-1", 0, 0)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}
