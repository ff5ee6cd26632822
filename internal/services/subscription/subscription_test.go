package subscription_test

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
	"github.com/orchestra-mcp/portal/internal/services/subscription"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// Мок для Repository
type SubRepoMock struct {
	mock.Mock
}

func (m *SubRepoMock) GetSubscriptionByUser(ctx context.Context, userUID string) (*models.Subscription, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *SubRepoMock) UpsertSponsorship(ctx context.Context, userUID, plan, sponsorID string, amountCents int, now time.Time) error {
	args := m.Called(ctx, userUID, plan, sponsorID, amountCents, now)
	return args.Error(0)
}

func (m *SubRepoMock) UpdateSubscriptionStatus(ctx context.Context, userUID, status string) (int, error) {
	args := m.Called(ctx, userUID, status)
	return args.Int(0), args.Error(1)
}

func (m *SubRepoMock) UpdateSubscriptionPlan(ctx context.Context, userUID, plan string, amountCents int) (int, error) {
	args := m.Called(ctx, userUID, plan, amountCents)
	return args.Int(0), args.Error(1)
}

// Мок для UserResolver
type UserResolverMock struct {
	mock.Mock
}

func (m *UserResolverMock) FindUserByMeta(ctx context.Context, key, value string) (*models.User, error) {
	args := m.Called(ctx, key, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserResolverMock) AssignRole(ctx context.Context, userUID, roleName string) error {
	args := m.Called(ctx, userUID, roleName)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sponsorUser() *models.User {
	return &models.User{UID: "uid-1", Email: "sponsor@example.com"}
}

func TestHandleSponsorshipEvent_Created(t *testing.T) {
	tests := []struct {
		name        string
		amountCents int
		wantPlan    string
	}{
		{name: "team sponsor tier", amountCents: 2500, wantPlan: models.PlanTeamSponsor},
		{name: "sponsor tier", amountCents: 500, wantPlan: models.PlanSponsor},
		{name: "below sponsor threshold", amountCents: 100, wantPlan: models.PlanFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(SubRepoMock)
			users := new(UserResolverMock)

			users.On("FindUserByMeta", mock.Anything, "github_id", "42").
				Return(sponsorUser(), nil).Once()
			repo.On("UpsertSponsorship", mock.Anything, "uid-1", tt.wantPlan, "42", tt.amountCents, mock.Anything).
				Return(nil).Once()
			users.On("AssignRole", mock.Anything, "uid-1", models.RoleSubscriber).
				Return(nil).Once()

			svc := subscription.New(newNoopLogger(), repo, users)
			err := svc.HandleSponsorshipEvent(context.Background(), subscription.ActionCreated, "42", tt.amountCents)

			assert.NoError(t, err)
			repo.AssertExpectations(t)
			users.AssertExpectations(t)
		})
	}
}

func TestHandleSponsorshipEvent_UnknownSponsor(t *testing.T) {
	repo := new(SubRepoMock)
	users := new(UserResolverMock)

	users.On("FindUserByMeta", mock.Anything, "github_id", "999").
		Return(nil, repository.ErrNotFound).Once()

	svc := subscription.New(newNoopLogger(), repo, users)
	err := svc.HandleSponsorshipEvent(context.Background(), subscription.ActionCreated, "999", 500)

	assert.ErrorIs(t, err, subscription.ErrUnknownSponsor)
	repo.AssertNotCalled(t, "UpsertSponsorship")
	users.AssertNotCalled(t, "AssignRole")
}

func TestHandleSponsorshipEvent_Cancelled(t *testing.T) {
	repo := new(SubRepoMock)
	users := new(UserResolverMock)

	users.On("FindUserByMeta", mock.Anything, "github_id", "42").
		Return(sponsorUser(), nil).Once()
	repo.On("UpdateSubscriptionStatus", mock.Anything, "uid-1", models.SubscriptionCancelled).
		Return(0, nil).Once()

	svc := subscription.New(newNoopLogger(), repo, users)
	err := svc.HandleSponsorshipEvent(context.Background(), subscription.ActionCancelled, "42", 0)

	// Отмена без существующей подписки не считается ошибкой.
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestHandleSponsorshipEvent_TierChangedBeforeCreated(t *testing.T) {
	repo := new(SubRepoMock)
	users := new(UserResolverMock)

	users.On("FindUserByMeta", mock.Anything, "github_id", "42").
		Return(sponsorUser(), nil).Once()
	repo.On("UpdateSubscriptionPlan", mock.Anything, "uid-1", models.PlanTeamSponsor, 3000).
		Return(0, nil).Once()
	repo.On("UpsertSponsorship", mock.Anything, "uid-1", models.PlanTeamSponsor, "42", 3000, mock.Anything).
		Return(nil).Once()

	svc := subscription.New(newNoopLogger(), repo, users)
	err := svc.HandleSponsorshipEvent(context.Background(), subscription.ActionTierChanged, "42", 3000)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestHandleSponsorshipEvent_PendingCancellation(t *testing.T) {
	repo := new(SubRepoMock)
	users := new(UserResolverMock)

	users.On("FindUserByMeta", mock.Anything, "github_id", "42").
		Return(sponsorUser(), nil).Once()
	repo.On("UpdateSubscriptionStatus", mock.Anything, "uid-1", models.SubscriptionPastDue).
		Return(1, nil).Once()

	svc := subscription.New(newNoopLogger(), repo, users)
	err := svc.HandleSponsorshipEvent(context.Background(), subscription.ActionPendingCancellation, "42", 0)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestHandleSponsorshipEvent_UnknownActionIgnored(t *testing.T) {
	repo := new(SubRepoMock)
	users := new(UserResolverMock)

	users.On("FindUserByMeta", mock.Anything, "github_id", "42").
		Return(sponsorUser(), nil).Once()

	svc := subscription.New(newNoopLogger(), repo, users)
	err := svc.HandleSponsorshipEvent(context.Background(), "edited", "42", 0)

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "UpsertSponsorship")
	repo.AssertNotCalled(t, "UpdateSubscriptionStatus")
	repo.AssertNotCalled(t, "UpdateSubscriptionPlan")
}

func TestCurrentForUser_NoSubscription(t *testing.T) {
	repo := new(SubRepoMock)
	users := new(UserResolverMock)

	repo.On("GetSubscriptionByUser", mock.Anything, "uid-1").
		Return(nil, repository.ErrNotFound).Once()

	svc := subscription.New(newNoopLogger(), repo, users)
	sub, err := svc.CurrentForUser(context.Background(), "uid-1")

	assert.NoError(t, err)
	assert.Nil(t, sub)
}

func TestCurrentForUser_StorageError(t *testing.T) {
	repo := new(SubRepoMock)
	users := new(UserResolverMock)

	repo.On("GetSubscriptionByUser", mock.Anything, "uid-1").
		Return(nil, errors.New("db error")).Once()

	svc := subscription.New(newNoopLogger(), repo, users)
	sub, err := svc.CurrentForUser(context.Background(), "uid-1")

	assert.Error(t, err)
	assert.Nil(t, sub)
}
