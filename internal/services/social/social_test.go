package social_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/oauth"
	"github.com/orchestra-mcp/portal/internal/services/social"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) FindUserByMeta(ctx context.Context, key, value string) (*models.User, error) {
	args := m.Called(ctx, key, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) AssignRole(ctx context.Context, userUID, roleName string) error {
	args := m.Called(ctx, userUID, roleName)
	return args.Error(0)
}

func (m *UserRepoMock) SetUserMeta(ctx context.Context, userUID, key, value string) error {
	args := m.Called(ctx, userUID, key, value)
	return args.Error(0)
}

// Мок для Notifier
type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Welcome(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveIdentity_ByProviderID(t *testing.T) {
	users := new(UserRepoMock)
	notifier := new(NotifierMock)

	existing := &models.User{UID: "uid-1", Email: "known@example.com", Status: models.UserStatusActive}
	users.On("FindUserByMeta", mock.Anything, "github_id", "42").Return(existing, nil).Once()
	users.On("SetUserMeta", mock.Anything, "uid-1", "github_avatar_url", "https://avatars.example/42").
		Return(nil).Once()
	users.On("SetUserMeta", mock.Anything, "uid-1", models.MetaAvatarURL, "https://avatars.example/42").
		Return(nil).Once()

	svc := social.New(newNoopLogger(), users, notifier)
	user, err := svc.ResolveIdentity(context.Background(), "github", &oauth.Identity{
		ID:        "42",
		Nickname:  "octocat",
		Email:     "known@example.com",
		AvatarURL: "https://avatars.example/42",
	})

	assert.NoError(t, err)
	assert.Equal(t, "uid-1", user.UID)
	users.AssertNotCalled(t, "CreateUser")
	users.AssertExpectations(t)
}

func TestResolveIdentity_LinksByEmail(t *testing.T) {
	users := new(UserRepoMock)
	notifier := new(NotifierMock)

	existing := &models.User{UID: "uid-1", Email: "known@example.com", Status: models.UserStatusActive}
	users.On("FindUserByMeta", mock.Anything, "google_id", "g-7").
		Return(nil, repository.ErrNotFound).Once()
	users.On("GetUserByEmail", mock.Anything, "known@example.com").Return(existing, nil).Once()
	users.On("SetUserMeta", mock.Anything, "uid-1", "google_id", "g-7").Return(nil).Once()

	svc := social.New(newNoopLogger(), users, notifier)
	user, err := svc.ResolveIdentity(context.Background(), "google", &oauth.Identity{
		ID:    "g-7",
		Name:  "Known User",
		Email: "known@example.com",
	})

	assert.NoError(t, err)
	assert.Equal(t, "uid-1", user.UID)
	users.AssertNotCalled(t, "CreateUser")
	users.AssertExpectations(t)
}

func TestResolveIdentity_RegistersNewUser(t *testing.T) {
	users := new(UserRepoMock)
	notifier := new(NotifierMock)

	users.On("FindUserByMeta", mock.Anything, "discord_id", "d-1").
		Return(nil, repository.ErrNotFound).Once()
	users.On("GetUserByEmail", mock.Anything, "new@example.com").
		Return(nil, repository.ErrNotFound).Once()
	users.On("CreateUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
		return user.Email == "new@example.com" &&
			!user.PasswordSet &&
			user.Status == models.UserStatusActive
	})).Return("uid-new", nil).Once()
	users.On("AssignRole", mock.Anything, "uid-new", models.RoleUser).Return(nil).Once()
	users.On("SetUserMeta", mock.Anything, "uid-new", "discord_id", "d-1").Return(nil).Once()
	notifier.On("Welcome", mock.Anything, mock.Anything).Return(nil).Once()

	svc := social.New(newNoopLogger(), users, notifier)
	user, err := svc.ResolveIdentity(context.Background(), "discord", &oauth.Identity{
		ID:       "d-1",
		Nickname: "newbie",
		Email:    "new@example.com",
	})

	assert.NoError(t, err)
	assert.Equal(t, "uid-new", user.UID)
	assert.True(t, user.NeedsPassword())
	users.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestResolveIdentity_NoEmail(t *testing.T) {
	users := new(UserRepoMock)
	notifier := new(NotifierMock)

	users.On("FindUserByMeta", mock.Anything, "github_id", "42").
		Return(nil, repository.ErrNotFound).Once()

	svc := social.New(newNoopLogger(), users, notifier)
	user, err := svc.ResolveIdentity(context.Background(), "github", &oauth.Identity{
		ID:       "42",
		Nickname: "private",
	})

	assert.ErrorIs(t, err, social.ErrNoEmail)
	assert.Nil(t, user)
	users.AssertNotCalled(t, "CreateUser")
}

func TestResolveIdentity_BlockedUser(t *testing.T) {
	users := new(UserRepoMock)
	notifier := new(NotifierMock)

	blocked := &models.User{UID: "uid-1", Status: models.UserStatusBlocked}
	users.On("FindUserByMeta", mock.Anything, "github_id", "42").Return(blocked, nil).Once()

	svc := social.New(newNoopLogger(), users, notifier)
	user, err := svc.ResolveIdentity(context.Background(), "github", &oauth.Identity{
		ID:    "42",
		Email: "blocked@example.com",
	})

	assert.ErrorIs(t, err, social.ErrUserBlocked)
	assert.Nil(t, user)
}
