package user_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/services/user"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// Мок для Repository
type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) CreateUser(ctx context.Context, u models.User) (string, error) {
	args := m.Called(ctx, u)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) UpdateUser(ctx context.Context, uid, name, email string) error {
	args := m.Called(ctx, uid, name, email)
	return args.Error(0)
}

func (m *RepoMock) SetUserStatus(ctx context.Context, uid, status string) error {
	args := m.Called(ctx, uid, status)
	return args.Error(0)
}

func (m *RepoMock) SoftDeleteUser(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *RepoMock) ListUsers(ctx context.Context, filter repository.UserFilter) ([]*models.User, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *RepoMock) AssignRole(ctx context.Context, userUID, roleName string) error {
	args := m.Called(ctx, userUID, roleName)
	return args.Error(0)
}

func (m *RepoMock) ReplaceRoles(ctx context.Context, userUID, roleName string) error {
	args := m.Called(ctx, userUID, roleName)
	return args.Error(0)
}

func (m *RepoMock) SetUserMeta(ctx context.Context, userUID, key, value string) error {
	args := m.Called(ctx, userUID, key, value)
	return args.Error(0)
}

func (m *RepoMock) CountUsersByStatus(ctx context.Context, status string) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUserService_Create(t *testing.T) {
	repo := new(RepoMock)

	repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "new@example.com" &&
			u.PasswordSet &&
			u.PasswordHash != "" &&
			u.Status == models.UserStatusActive
	})).Return("uid-new", nil).Once()
	repo.On("AssignRole", mock.Anything, "uid-new", models.RoleUser).Return(nil).Once()

	svc := user.New(newNoopLogger(), repo)
	uid, err := svc.Create(context.Background(), models.CreateUserRequest{
		Name:     "New User",
		Email:    "new@example.com",
		Password: "secret123",
		Role:     models.RoleUser,
	})

	assert.NoError(t, err)
	assert.Equal(t, "uid-new", uid)
	repo.AssertExpectations(t)
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	repo := new(RepoMock)

	repo.On("CreateUser", mock.Anything, mock.Anything).
		Return("", repository.ErrDuplicate).Once()

	svc := user.New(newNoopLogger(), repo)
	_, err := svc.Create(context.Background(), models.CreateUserRequest{
		Name:     "Dup",
		Email:    "taken@example.com",
		Password: "secret123",
		Role:     models.RoleUser,
	})

	assert.ErrorIs(t, err, user.ErrEmailTaken)
	repo.AssertNotCalled(t, "AssignRole")
}

func TestUserService_ToggleStatus(t *testing.T) {
	tests := []struct {
		name       string
		current    string
		wantStatus string
	}{
		{name: "active becomes blocked", current: models.UserStatusActive, wantStatus: models.UserStatusBlocked},
		{name: "blocked becomes active", current: models.UserStatusBlocked, wantStatus: models.UserStatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("GetUserByUID", mock.Anything, "uid-1").
				Return(&models.User{UID: "uid-1", Status: tt.current}, nil).Once()
			repo.On("SetUserStatus", mock.Anything, "uid-1", tt.wantStatus).Return(nil).Once()

			svc := user.New(newNoopLogger(), repo)
			got, err := svc.ToggleStatus(context.Background(), "uid-1")

			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got)
			repo.AssertExpectations(t)
		})
	}
}

func TestUserService_Delete_SuperAdminProtected(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetUserByUID", mock.Anything, "uid-root").
		Return(&models.User{UID: "uid-root", Roles: []string{models.RoleSuperAdmin}}, nil).Once()

	svc := user.New(newNoopLogger(), repo)
	err := svc.Delete(context.Background(), "uid-root")

	assert.ErrorIs(t, err, user.ErrProtectedUser)
	repo.AssertNotCalled(t, "SoftDeleteUser")
}

func TestUserService_Delete(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetUserByUID", mock.Anything, "uid-1").
		Return(&models.User{UID: "uid-1", Roles: []string{models.RoleUser}}, nil).Once()
	repo.On("SoftDeleteUser", mock.Anything, "uid-1").Return(nil).Once()

	svc := user.New(newNoopLogger(), repo)
	assert.NoError(t, svc.Delete(context.Background(), "uid-1"))
	repo.AssertExpectations(t)
}

func TestUserService_List_LimitDefaults(t *testing.T) {
	repo := new(RepoMock)
	repo.On("ListUsers", mock.Anything, mock.MatchedBy(func(f repository.UserFilter) bool {
		return f.Limit == 20
	})).Return([]*models.User{}, nil).Once()

	svc := user.New(newNoopLogger(), repo)
	_, err := svc.List(context.Background(), repository.UserFilter{Limit: 0})

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUserService_MakeSuperAdmin(t *testing.T) {
	t.Run("promotes existing user", func(t *testing.T) {
		repo := new(RepoMock)

		existing := &models.User{UID: "uid-1", Email: "admin@example.com"}
		repo.On("GetUserByEmail", mock.Anything, "admin@example.com").Return(existing, nil).Once()
		repo.On("AssignRole", mock.Anything, "uid-1", models.RoleSuperAdmin).Return(nil).Once()

		svc := user.New(newNoopLogger(), repo)
		uid, err := svc.MakeSuperAdmin(context.Background(), "", "admin@example.com", "")

		assert.NoError(t, err)
		assert.Equal(t, "uid-1", uid)
		repo.AssertNotCalled(t, "CreateUser")
		repo.AssertExpectations(t)
	})

	t.Run("creates new super admin", func(t *testing.T) {
		repo := new(RepoMock)

		repo.On("GetUserByEmail", mock.Anything, "root@example.com").
			Return(nil, repository.ErrNotFound).Once()
		repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Email == "root@example.com" &&
				u.PasswordSet &&
				u.PasswordHash != "" &&
				u.Status == models.UserStatusActive
		})).Return("uid-root", nil).Once()
		repo.On("AssignRole", mock.Anything, "uid-root", models.RoleSuperAdmin).Return(nil).Once()

		svc := user.New(newNoopLogger(), repo)
		uid, err := svc.MakeSuperAdmin(context.Background(), "Root", "root@example.com", "secret-password")

		assert.NoError(t, err)
		assert.Equal(t, "uid-root", uid)
		repo.AssertExpectations(t)
	})

	t.Run("requires password for new user", func(t *testing.T) {
		repo := new(RepoMock)

		repo.On("GetUserByEmail", mock.Anything, "root@example.com").
			Return(nil, repository.ErrNotFound).Once()

		svc := user.New(newNoopLogger(), repo)
		_, err := svc.MakeSuperAdmin(context.Background(), "Root", "root@example.com", "")

		assert.Error(t, err)
		repo.AssertNotCalled(t, "CreateUser")
	})
}
