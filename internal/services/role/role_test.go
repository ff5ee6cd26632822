package role_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/services/role"
)

// Мок для Repository
type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) ListRoles(ctx context.Context) ([]*models.Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Role), args.Error(1)
}

func (m *RepoMock) GetRole(ctx context.Context, id int) (*models.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *RepoMock) CreateRole(ctx context.Context, name string, permissions []string) (int, error) {
	args := m.Called(ctx, name, permissions)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) UpdateRole(ctx context.Context, id int, name string, permissions []string) error {
	args := m.Called(ctx, id, name, permissions)
	return args.Error(0)
}

func (m *RepoMock) DeleteRole(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *RepoMock) ListPermissions(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRoleService_Delete_ProtectedRoles(t *testing.T) {
	for _, name := range models.ProtectedRoles {
		t.Run(name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("GetRole", mock.Anything, 1).
				Return(&models.Role{ID: 1, Name: name}, nil).Once()

			svc := role.New(newNoopLogger(), repo)
			err := svc.Delete(context.Background(), 1)

			assert.ErrorIs(t, err, role.ErrProtectedRole)
			repo.AssertNotCalled(t, "DeleteRole")
		})
	}
}

func TestRoleService_Delete_CustomRole(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetRole", mock.Anything, 5).
		Return(&models.Role{ID: 5, Name: "moderator"}, nil).Once()
	repo.On("DeleteRole", mock.Anything, 5).Return(nil).Once()

	svc := role.New(newNoopLogger(), repo)
	assert.NoError(t, svc.Delete(context.Background(), 5))
	repo.AssertExpectations(t)
}

func TestRoleService_Create(t *testing.T) {
	repo := new(RepoMock)
	perms := []string{"pages.edit", "users.view"}
	repo.On("CreateRole", mock.Anything, "moderator", perms).Return(7, nil).Once()

	svc := role.New(newNoopLogger(), repo)
	id, err := svc.Create(context.Background(), models.RoleRequest{
		Name:        "moderator",
		Permissions: perms,
	})

	assert.NoError(t, err)
	assert.Equal(t, 7, id)
	repo.AssertExpectations(t)
}
