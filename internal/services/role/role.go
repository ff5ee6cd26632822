// Package role содержит бизнес-логику управления ролями и разрешениями.
package role

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/orchestra-mcp/portal/internal/models"
)

// ErrProtectedRole — встроенную роль нельзя удалить.
var ErrProtectedRole = errors.New("role is protected")

// Repository определяет методы хранилища ролей.
type Repository interface {
	ListRoles(ctx context.Context) ([]*models.Role, error)
	GetRole(ctx context.Context, id int) (*models.Role, error)
	CreateRole(ctx context.Context, name string, permissions []string) (int, error)
	UpdateRole(ctx context.Context, id int, name string, permissions []string) error
	DeleteRole(ctx context.Context, id int) error
	ListPermissions(ctx context.Context) ([]string, error)
}

// RoleService реализует административные операции над ролями.
type RoleService struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр RoleService.
func New(log *slog.Logger, repo Repository) *RoleService {
	return &RoleService{
		repo: repo,
		log:  log,
	}
}

// List возвращает все роли с количеством пользователей и разрешениями.
func (s *RoleService) List(ctx context.Context) ([]*models.Role, error) {
	const op = "role.List"

	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return roles, nil
}

// Get возвращает роль по идентификатору.
func (s *RoleService) Get(ctx context.Context, id int) (*models.Role, error) {
	const op = "role.Get"

	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return role, nil
}

// Permissions возвращает полный список известных разрешений для чеклиста.
func (s *RoleService) Permissions(ctx context.Context) ([]string, error) {
	const op = "role.Permissions"

	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return perms, nil
}

// Create создает роль с набором разрешений.
func (s *RoleService) Create(ctx context.Context, req models.RoleRequest) (int, error) {
	const op = "role.Create"

	id, err := s.repo.CreateRole(ctx, req.Name, req.Permissions)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created role", slog.Int("role_id", id), slog.String("name", req.Name))
	return id, nil
}

// Update изменяет имя и разрешения роли.
func (s *RoleService) Update(ctx context.Context, id int, req models.RoleRequest) error {
	const op = "role.Update"

	if err := s.repo.UpdateRole(ctx, id, req.Name, req.Permissions); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("updated role", slog.Int("role_id", id))
	return nil
}

// Delete удаляет роль. Встроенные роли удалить нельзя.
func (s *RoleService) Delete(ctx context.Context, id int) error {
	const op = "role.Delete"

	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if models.IsProtectedRole(role.Name) {
		return ErrProtectedRole
	}

	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("deleted role", slog.Int("role_id", id), slog.String("name", role.Name))
	return nil
}
