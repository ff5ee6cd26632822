// Package user содержит бизнес-логику административного управления
// пользователями: создание, правка, блокировка и удаление с защитой
// привилегированных учетных записей.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/orchestra-mcp/portal/internal/lib/password"
	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

var (
	// ErrProtectedUser — супер-администратора нельзя удалить.
	ErrProtectedUser = errors.New("user is protected")
	// ErrEmailTaken — email уже занят другой учетной записью.
	ErrEmailTaken = errors.New("email already taken")
)

// Repository определяет методы хранилища пользователей.
type Repository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, uid, name, email string) error
	SetUserStatus(ctx context.Context, uid, status string) error
	SoftDeleteUser(ctx context.Context, uid string) error
	ListUsers(ctx context.Context, filter repository.UserFilter) ([]*models.User, error)
	AssignRole(ctx context.Context, userUID, roleName string) error
	ReplaceRoles(ctx context.Context, userUID, roleName string) error
	SetUserMeta(ctx context.Context, userUID, key, value string) error
	CountUsersByStatus(ctx context.Context, status string) (int, error)
}

// UserService реализует административные операции над пользователями.
type UserService struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр UserService.
func New(log *slog.Logger, repo Repository) *UserService {
	return &UserService{
		repo: repo,
		log:  log,
	}
}

// List возвращает страницу пользователей по фильтру.
func (s *UserService) List(ctx context.Context, filter repository.UserFilter) ([]*models.User, error) {
	const op = "user.List"

	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	users, err := s.repo.ListUsers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// Get возвращает пользователя по идентификатору.
func (s *UserService) Get(ctx context.Context, uid string) (*models.User, error) {
	const op = "user.Get"

	u, err := s.repo.GetUserByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// Create создает пользователя с паролем и единственной ролью.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest) (string, error) {
	const op = "user.Create"

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	uid, err := s.repo.CreateUser(ctx, models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		PasswordSet:  true,
		Status:       models.UserStatusActive,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.AssignRole(ctx, uid, req.Role); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if req.AvatarURL != "" {
		if err := s.repo.SetUserMeta(ctx, uid, models.MetaAvatarURL, req.AvatarURL); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	s.log.Info("created user", slog.String("user_uid", uid), slog.String("role", req.Role))
	return uid, nil
}

// MakeSuperAdmin создает супер-администратора или повышает до него
// существующего пользователя по email. Вызывается утилитой первоначальной
// настройки: без хотя бы одного супер-администратора админка недоступна.
func (s *UserService) MakeSuperAdmin(ctx context.Context, name, email, plainPassword string) (string, error) {
	const op = "user.MakeSuperAdmin"

	existing, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.repo.AssignRole(ctx, existing.UID, models.RoleSuperAdmin); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("promoted user to super_admin", slog.String("user_uid", existing.UID))
		return existing.UID, nil
	case !errors.Is(err, repository.ErrNotFound):
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if plainPassword == "" {
		return "", fmt.Errorf("%s: password is required to create a new user", op)
	}

	hash, err := password.GetHash(plainPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	uid, err := s.repo.CreateUser(ctx, models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		PasswordSet:  true,
		Status:       models.UserStatusActive,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.AssignRole(ctx, uid, models.RoleSuperAdmin); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created super_admin", slog.String("user_uid", uid))
	return uid, nil
}

// Update изменяет имя, email и роль пользователя.
func (s *UserService) Update(ctx context.Context, uid string, req models.UpdateUserRequest) error {
	const op = "user.Update"

	if err := s.repo.UpdateUser(ctx, uid, req.Name, req.Email); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrEmailTaken
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if req.Role != "" {
		if err := s.repo.ReplaceRoles(ctx, uid, req.Role); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if req.AvatarURL != "" {
		if err := s.repo.SetUserMeta(ctx, uid, models.MetaAvatarURL, req.AvatarURL); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	s.log.Info("updated user", slog.String("user_uid", uid))
	return nil
}

// ToggleStatus переключает пользователя между active и blocked.
// Возвращает новый статус.
func (s *UserService) ToggleStatus(ctx context.Context, uid string) (string, error) {
	const op = "user.ToggleStatus"

	u, err := s.repo.GetUserByUID(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	newStatus := models.UserStatusBlocked
	if u.IsBlocked() {
		newStatus = models.UserStatusActive
	}
	if err := s.repo.SetUserStatus(ctx, uid, newStatus); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("toggled user status",
		slog.String("user_uid", uid),
		slog.String("status", newStatus))
	return newStatus, nil
}

// Delete мягко удаляет пользователя. Супер-администратор защищен от удаления.
func (s *UserService) Delete(ctx context.Context, uid string) error {
	const op = "user.Delete"

	u, err := s.repo.GetUserByUID(ctx, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if u.IsSuperAdmin() {
		return ErrProtectedUser
	}

	if err := s.repo.SoftDeleteUser(ctx, uid); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("deleted user", slog.String("user_uid", uid))
	return nil
}
