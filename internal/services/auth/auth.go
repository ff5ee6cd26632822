// Package auth содержит бизнес-логику аутентификации: вход по паролю,
// установку пароля и выпуск API-токенов для настольного клиента.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	appjwt "github.com/orchestra-mcp/portal/internal/lib/jwt"
	"github.com/orchestra-mcp/portal/internal/lib/password"
	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// Ошибки уровня сервиса. Обработчики переводят их в HTTP-статусы.
var (
	// ErrInvalidCredentials — неверная пара email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserBlocked — учетная запись заблокирована администратором.
	ErrUserBlocked = errors.New("user is blocked")
)

// UserRepository определяет методы хранилища, нужные аутентификации.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetUserPassword(ctx context.Context, uid, passwordHash string) error
}

// TokenRepository определяет методы хранилища выданных API-токенов.
type TokenRepository interface {
	CreateToken(ctx context.Context, token models.APIToken) error
	DeleteToken(ctx context.Context, tokenID string) error
}

// AuthService реализует вход по паролю и управление API-токенами.
type AuthService struct {
	users  UserRepository
	tokens TokenRepository
	maker  appjwt.Maker
	log    *slog.Logger
}

// New создает новый экземпляр AuthService.
func New(log *slog.Logger, users UserRepository, tokens TokenRepository, maker appjwt.Maker) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		maker:  maker,
		log:    log,
	}
}

// Login проверяет пару email/пароль и возвращает пользователя.
//
// Несуществующий пользователь и неверный пароль неразличимы для вызывающего.
// Заблокированный пользователь не может войти даже с верным паролем.
func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*models.User, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.PasswordSet || password.CompareHash(user.PasswordHash, plainPassword) != nil {
		return nil, ErrInvalidCredentials
	}

	if user.IsBlocked() {
		return nil, ErrUserBlocked
	}

	s.log.Info("user logged in", slog.String("user_uid", user.UID))
	return user, nil
}

// SetPassword хэширует и сохраняет пароль пользователя.
// После установки пароля флаг password_set взводится и проверка
// middleware больше не срабатывает.
func (s *AuthService) SetPassword(ctx context.Context, userUID, plainPassword string) error {
	const op = "auth.SetPassword"

	hash, err := password.GetHash(plainPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.SetUserPassword(ctx, userUID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("password set", slog.String("user_uid", userUID))
	return nil
}

// IssueIDEToken выпускает JWT для настольного клиента и регистрирует его
// в хранилище. Удаление записи из хранилища отзывает токен.
func (s *AuthService) IssueIDEToken(ctx context.Context, userUID, name string) (string, error) {
	const op = "auth.IssueIDEToken"

	abilities := []string{appjwt.AbilityIDEAccess}
	tokenID := uuid.NewString()

	tokenStr, err := s.maker.GenerateToken(tokenID, userUID, abilities)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.tokens.CreateToken(ctx, models.APIToken{
		ID:        tokenID,
		UserUID:   userUID,
		Name:      name,
		Abilities: abilities,
	}); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("issued ide token",
		slog.String("user_uid", userUID),
		slog.String("token_id", tokenID))
	return tokenStr, nil
}

// RevokeToken удаляет выданный токен из хранилища.
func (s *AuthService) RevokeToken(ctx context.Context, tokenID string) error {
	const op = "auth.RevokeToken"

	if err := s.tokens.DeleteToken(ctx, tokenID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("revoked token", slog.String("token_id", tokenID))
	return nil
}
