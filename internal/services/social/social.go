// Package social содержит бизнес-логику входа через внешних OAuth-провайдеров:
// сопоставление профиля провайдера с учетной записью портала.
package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/oauth"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

var (
	// ErrUserBlocked — учетная запись заблокирована, вход запрещен.
	ErrUserBlocked = errors.New("user is blocked")
	// ErrNoEmail — провайдер не вернул email, учетную запись не создать.
	ErrNoEmail = errors.New("provider returned no email")
)

// UserRepository определяет методы хранилища для сопоставления и создания
// пользователей социального входа.
type UserRepository interface {
	FindUserByMeta(ctx context.Context, key, value string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) (string, error)
	AssignRole(ctx context.Context, userUID, roleName string) error
	SetUserMeta(ctx context.Context, userUID, key, value string) error
}

// Notifier отправляет приветственное уведомление новому пользователю.
type Notifier interface {
	Welcome(ctx context.Context, user *models.User) error
}

// SocialService сопоставляет профиль OAuth-провайдера с учетной записью.
type SocialService struct {
	users    UserRepository
	notifier Notifier
	log      *slog.Logger
}

// New создает новый экземпляр SocialService.
func New(log *slog.Logger, users UserRepository, notifier Notifier) *SocialService {
	return &SocialService{
		users:    users,
		notifier: notifier,
		log:      log,
	}
}

// ResolveIdentity находит или создает пользователя по профилю провайдера.
//
// Порядок сопоставления: сначала по сохраненному идентификатору провайдера,
// затем по email (с привязкой идентификатора к найденной записи), затем
// создается новая учетная запись без пароля с ролью user.
// Заблокированный пользователь не проходит ни по одному пути.
func (s *SocialService) ResolveIdentity(ctx context.Context, provider string, identity *oauth.Identity) (*models.User, error) {
	const op = "social.ResolveIdentity"

	metaKey := models.MetaProviderID(provider)

	user, err := s.users.FindUserByMeta(ctx, metaKey, identity.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user == nil && identity.Email != "" {
		user, err = s.users.GetUserByEmail(ctx, identity.Email)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if user != nil {
			if err := s.users.SetUserMeta(ctx, user.UID, metaKey, identity.ID); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			s.log.Info("linked provider to existing user",
				slog.String("provider", provider),
				slog.String("user_uid", user.UID))
		}
	}

	if user == nil {
		user, err = s.register(ctx, provider, identity)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if user.IsBlocked() {
		return nil, ErrUserBlocked
	}

	if identity.AvatarURL != "" {
		if err := s.users.SetUserMeta(ctx, user.UID, models.MetaProviderAvatarURL(provider), identity.AvatarURL); err != nil {
			s.log.Warn("failed to store avatar url", slog.String("user_uid", user.UID))
		}
		if err := s.users.SetUserMeta(ctx, user.UID, models.MetaAvatarURL, identity.AvatarURL); err != nil {
			s.log.Warn("failed to store avatar url", slog.String("user_uid", user.UID))
		}
	}

	return user, nil
}

func (s *SocialService) register(ctx context.Context, provider string, identity *oauth.Identity) (*models.User, error) {
	if identity.Email == "" {
		return nil, ErrNoEmail
	}

	user := &models.User{
		Name:        identity.DisplayName(),
		Email:       identity.Email,
		PasswordSet: false,
		Status:      models.UserStatusActive,
		Roles:       []string{models.RoleUser},
	}

	uid, err := s.users.CreateUser(ctx, *user)
	if err != nil {
		return nil, err
	}
	user.UID = uid
	if err := s.users.AssignRole(ctx, user.UID, models.RoleUser); err != nil {
		return nil, err
	}
	if err := s.users.SetUserMeta(ctx, user.UID, models.MetaProviderID(provider), identity.ID); err != nil {
		return nil, err
	}

	if err := s.notifier.Welcome(ctx, user); err != nil {
		s.log.Warn("failed to send welcome notification", slog.String("user_uid", user.UID))
	}

	s.log.Info("registered user via social login",
		slog.String("provider", provider),
		slog.String("user_uid", user.UID))
	return user, nil
}
