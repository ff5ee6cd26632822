// Package notification содержит бизнес-логику встроенного ящика уведомлений
// и публикации почтовых заданий в очередь.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
)

// Repository определяет методы хранилища уведомлений.
type Repository interface {
	CreateNotification(ctx context.Context, n models.Notification) error
	ListNotifications(ctx context.Context, userUID string, limit, offset int) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, userUID, uid string) error
	ListAdmins(ctx context.Context) ([]*models.User, error)
}

// Publisher публикует почтовое задание в очередь отправки.
type Publisher interface {
	PublishEmail(msg models.EmailMessage) error
}

// NotificationService реализует ящик уведомлений и рассылку писем.
//
// Запись в ящик и письмо — независимые каналы: сбой публикации в очередь
// не откатывает запись, уведомление остается видимым на портале.
type NotificationService struct {
	repo      Repository
	publisher Publisher
	log       *slog.Logger
}

// New создает новый экземпляр NotificationService.
func New(log *slog.Logger, repo Repository, publisher Publisher) *NotificationService {
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// Notify сохраняет уведомление в ящик пользователя и ставит письмо в очередь.
func (s *NotificationService) Notify(ctx context.Context, user *models.User, typ, title, message string, payload map[string]any) error {
	const op = "notification.Notify"

	n := models.Notification{
		UID:     uuid.NewString(),
		UserUID: user.UID,
		Type:    typ,
		Title:   title,
		Message: message,
		Payload: payload,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.publisher.PublishEmail(models.EmailMessage{
		Email:   user.Email,
		Subject: title,
		Body:    message,
	}); err != nil {
		s.log.Error("failed to enqueue email", sl.Err(err),
			slog.String("user_uid", user.UID),
			slog.String("type", typ))
	}

	return nil
}

// Welcome отправляет приветственное уведомление новому пользователю.
func (s *NotificationService) Welcome(ctx context.Context, user *models.User) error {
	return s.Notify(ctx, user, models.NotificationWelcome,
		"Welcome to the portal",
		fmt.Sprintf("Hi %s, your account is ready. Set a password to enable direct login.", user.Name),
		nil)
}

// NotifyAdmins рассылает уведомление всем администраторам.
func (s *NotificationService) NotifyAdmins(ctx context.Context, typ, title, message string, payload map[string]any) error {
	const op = "notification.NotifyAdmins"

	admins, err := s.repo.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, admin := range admins {
		if err := s.Notify(ctx, admin, typ, title, message, payload); err != nil {
			s.log.Error("failed to notify admin", sl.Err(err),
				slog.String("admin_uid", admin.UID))
		}
	}
	return nil
}

// List возвращает уведомления пользователя, новые первыми.
func (s *NotificationService) List(ctx context.Context, userUID string, limit, offset int) ([]*models.Notification, error) {
	const op = "notification.List"

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	result, err := s.repo.ListNotifications(ctx, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkRead помечает уведомление пользователя прочитанным.
func (s *NotificationService) MarkRead(ctx context.Context, userUID, uid string) error {
	const op = "notification.MarkRead"

	if err := s.repo.MarkNotificationRead(ctx, userUID, uid); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
