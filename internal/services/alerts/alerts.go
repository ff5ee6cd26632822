// Package alerts содержит плановую проверку сроков подписок: рассылку
// предупреждений об истечении и перевод просроченных подписок в expired.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orchestra-mcp/portal/internal/lib/sl"
	"github.com/orchestra-mcp/portal/internal/models"
)

// ExpiringSoonDays — горизонт предупреждения об истечении подписки.
const ExpiringSoonDays = 7

// Repository определяет методы хранилища для плановой проверки.
type Repository interface {
	FindExpiringSoon(ctx context.Context, days int, unalertedOnly bool) ([]*models.Subscription, error)
	FindExpired(ctx context.Context) ([]*models.Subscription, error)
	MarkAlertSent(ctx context.Context, id int, at time.Time) error
	MarkExpired(ctx context.Context, id int) error
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
}

// AdminNotifier рассылает уведомление всем администраторам.
type AdminNotifier interface {
	NotifyAdmins(ctx context.Context, typ, title, message string, payload map[string]any) error
}

// AlertService выполняет ежедневный обход подписок.
type AlertService struct {
	repo     Repository
	notifier AdminNotifier
	log      *slog.Logger
}

// New создает новый экземпляр AlertService.
func New(log *slog.Logger, repo Repository, notifier AdminNotifier) *AlertService {
	return &AlertService{
		repo:     repo,
		notifier: notifier,
		log:      log,
	}
}

// Run выполняет оба прохода. Ошибка одного прохода не отменяет второй.
func (s *AlertService) Run(ctx context.Context) error {
	const op = "alerts.Run"

	errSoon := s.RunExpiringSoon(ctx)
	errExpired := s.RunExpired(ctx)
	if errSoon != nil {
		return fmt.Errorf("%s: %w", op, errSoon)
	}
	if errExpired != nil {
		return fmt.Errorf("%s: %w", op, errExpired)
	}
	return nil
}

// RunExpiringSoon находит активные подписки, истекающие в ближайшие дни,
// уведомляет администраторов и ставит отметку alert_sent_at.
//
// Отметка делает проход идемпотентным: повторный запуск не шлет повторное
// уведомление, пока отметку не сбросит последующее продление.
func (s *AlertService) RunExpiringSoon(ctx context.Context) error {
	const op = "alerts.RunExpiringSoon"

	subs, err := s.repo.FindExpiringSoon(ctx, ExpiringSoonDays, true)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, sub := range subs {
		user, err := s.repo.GetUserByUID(ctx, sub.UserUID)
		if err != nil {
			s.log.Error("failed to load subscription user", sl.Err(err),
				slog.Int("subscription_id", sub.ID))
			continue
		}

		title := "Subscription expiring soon"
		message := fmt.Sprintf("Subscription of %s (%s, plan %s) expires on %s.",
			user.Name, user.Email, sub.Plan, sub.EndDate.Format("2006-01-02"))
		if err := s.notifier.NotifyAdmins(ctx, models.NotificationSubscriptionExpiring, title, message, map[string]any{
			"subscription_id": sub.ID,
			"user_uid":        user.UID,
		}); err != nil {
			s.log.Error("failed to notify admins", sl.Err(err),
				slog.Int("subscription_id", sub.ID))
			continue
		}

		if err := s.repo.MarkAlertSent(ctx, sub.ID, time.Now()); err != nil {
			s.log.Error("failed to mark alert sent", sl.Err(err),
				slog.Int("subscription_id", sub.ID))
		}
	}

	s.log.Info("expiring-soon sweep finished", slog.Int("alerted", len(subs)))
	return nil
}

// RunExpired переводит активные подписки с прошедшей датой окончания
// в статус expired и уведомляет администраторов.
func (s *AlertService) RunExpired(ctx context.Context) error {
	const op = "alerts.RunExpired"

	subs, err := s.repo.FindExpired(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, sub := range subs {
		if err := s.repo.MarkExpired(ctx, sub.ID); err != nil {
			s.log.Error("failed to mark subscription expired", sl.Err(err),
				slog.Int("subscription_id", sub.ID))
			continue
		}

		user, err := s.repo.GetUserByUID(ctx, sub.UserUID)
		if err != nil {
			s.log.Error("failed to load subscription user", sl.Err(err),
				slog.Int("subscription_id", sub.ID))
			continue
		}

		title := "Subscription expired"
		message := fmt.Sprintf("Subscription of %s (%s, plan %s) expired on %s.",
			user.Name, user.Email, sub.Plan, sub.EndDate.Format("2006-01-02"))
		if err := s.notifier.NotifyAdmins(ctx, models.NotificationSubscriptionExpired, title, message, map[string]any{
			"subscription_id": sub.ID,
			"user_uid":        user.UID,
		}); err != nil {
			s.log.Error("failed to notify admins", sl.Err(err),
				slog.Int("subscription_id", sub.ID))
		}
	}

	s.log.Info("expired sweep finished", slog.Int("expired", len(subs)))
	return nil
}
