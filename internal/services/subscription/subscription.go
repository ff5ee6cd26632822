// Package subscription содержит бизнес-логику жизненного цикла подписок:
// применение событий спонсорского вебхука и выборки для страниц портала.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/storage/repository"
)

// ErrUnknownSponsor — событие ссылается на спонсора, не привязанного
// ни к одному пользователю портала.
var ErrUnknownSponsor = errors.New("unknown sponsor")

// Действия спонсорского вебхука.
const (
	ActionCreated             = "created"
	ActionCancelled           = "cancelled"
	ActionTierChanged         = "tier_changed"
	ActionPendingCancellation = "pending_cancellation"
)

// Repository определяет методы хранилища подписок.
type Repository interface {
	GetSubscriptionByUser(ctx context.Context, userUID string) (*models.Subscription, error)
	UpsertSponsorship(ctx context.Context, userUID, plan, sponsorID string, amountCents int, now time.Time) error
	UpdateSubscriptionStatus(ctx context.Context, userUID, status string) (int, error)
	UpdateSubscriptionPlan(ctx context.Context, userUID, plan string, amountCents int) (int, error)
}

// UserResolver сопоставляет спонсора провайдера с пользователем портала.
type UserResolver interface {
	FindUserByMeta(ctx context.Context, key, value string) (*models.User, error)
	AssignRole(ctx context.Context, userUID, roleName string) error
}

// SubscriptionService применяет события вебхука к состоянию подписок.
type SubscriptionService struct {
	repo  Repository
	users UserResolver
	log   *slog.Logger
}

// New создает новый экземпляр SubscriptionService.
func New(log *slog.Logger, repo Repository, users UserResolver) *SubscriptionService {
	return &SubscriptionService{
		repo:  repo,
		users: users,
		log:   log,
	}
}

// HandleSponsorshipEvent применяет одно событие вебхука.
//
// Спонсор сопоставляется с пользователем по метаданным github_id; событие
// без такого пользователя отклоняется без побочных эффектов. Неизвестные
// действия игнорируются без ошибки.
func (s *SubscriptionService) HandleSponsorshipEvent(ctx context.Context, action, sponsorID string, amountCents int) error {
	const op = "subscription.HandleSponsorshipEvent"

	user, err := s.users.FindUserByMeta(ctx, models.MetaProviderID("github"), sponsorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUnknownSponsor)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	log := s.log.With(
		slog.String("action", action),
		slog.String("sponsor_id", sponsorID),
		slog.String("user_uid", user.UID))

	switch action {
	case ActionCreated:
		plan := models.PlanForAmount(amountCents)
		if err := s.repo.UpsertSponsorship(ctx, user.UID, plan, sponsorID, amountCents, time.Now()); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := s.users.AssignRole(ctx, user.UID, models.RoleSubscriber); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Info("sponsorship created", slog.String("plan", plan))

	case ActionCancelled:
		// Отмена без существующей подписки — no-op.
		n, err := s.repo.UpdateSubscriptionStatus(ctx, user.UID, models.SubscriptionCancelled)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Info("sponsorship cancelled", slog.Int("updated", n))

	case ActionTierChanged:
		plan := models.PlanForAmount(amountCents)
		n, err := s.repo.UpdateSubscriptionPlan(ctx, user.UID, plan, amountCents)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if n == 0 {
			// Смена тарифа до события created: создаем подписку по
			// текущему состоянию спонсорства.
			if err := s.repo.UpsertSponsorship(ctx, user.UID, plan, sponsorID, amountCents, time.Now()); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
		log.Info("sponsorship tier changed", slog.String("plan", plan))

	case ActionPendingCancellation:
		n, err := s.repo.UpdateSubscriptionStatus(ctx, user.UID, models.SubscriptionPastDue)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Info("sponsorship pending cancellation", slog.Int("updated", n))

	default:
		log.Info("ignoring unknown sponsorship action")
	}

	return nil
}

// CurrentForUser возвращает последнюю подписку пользователя.
// Отсутствие подписки — не ошибка: возвращается nil.
func (s *SubscriptionService) CurrentForUser(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "subscription.CurrentForUser"

	sub, err := s.repo.GetSubscriptionByUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}
