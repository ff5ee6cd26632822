package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orchestra-mcp/portal/internal/models"
	"github.com/orchestra-mcp/portal/internal/services/alerts"
)

// AdminRepository определяет методы хранилища для ручного управления
// подписками из админки.
type AdminRepository interface {
	ListSubscriptions(ctx context.Context, status string, limit, offset int) ([]*models.Subscription, error)
	GetSubscription(ctx context.Context, id int) (*models.Subscription, error)
	AdminUpdateSubscription(ctx context.Context, id int, plan, status string, startDate, endDate *time.Time) error
	FindExpiringSoon(ctx context.Context, days int, unalertedOnly bool) ([]*models.Subscription, error)
	FindPastDue(ctx context.Context) ([]*models.Subscription, error)
}

// AdminService реализует ручной путь правки подписок, независимый
// от событий вебхука.
type AdminService struct {
	repo AdminRepository
	log  *slog.Logger
}

// NewAdmin создает новый экземпляр AdminService.
func NewAdmin(log *slog.Logger, repo AdminRepository) *AdminService {
	return &AdminService{
		repo: repo,
		log:  log,
	}
}

// List возвращает страницу подписок с необязательным фильтром по статусу.
func (s *AdminService) List(ctx context.Context, status string, limit, offset int) ([]*models.Subscription, error) {
	const op = "subscription.AdminList"

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	subs, err := s.repo.ListSubscriptions(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

// Get возвращает подписку по идентификатору.
func (s *AdminService) Get(ctx context.Context, id int) (*models.Subscription, error) {
	const op = "subscription.AdminGet"

	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// Update вручную правит план, статус и даты подписки.
// Продление с переносом даты окончания вперед сбрасывает маркер
// alert_sent_at, чтобы следующий обход предупредил снова.
func (s *AdminService) Update(ctx context.Context, id int, req models.UpdateSubscriptionRequest) error {
	const op = "subscription.AdminUpdate"

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return fmt.Errorf("%s: invalid start date: %w", op, err)
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return fmt.Errorf("%s: invalid end date: %w", op, err)
	}

	if err := s.repo.AdminUpdateSubscription(ctx, id, req.Plan, req.Status, startDate, endDate); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("admin updated subscription",
		slog.Int("subscription_id", id),
		slog.String("plan", req.Plan),
		slog.String("status", req.Status))
	return nil
}

// AlertsView — данные для админской страницы оповещений: подписки,
// истекающие в ближайшую неделю (включая уже оповещенные), и просроченные
// платежи.
type AlertsView struct {
	ExpiringSoon []*models.Subscription
	PastDue      []*models.Subscription
}

// Alerts возвращает данные для страницы оповещений.
func (s *AdminService) Alerts(ctx context.Context) (*AlertsView, error) {
	const op = "subscription.AdminAlerts"

	expiring, err := s.repo.FindExpiringSoon(ctx, alerts.ExpiringSoonDays, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pastDue, err := s.repo.FindPastDue(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AlertsView{ExpiringSoon: expiring, PastDue: pastDue}, nil
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
