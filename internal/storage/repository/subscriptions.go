package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/orchestra-mcp/portal/internal/models"
)

const subscriptionColumns = `id, user_uid, plan, status, start_date, end_date,
			      github_sponsor_id, amount_cents, last_payment_at, alert_sent_at, created_at`

func scanSubscription(row interface{ Scan(...any) error }) (*models.Subscription, error) {
	var sub models.Subscription
	var startDate, endDate, lastPaymentAt, alertSentAt sql.NullTime
	if err := row.Scan(&sub.ID, &sub.UserUID, &sub.Plan, &sub.Status, &startDate, &endDate,
		&sub.GithubSponsorID, &sub.AmountCents, &lastPaymentAt, &alertSentAt, &sub.CreatedAt); err != nil {
		return nil, err
	}
	if startDate.Valid {
		sub.StartDate = &startDate.Time
	}
	if endDate.Valid {
		sub.EndDate = &endDate.Time
	}
	if lastPaymentAt.Valid {
		sub.LastPaymentAt = &lastPaymentAt.Time
	}
	if alertSentAt.Valid {
		sub.AlertSentAt = &alertSentAt.Time
	}
	return &sub, nil
}

// GetSubscription возвращает подписку по ID.
func (s *Storage) GetSubscription(ctx context.Context, id int) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// GetSubscriptionByUser возвращает последнюю по времени создания подписку пользователя.
func (s *Storage) GetSubscriptionByUser(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// UpsertSponsorship создаёт или перезаписывает подписку пользователя по событию created.
// Повторный платёж сбрасывает alert_sent_at, чтобы при следующем цикле
// предупреждения об истечении отправлялись заново.
func (s *Storage) UpsertSponsorship(ctx context.Context, userUID, plan, sponsorID string, amountCents int, now time.Time) error {
	const op = "storage.UpsertSponsorship"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var id int
	query := `SELECT id FROM subscriptions WHERE user_uid = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		insert := `INSERT INTO subscriptions
				   (user_uid, plan, status, start_date, github_sponsor_id, amount_cents, last_payment_at)
				   VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if _, err := s.DB.ExecContext(ctx, insert,
			userUID, plan, models.SubscriptionActive, now, sponsorID, amountCents, now); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("%s: %w", op, err)
	}

	update := `UPDATE subscriptions
			   SET plan = $1, status = $2, start_date = $3, github_sponsor_id = $4,
			       amount_cents = $5, last_payment_at = $6, alert_sent_at = NULL,
			       updated_at = now()
			   WHERE id = $7`
	if _, err := s.DB.ExecContext(ctx, update,
		plan, models.SubscriptionActive, now, sponsorID, amountCents, now, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateSubscriptionStatus меняет статус последней подписки пользователя.
// Возвращает количество затронутых строк: 0 означает, что подписки нет.
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, userUID, status string) (int, error) {
	const op = "storage.UpdateSubscriptionStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions SET status = $1, updated_at = now()
			  WHERE id = (SELECT id FROM subscriptions WHERE user_uid = $2
			              ORDER BY created_at DESC, id DESC LIMIT 1)`
	result, err := s.DB.ExecContext(ctx, query, status, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// UpdateSubscriptionPlan меняет план и сумму последней подписки пользователя,
// не затрагивая статус.
func (s *Storage) UpdateSubscriptionPlan(ctx context.Context, userUID, plan string, amountCents int) (int, error) {
	const op = "storage.UpdateSubscriptionPlan"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions SET plan = $1, amount_cents = $2, updated_at = now()
			  WHERE id = (SELECT id FROM subscriptions WHERE user_uid = $3
			              ORDER BY created_at DESC, id DESC LIMIT 1)`
	result, err := s.DB.ExecContext(ctx, query, plan, amountCents, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// AdminUpdateSubscription перезаписывает план, статус и даты подписки вручную.
// Если дата окончания сдвигается вперёд, маркер alert_sent_at сбрасывается,
// чтобы оповещение могло сработать для нового цикла.
func (s *Storage) AdminUpdateSubscription(ctx context.Context, id int, plan, status string, startDate, endDate *time.Time) error {
	const op = "storage.AdminUpdateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET plan = $1, status = $2, start_date = $3, end_date = $4,
			      alert_sent_at = CASE
			          WHEN $4::date IS DISTINCT FROM end_date AND ($4::date IS NULL OR $4::date > end_date)
			          THEN NULL ELSE alert_sent_at END,
			      updated_at = now()
			  WHERE id = $5`
	result, err := s.DB.ExecContext(ctx, query, plan, status, startDate, endDate, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// ListSubscriptions возвращает подписки с опциональным фильтром по статусу и пагинацией.
func (s *Storage) ListSubscriptions(ctx context.Context, status string, limit, offset int) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE ($1 = '' OR status = $1)
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindExpiringSoon возвращает активные подписки, истекающие в ближайшие days дней.
// При unalertedOnly=true исключаются подписки с уже проставленным alert_sent_at.
// Бессрочные подписки (end_date IS NULL) не попадают в выборку.
func (s *Storage) FindExpiringSoon(ctx context.Context, days int, unalertedOnly bool) ([]*models.Subscription, error) {
	const op = "storage.FindExpiringSoon"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE status = 'active'
			    AND end_date IS NOT NULL
			    AND end_date <= CURRENT_DATE + $1 * INTERVAL '1 day'
			    AND (NOT $2 OR alert_sent_at IS NULL)
			  ORDER BY end_date`
	rows, err := s.DB.QueryContext(ctx, query, days, unalertedOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindExpired возвращает активные подписки с уже прошедшей датой окончания.
func (s *Storage) FindExpired(ctx context.Context) ([]*models.Subscription, error) {
	const op = "storage.FindExpired"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE status = 'active'
			    AND end_date IS NOT NULL
			    AND end_date < CURRENT_DATE
			  ORDER BY end_date`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindPastDue возвращает подписки в статусе past_due.
func (s *Storage) FindPastDue(ctx context.Context) ([]*models.Subscription, error) {
	const op = "storage.FindPastDue"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE status = 'past_due'
			  ORDER BY updated_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkAlertSent проставляет маркер отправленного оповещения.
func (s *Storage) MarkAlertSent(ctx context.Context, id int, at time.Time) error {
	const op = "storage.MarkAlertSent"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions SET alert_sent_at = $1, updated_at = now() WHERE id = $2`
	if _, err := s.DB.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MarkExpired переводит подписку в статус expired.
func (s *Storage) MarkExpired(ctx context.Context, id int) error {
	const op = "storage.MarkExpired"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions SET status = 'expired', updated_at = now() WHERE id = $1`
	if _, err := s.DB.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountSubscriptionsByStatus возвращает количество подписок со статусом.
func (s *Storage) CountSubscriptionsByStatus(ctx context.Context, status string) (int, error) {
	const op = "storage.CountSubscriptionsByStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	query := `SELECT COUNT(*) FROM subscriptions WHERE status = $1`
	if err := s.DB.QueryRowContext(ctx, query, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
