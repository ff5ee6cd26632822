package models

import (
	"slices"
	"time"
)

// Планы подписки. План выводится из месячной суммы спонсорства.
const (
	PlanFree        = "free"
	PlanSponsor     = "sponsor"
	PlanTeamSponsor = "team_sponsor"
)

// Статусы подписки.
const (
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
	SubscriptionPastDue   = "past_due"
)

// Пороговые суммы тарифов в центах.
const (
	TeamSponsorMinCents = 2500
	SponsorMinCents     = 500
)

// Subscription представляет состояние биллинга одного пользователя,
// производное от событий GitHub Sponsors. EndDate == nil означает
// бессрочную подписку: она не попадает ни в проверку активности,
// ни в сканы планировщика оповещений.
type Subscription struct {
	ID              int
	UserUID         string
	Plan            string
	Status          string
	StartDate       *time.Time
	EndDate         *time.Time
	GithubSponsorID string
	AmountCents     int
	LastPaymentAt   *time.Time
	AlertSentAt     *time.Time // Маркер дедупликации оповещений о скором истечении
	CreatedAt       time.Time
}

// PlanForAmount возвращает план подписки по месячной сумме спонсорства в центах.
func PlanForAmount(amountCents int) string {
	switch {
	case amountCents >= TeamSponsorMinCents:
		return PlanTeamSponsor
	case amountCents >= SponsorMinCents:
		return PlanSponsor
	default:
		return PlanFree
	}
}

// IsActive сообщает, действует ли подписка:
// статус active и дата окончания не наступила либо отсутствует.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionActive &&
		(s.EndDate == nil || s.EndDate.After(time.Now()))
}

// IsSponsor сообщает, является ли подписка действующей спонсорской
// (план sponsor или team_sponsor).
func (s *Subscription) IsSponsor() bool {
	return slices.Contains([]string{PlanSponsor, PlanTeamSponsor}, s.Plan) && s.IsActive()
}

// IsExpired сообщает, истекла ли подписка.
func (s *Subscription) IsExpired() bool {
	return s.Status == SubscriptionExpired ||
		(s.EndDate != nil && s.EndDate.Before(time.Now()))
}

// IsPastDue сообщает, находится ли подписка в ожидании отмены.
func (s *Subscription) IsPastDue() bool {
	return s.Status == SubscriptionPastDue
}
