package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/orchestra-mcp/portal/internal/models"
)

func TestPlanForAmount(t *testing.T) {
	tests := []struct {
		name        string
		amountCents int
		want        string
	}{
		{name: "zero amount", amountCents: 0, want: models.PlanFree},
		{name: "below sponsor threshold", amountCents: 499, want: models.PlanFree},
		{name: "exactly sponsor threshold", amountCents: 500, want: models.PlanSponsor},
		{name: "between thresholds", amountCents: 2499, want: models.PlanSponsor},
		{name: "exactly team threshold", amountCents: 2500, want: models.PlanTeamSponsor},
		{name: "above team threshold", amountCents: 10000, want: models.PlanTeamSponsor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.PlanForAmount(tt.amountCents))
		})
	}
}

func TestSubscription_IsActive(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	tests := []struct {
		name string
		sub  models.Subscription
		want bool
	}{
		{
			name: "active without end date",
			sub:  models.Subscription{Status: models.SubscriptionActive},
			want: true,
		},
		{
			name: "active with future end date",
			sub:  models.Subscription{Status: models.SubscriptionActive, EndDate: &future},
			want: true,
		},
		{
			name: "active with past end date",
			sub:  models.Subscription{Status: models.SubscriptionActive, EndDate: &past},
			want: false,
		},
		{
			name: "cancelled",
			sub:  models.Subscription{Status: models.SubscriptionCancelled, EndDate: &future},
			want: false,
		},
		{
			name: "expired",
			sub:  models.Subscription{Status: models.SubscriptionExpired},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.IsActive())
		})
	}
}

func TestSubscription_IsSponsor(t *testing.T) {
	assert.True(t, (&models.Subscription{Plan: models.PlanSponsor, Status: models.SubscriptionActive}).IsSponsor())
	assert.True(t, (&models.Subscription{Plan: models.PlanTeamSponsor, Status: models.SubscriptionActive}).IsSponsor())
	assert.False(t, (&models.Subscription{Plan: models.PlanFree, Status: models.SubscriptionActive}).IsSponsor())
	assert.False(t, (&models.Subscription{Plan: models.PlanSponsor, Status: models.SubscriptionPastDue}).IsSponsor())
}

func TestUser_HasActiveSubscription(t *testing.T) {
	assert.False(t, (&models.User{}).HasActiveSubscription())
	assert.False(t, (&models.User{
		Subscription: &models.Subscription{Plan: models.PlanFree, Status: models.SubscriptionActive},
	}).HasActiveSubscription())
	assert.True(t, (&models.User{
		Subscription: &models.Subscription{Plan: models.PlanSponsor, Status: models.SubscriptionActive},
	}).HasActiveSubscription())
}
