package domain

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionExpired  SubscriptionStatus = "expired"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

type Subscription struct {
	ID        uuid.UUID          `json:"id" db:"id"`
	UserID    uuid.UUID          `json:"user_id" db:"user_id"`
	PlanID    uuid.UUID          `json:"plan_id" db:"plan_id"`
	Status    SubscriptionStatus `json:"status" db:"status"`
	StartDate time.Time          `json:"start_date" db:"start_date"`
	EndDate   *time.Time         `json:"end_date,omitempty" db:"end_date"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
}

// ComputedStatus folds the end date into the stored status
func (s *Subscription) ComputedStatus(now time.Time) SubscriptionStatus {
	if s.Status == SubscriptionActive && s.EndDate != nil && s.EndDate.Before(now) {
		return SubscriptionExpired
	}
	return s.Status
}

// DaysRemaining is nil for subscriptions without an end date
func (s *Subscription) DaysRemaining(now time.Time) *int {
	if s.EndDate == nil {
		return nil
	}
	days := int(s.EndDate.Sub(now).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return &days
}

// CurrentSubscription is a subscription joined with its plan
type CurrentSubscription struct {
	Subscription
	Plan Plan `json:"plan" db:"-"`
}

// NewActiveSubscription starts a subscription now and ends it durationDays later
func NewActiveSubscription(userID uuid.UUID, plan *Plan, now time.Time) *Subscription {
	end := now.AddDate(0, 0, plan.DurationDays)
	return &Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		PlanID:    plan.ID,
		Status:    SubscriptionActive,
		StartDate: now,
		EndDate:   &end,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
