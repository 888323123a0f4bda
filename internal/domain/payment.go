package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
	PaymentExpired PaymentStatus = "expired"
)

// PendingPayment is a checkout in progress. Rows are never deleted.
type PendingPayment struct {
	ID                 uuid.UUID     `json:"id" db:"id"`
	Email              string        `json:"email" db:"email"`
	Name               string        `json:"name" db:"name"`
	Password           string        `json:"-" db:"password"` // argon2id hash
	PlanID             uuid.UUID     `json:"plan_id" db:"plan_id"`
	PagarmeOrderID     *string       `json:"pagarme_order_id,omitempty" db:"pagarme_order_id"`
	PagarmeChargeID    *string       `json:"pagarme_charge_id,omitempty" db:"pagarme_charge_id"`
	ProcessedWebhookID *string       `json:"-" db:"processed_webhook_id"`
	Status             PaymentStatus `json:"status" db:"status"`
	ExpiresAt          time.Time     `json:"expires_at" db:"expires_at"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}

func (p *PendingPayment) IsExpiredAt(now time.Time) bool {
	return p.ExpiresAt.Before(now)
}

// PendingPaymentUpdate lists the mutable columns; nil fields are left untouched
type PendingPaymentUpdate struct {
	Status             *PaymentStatus
	PagarmeOrderID     *string
	PagarmeChargeID    *string
	ProcessedWebhookID *string
}

// ApprovedPayment bundles the writes that must commit together when a
// payment is confirmed, by the gateway webhook or by a synchronous card charge.
// WebhookID records which confirmation won.
type ApprovedPayment struct {
	PendingPaymentID uuid.UUID
	WebhookID        string
	ExistingUserID   *uuid.UUID
	NewUser          *User
	Subscription     *Subscription
}
