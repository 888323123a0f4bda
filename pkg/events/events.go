package events

import (
	"time"

	"github.com/google/uuid"
)

type PaymentApproved struct {
	PendingPaymentID uuid.UUID `json:"pendingPaymentId"`
	UserID           uuid.UUID `json:"userId"`
	PlanID           uuid.UUID `json:"planId"`
	OrderID          string    `json:"orderId"`
	Timestamp        time.Time `json:"timestamp"`
}

type UserInvited struct {
	UserID    uuid.UUID `json:"userId"`
	CompanyID uuid.UUID `json:"companyId"`
	InvitedBy uuid.UUID `json:"invitedBy"`
	Timestamp time.Time `json:"timestamp"`
}
