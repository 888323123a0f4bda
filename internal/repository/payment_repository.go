package repository

import (
	"context"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/google/uuid"
)

type PendingPaymentRepository interface {
	Create(ctx context.Context, payment *domain.PendingPayment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingPayment, error)
	// GetLatestPendingByEmail returns the newest row still in pending status
	GetLatestPendingByEmail(ctx context.Context, email string) (*domain.PendingPayment, error)
	// Update never changes the status of a paid row; such an update returns
	// ErrAlreadyProcessed
	Update(ctx context.Context, id uuid.UUID, update domain.PendingPaymentUpdate) error
	// Approve commits user provisioning, the subscription and the paid
	// status together. It returns ErrAlreadyProcessed when the payment is
	// already paid, and the id of the provisioned user otherwise.
	Approve(ctx context.Context, approval domain.ApprovedPayment) (uuid.UUID, error)
	// ExpireStale marks pending rows past expires_at as expired
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}
