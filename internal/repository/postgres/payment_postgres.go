package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var pendingPaymentColumns = []string{
	"id", "email", "name", "password", "plan_id", "pagarme_order_id", "pagarme_charge_id",
	"processed_webhook_id", "status", "expires_at", "created_at", "updated_at",
}

type pendingPaymentRepository struct {
	db *sqlx.DB
}

func NewPendingPaymentRepository(db *sqlx.DB) repository.PendingPaymentRepository {
	return &pendingPaymentRepository{db: db}
}

func (r *pendingPaymentRepository) Create(ctx context.Context, p *domain.PendingPayment) error {
	now := time.Now()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := r.db.NamedExecContext(ctx, namedInsert("pending_payments", pendingPaymentColumns), p); err != nil {
		return fmt.Errorf("failed to create pending payment: %w", err)
	}
	return nil
}

func (r *pendingPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingPayment, error) {
	var p domain.PendingPayment
	query := "SELECT " + columnList(pendingPaymentColumns) + " FROM pending_payments WHERE id = $1"
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, getErr(err, "pending payment")
	}
	return &p, nil
}

func (r *pendingPaymentRepository) GetLatestPendingByEmail(ctx context.Context, email string) (*domain.PendingPayment, error) {
	var p domain.PendingPayment
	query := "SELECT " + columnList(pendingPaymentColumns) + ` FROM pending_payments
		WHERE email = $1 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1`
	if err := r.db.GetContext(ctx, &p, query, email); err != nil {
		return nil, getErr(err, "pending payment")
	}
	return &p, nil
}

// Update writes only the non-nil fields of update
func (r *pendingPaymentRepository) Update(ctx context.Context, id uuid.UUID, update domain.PendingPaymentUpdate) error {
	w := &conditions{}
	sets := "updated_at = " + w.arg(time.Now())
	if update.Status != nil {
		sets += ", status = " + w.arg(*update.Status)
	}
	if update.PagarmeOrderID != nil {
		sets += ", pagarme_order_id = " + w.arg(*update.PagarmeOrderID)
	}
	if update.PagarmeChargeID != nil {
		sets += ", pagarme_charge_id = " + w.arg(*update.PagarmeChargeID)
	}
	if update.ProcessedWebhookID != nil {
		sets += ", processed_webhook_id = " + w.arg(*update.ProcessedWebhookID)
	}
	query := "UPDATE pending_payments SET " + sets + " WHERE id = " + w.arg(id)
	if update.Status != nil {
		query += " AND status <> 'paid'"
	}

	result, err := r.db.ExecContext(ctx, query, w.args...)
	if err != nil {
		return fmt.Errorf("failed to update pending payment: %w", err)
	}
	if err := checkAffected(result, "pending payment"); err != nil {
		if update.Status != nil && errors.Is(err, repository.ErrNotFound) {
			return r.paidOrMissing(ctx, id)
		}
		return err
	}
	return nil
}

// paidOrMissing explains an update that matched no row
func (r *pendingPaymentRepository) paidOrMissing(ctx context.Context, id uuid.UUID) error {
	var status domain.PaymentStatus
	if err := r.db.GetContext(ctx, &status, `SELECT status FROM pending_payments WHERE id = $1`, id); err != nil {
		return getErr(err, "pending payment")
	}
	if status == domain.PaymentPaid {
		return repository.ErrAlreadyProcessed
	}
	return fmt.Errorf("pending payment %s: %w", id, repository.ErrNotFound)
}

func (r *pendingPaymentRepository) Approve(ctx context.Context, a domain.ApprovedPayment) (uuid.UUID, error) {
	var userID uuid.UUID
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var status domain.PaymentStatus
		if err := tx.GetContext(ctx, &status, `SELECT status FROM pending_payments WHERE id = $1 FOR UPDATE`, a.PendingPaymentID); err != nil {
			return getErr(err, "pending payment")
		}
		if status == domain.PaymentPaid {
			return repository.ErrAlreadyProcessed
		}

		switch {
		case a.ExistingUserID != nil:
			userID = *a.ExistingUserID
		case a.NewUser != nil:
			id, err := findOrCreateUser(ctx, tx, a.NewUser)
			if err != nil {
				return err
			}
			userID = id
		default:
			return fmt.Errorf("approval of %s carries no user", a.PendingPaymentID)
		}

		a.Subscription.UserID = userID
		if err := createSubscription(ctx, tx, a.Subscription); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE pending_payments
			SET status = 'paid', processed_webhook_id = $1, updated_at = $2
			WHERE id = $3`,
			a.WebhookID, time.Now(), a.PendingPaymentID)
		if err != nil {
			return fmt.Errorf("failed to mark payment paid: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}

func (r *pendingPaymentRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE pending_payments
		SET status = 'expired', updated_at = $1
		WHERE status = 'pending' AND expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending payments: %w", err)
	}
	return result.RowsAffected()
}
