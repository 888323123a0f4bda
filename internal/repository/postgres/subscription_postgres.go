package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var subscriptionColumns = []string{
	"id", "user_id", "plan_id", "status", "start_date", "end_date", "created_at", "updated_at",
}

type subscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) repository.SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	return createSubscription(ctx, r.db, sub)
}

func createSubscription(ctx context.Context, exec sqlx.ExtContext, sub *domain.Subscription) error {
	now := time.Now()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	if _, err := sqlx.NamedExecContext(ctx, exec, namedInsert("subscriptions", subscriptionColumns), sub); err != nil {
		return writeErr(err, "create subscription")
	}
	return nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	sub.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, namedUpdate("subscriptions", subscriptionColumns), sub)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return checkAffected(result, "subscription")
}

// GetCurrentByUserID loads the newest non-canceled subscription and its plan
func (r *subscriptionRepository) GetCurrentByUserID(ctx context.Context, userID uuid.UUID) (*domain.CurrentSubscription, error) {
	query := "SELECT " + columnList(subscriptionColumns) + ` FROM subscriptions
		WHERE user_id = $1 AND status <> 'canceled'
		ORDER BY created_at DESC
		LIMIT 1`

	var current domain.CurrentSubscription
	if err := r.db.GetContext(ctx, &current.Subscription, query, userID); err != nil {
		return nil, getErr(err, "subscription")
	}

	plan, err := getPlan(ctx, r.db, selectPlanQuery+" WHERE id = $1", current.PlanID)
	if err != nil {
		return nil, err
	}
	current.Plan = *plan
	return &current, nil
}

func (r *subscriptionRepository) ExpireEnded(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		UPDATE subscriptions
		SET status = 'expired', updated_at = $1
		WHERE status = 'active' AND end_date IS NOT NULL AND end_date < $1
		RETURNING user_id`

	userIDs := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &userIDs, query, now); err != nil {
		return nil, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	return userIDs, nil
}
