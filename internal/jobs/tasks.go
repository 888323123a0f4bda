package jobs

import (
	"context"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/config"
)

type PendingPaymentExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

type SubscriptionExpirer interface {
	ExpireEnded(ctx context.Context) (int, error)
}

type ContractExpirer interface {
	ExpireEnded(ctx context.Context) (int64, error)
}

// Tasks builds the maintenance tasks from the configured schedules
func Tasks(cfg config.JobsConfig, payments PendingPaymentExpirer, subs SubscriptionExpirer, contracts ContractExpirer) []Task {
	return []Task{
		{
			Name:     "expire_pending_payments",
			Schedule: cfg.ExpirePendingPayments,
			Run:      payments.ExpireStale,
		},
		{
			Name:     "expire_subscriptions",
			Schedule: cfg.ExpireSubscriptions,
			Run: func(ctx context.Context) (int64, error) {
				n, err := subs.ExpireEnded(ctx)
				return int64(n), err
			},
		},
		{
			Name:     "expire_contracts",
			Schedule: cfg.ExpireContracts,
			Run:      contracts.ExpireEnded,
		},
	}
}
