package repository

import (
	"context"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, int, error)
	// CountActiveMembers counts active non-owner users of a company,
	// optionally restricted to one role
	CountActiveMembers(ctx context.Context, companyID uuid.UUID, role *domain.Role) (int, error)
	// RegisterOwner creates the owner, their company and a pending
	// subscription in one transaction
	RegisterOwner(ctx context.Context, user *domain.User, company *domain.Company, sub *domain.Subscription) error
}

type CompanyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error)
	Update(ctx context.Context, company *domain.Company) error
}

type PlanRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Plan, error)
	ListActive(ctx context.Context) ([]*domain.Plan, error)
}

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	Update(ctx context.Context, sub *domain.Subscription) error
	// GetCurrentByUserID returns the newest non-canceled subscription with its plan
	GetCurrentByUserID(ctx context.Context, userID uuid.UUID) (*domain.CurrentSubscription, error)
	// ExpireEnded marks active subscriptions past their end date as expired
	// and returns the affected user ids
	ExpireEnded(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}
