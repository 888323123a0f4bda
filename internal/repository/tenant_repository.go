package repository

import (
	"context"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/google/uuid"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	GetByCPF(ctx context.Context, companyID uuid.UUID, cpf string) (*domain.Tenant, error)
	GetByEmail(ctx context.Context, companyID uuid.UUID, email string) (*domain.Tenant, error)
	Update(ctx context.Context, tenant *domain.Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter domain.ListFilter) ([]*domain.Tenant, int, error)
}

type PropertyOwnerRepository interface {
	Create(ctx context.Context, owner *domain.PropertyOwner) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PropertyOwner, error)
	GetByDocument(ctx context.Context, companyID uuid.UUID, document string) (*domain.PropertyOwner, error)
	GetByEmail(ctx context.Context, companyID uuid.UUID, email string) (*domain.PropertyOwner, error)
	Update(ctx context.Context, owner *domain.PropertyOwner) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter domain.ListFilter) ([]*domain.PropertyOwner, int, error)
}
