package repository

import (
	"context"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/google/uuid"
)

type ContractRepository interface {
	// Create inserts the contract and marks its property rented in one transaction
	Create(ctx context.Context, contract *domain.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Contract, error)
	GetActiveByProperty(ctx context.Context, propertyID uuid.UUID) (*domain.Contract, error)
	Update(ctx context.Context, contract *domain.Contract) error
	// Terminate persists the terminated contract and releases its property
	Terminate(ctx context.Context, contract *domain.Contract) error
	List(ctx context.Context, filter domain.ContractFilter) ([]*domain.Contract, int, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID, activeOnly bool) (int, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
	CountByProperty(ctx context.Context, propertyID uuid.UUID, activeOnly bool) (int, error)
	Stats(ctx context.Context, companyID uuid.UUID, brokerID *uuid.UUID) (*domain.ContractStats, error)
	// ExpireEnded expires active contracts whose end date passed and frees
	// their properties
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	ListByEntity(ctx context.Context, companyID uuid.UUID, entityType domain.DocumentEntityType, entityID uuid.UUID) ([]*domain.Document, error)
	CountByEntity(ctx context.Context, entityType domain.DocumentEntityType, entityID uuid.UUID) (int, error)
	SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error
}

type CustomFieldRepository interface {
	Create(ctx context.Context, field *domain.CustomField) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CustomField, error)
	Update(ctx context.Context, field *domain.CustomField) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByCompany(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]*domain.CustomField, error)
	MaxOrder(ctx context.Context, companyID uuid.UUID) (int, error)
	Reorder(ctx context.Context, companyID uuid.UUID, fieldIDs []uuid.UUID) error
	ListResponses(ctx context.Context, userID uuid.UUID) ([]*domain.CustomFieldResponse, error)
	// SaveResponses upserts the user's values in one transaction
	SaveResponses(ctx context.Context, userID uuid.UUID, responses []*domain.CustomFieldResponse) error
}
