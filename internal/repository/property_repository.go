package repository

import (
	"context"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/google/uuid"
)

type PropertyRepository interface {
	// Create assigns the next per-company code before inserting
	Create(ctx context.Context, property *domain.Property) error
	// GetByID ignores soft-deleted rows
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error)
	Update(ctx context.Context, property *domain.Property) error
	SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error
	List(ctx context.Context, filter domain.PropertyFilter) ([]*domain.Property, int, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
	Stats(ctx context.Context, companyID uuid.UUID, brokerID *uuid.UUID) (*domain.PropertyStats, error)
}

type PropertyPhotoRepository interface {
	Create(ctx context.Context, photo *domain.PropertyPhoto) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PropertyPhoto, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*domain.PropertyPhoto, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// SetPrimary makes photoID the only primary photo of the property
	SetPrimary(ctx context.Context, propertyID, photoID uuid.UUID) error
}
