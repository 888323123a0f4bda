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

var propertyOwnerColumns = []string{
	"id", "company_id", "name", "document_type", "document", "rg", "nationality",
	"marital_status", "profession", "email", "phone", "phone_secondary", "address",
	"address_number", "address_complement", "neighborhood", "city", "state", "zip_code",
	"birth_date", "photo_url", "notes", "created_by", "created_at", "updated_at",
}

var selectPropertyOwnerQuery = "SELECT " + columnList(propertyOwnerColumns) + " FROM property_owners"

type propertyOwnerRepository struct {
	db *sqlx.DB
}

func NewPropertyOwnerRepository(db *sqlx.DB) repository.PropertyOwnerRepository {
	return &propertyOwnerRepository{db: db}
}

func (r *propertyOwnerRepository) Create(ctx context.Context, owner *domain.PropertyOwner) error {
	now := time.Now()
	if owner.ID == uuid.Nil {
		owner.ID = uuid.New()
	}
	owner.CreatedAt = now
	owner.UpdatedAt = now

	if _, err := r.db.NamedExecContext(ctx, namedInsert("property_owners", propertyOwnerColumns), owner); err != nil {
		return writeErr(err, "create property owner")
	}
	return nil
}

func (r *propertyOwnerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PropertyOwner, error) {
	return r.getOne(ctx, selectPropertyOwnerQuery+" WHERE id = $1", id)
}

func (r *propertyOwnerRepository) GetByDocument(ctx context.Context, companyID uuid.UUID, document string) (*domain.PropertyOwner, error) {
	return r.getOne(ctx, selectPropertyOwnerQuery+" WHERE company_id = $1 AND document = $2", companyID, document)
}

func (r *propertyOwnerRepository) GetByEmail(ctx context.Context, companyID uuid.UUID, email string) (*domain.PropertyOwner, error) {
	return r.getOne(ctx, selectPropertyOwnerQuery+" WHERE company_id = $1 AND email = $2", companyID, email)
}

func (r *propertyOwnerRepository) getOne(ctx context.Context, query string, args ...any) (*domain.PropertyOwner, error) {
	var owner domain.PropertyOwner
	if err := r.db.GetContext(ctx, &owner, query, args...); err != nil {
		return nil, getErr(err, "property owner")
	}
	return &owner, nil
}

func (r *propertyOwnerRepository) Update(ctx context.Context, owner *domain.PropertyOwner) error {
	owner.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, namedUpdate("property_owners", propertyOwnerColumns), owner)
	if err != nil {
		return writeErr(err, "update property owner")
	}
	return checkAffected(result, "property owner")
}

func (r *propertyOwnerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM property_owners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete property owner: %w", err)
	}
	return checkAffected(result, "property owner")
}

func (r *propertyOwnerRepository) List(ctx context.Context, f domain.ListFilter) ([]*domain.PropertyOwner, int, error) {
	w := &conditions{}
	w.where("company_id = " + w.arg(f.CompanyID))
	if f.CreatedBy != nil {
		w.where("created_by = " + w.arg(*f.CreatedBy))
	}
	w.search(f.Search, "name", "document", "email", "phone")

	return selectPage[domain.PropertyOwner](ctx, r.db, "property_owners", propertyOwnerColumns, w, "name ASC", f.Limit, f.Offset)
}
