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

var propertyColumns = []string{
	"id", "code", "company_id", "owner_id", "broker_id", "title", "description",
	"type", "listing_type", "status", "address", "address_number", "address_complement",
	"neighborhood", "city", "state", "zip_code", "bedrooms", "bathrooms", "suites",
	"parking_spaces", "area", "total_area", "built_area", "floor", "total_floors",
	"year_built", "rental_price", "sale_price", "iptu_price", "condo_fee",
	"commission_percentage", "commission_value", "is_marketplace", "notes", "features",
	"created_by", "created_at", "updated_at", "deleted_at", "deleted_by",
}

var selectPropertyQuery = "SELECT " + columnList(propertyColumns) + " FROM properties"

type propertyRepository struct {
	db *sqlx.DB
}

func NewPropertyRepository(db *sqlx.DB) repository.PropertyRepository {
	return &propertyRepository{db: db}
}

// Create draws the next value of the company's property sequence and
// inserts the row in the same transaction
func (r *propertyRepository) Create(ctx context.Context, p *domain.Property) error {
	now := time.Now()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var seq int
		err := tx.GetContext(ctx, &seq, `
			INSERT INTO company_property_sequences (company_id, last_value)
			VALUES ($1, 1)
			ON CONFLICT (company_id)
			DO UPDATE SET last_value = company_property_sequences.last_value + 1
			RETURNING last_value`, p.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to allocate property code: %w", err)
		}
		code := domain.PropertyCode(seq)
		p.Code = &code

		if _, err := tx.NamedExecContext(ctx, namedInsert("properties", propertyColumns), p); err != nil {
			return writeErr(err, "create property")
		}
		return nil
	})
}

func (r *propertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	var p domain.Property
	if err := r.db.GetContext(ctx, &p, selectPropertyQuery+" WHERE id = $1 AND deleted_at IS NULL", id); err != nil {
		return nil, getErr(err, "property")
	}
	return &p, nil
}

func (r *propertyRepository) Update(ctx context.Context, p *domain.Property) error {
	p.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, namedUpdate("properties", propertyColumns)+" AND deleted_at IS NULL", p)
	if err != nil {
		return writeErr(err, "update property")
	}
	return checkAffected(result, "property")
}

func (r *propertyRepository) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error {
	now := time.Now()
	result, err := r.db.ExecContext(ctx, `
		UPDATE properties
		SET deleted_at = $1, deleted_by = $2, updated_at = $1
		WHERE id = $3 AND deleted_at IS NULL`, now, deletedBy, id)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	return checkAffected(result, "property")
}

func (r *propertyRepository) List(ctx context.Context, f domain.PropertyFilter) ([]*domain.Property, int, error) {
	w := &conditions{}
	w.where("deleted_at IS NULL")
	w.where("company_id = " + w.arg(f.CompanyID))
	if f.CreatedBy != nil {
		w.where("created_by = " + w.arg(*f.CreatedBy))
	}
	if f.BrokerID != nil {
		w.where("broker_id = " + w.arg(*f.BrokerID))
	}
	if f.Type != nil {
		w.where("type = " + w.arg(*f.Type))
	}
	if f.ListingType != nil {
		w.where("listing_type = " + w.arg(*f.ListingType))
	}
	if f.Status != nil {
		w.where("status = " + w.arg(*f.Status))
	}
	if f.City != "" {
		w.where("city ILIKE " + w.arg(f.City))
	}
	w.search(f.Search, "title", "code", "address", "neighborhood", "city")

	return selectPage[domain.Property](ctx, r.db, "properties", propertyColumns, w, "created_at DESC", f.Limit, f.Offset)
}

func (r *propertyRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM properties WHERE owner_id = $1 AND deleted_at IS NULL`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count owner properties: %w", err)
	}
	return count, nil
}

func (r *propertyRepository) Stats(ctx context.Context, companyID uuid.UUID, brokerID *uuid.UUID) (*domain.PropertyStats, error) {
	w := &conditions{}
	w.where("deleted_at IS NULL")
	w.where("company_id = " + w.arg(companyID))
	if brokerID != nil {
		w.where("broker_id = " + w.arg(*brokerID))
	}
	query := `
		SELECT COUNT(*) AS total,
			   COUNT(*) FILTER (WHERE status = 'available') AS available,
			   COUNT(*) FILTER (WHERE status = 'rented') AS rented,
			   COUNT(*) FILTER (WHERE status = 'sold') AS sold,
			   COUNT(*) FILTER (WHERE status = 'maintenance') AS maintenance
		FROM properties` + w.sql()

	var stats domain.PropertyStats
	if err := r.db.GetContext(ctx, &stats, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to compute property stats: %w", err)
	}
	return &stats, nil
}

type propertyPhotoRepository struct {
	db *sqlx.DB
}

func NewPropertyPhotoRepository(db *sqlx.DB) repository.PropertyPhotoRepository {
	return &propertyPhotoRepository{db: db}
}

const selectPhotoQuery = `SELECT id, property_id, url, is_primary, sort_order, created_at FROM property_photos`

func (r *propertyPhotoRepository) Create(ctx context.Context, photo *domain.PropertyPhoto) error {
	if photo.ID == uuid.Nil {
		photo.ID = uuid.New()
	}
	photo.CreatedAt = time.Now()

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO property_photos (id, property_id, url, is_primary, sort_order, created_at)
		VALUES (:id, :property_id, :url, :is_primary, :sort_order, :created_at)`, photo)
	if err != nil {
		return fmt.Errorf("failed to create property photo: %w", err)
	}
	return nil
}

func (r *propertyPhotoRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PropertyPhoto, error) {
	var photo domain.PropertyPhoto
	if err := r.db.GetContext(ctx, &photo, selectPhotoQuery+" WHERE id = $1", id); err != nil {
		return nil, getErr(err, "property photo")
	}
	return &photo, nil
}

func (r *propertyPhotoRepository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*domain.PropertyPhoto, error) {
	photos := []*domain.PropertyPhoto{}
	err := r.db.SelectContext(ctx, &photos, selectPhotoQuery+" WHERE property_id = $1 ORDER BY is_primary DESC, sort_order ASC", propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list property photos: %w", err)
	}
	return photos, nil
}

func (r *propertyPhotoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM property_photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete property photo: %w", err)
	}
	return checkAffected(result, "property photo")
}

func (r *propertyPhotoRepository) SetPrimary(ctx context.Context, propertyID, photoID uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE property_photos SET is_primary = false WHERE property_id = $1`, propertyID); err != nil {
			return fmt.Errorf("failed to clear primary photo: %w", err)
		}
		result, err := tx.ExecContext(ctx, `UPDATE property_photos SET is_primary = true WHERE id = $1 AND property_id = $2`, photoID, propertyID)
		if err != nil {
			return fmt.Errorf("failed to set primary photo: %w", err)
		}
		return checkAffected(result, "property photo")
	})
}
