package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var contractColumns = []string{
	"id", "company_id", "property_id", "owner_id", "tenant_id", "broker_id",
	"start_date", "end_date", "rental_amount", "payment_day", "deposit_amount",
	"status", "terminated_at", "termination_reason", "notes", "created_by",
	"created_at", "updated_at",
}

var selectContractQuery = "SELECT " + columnList(contractColumns) + " FROM contracts"

type contractRepository struct {
	db *sqlx.DB
}

func NewContractRepository(db *sqlx.DB) repository.ContractRepository {
	return &contractRepository{db: db}
}

func setPropertyStatus(ctx context.Context, tx *sqlx.Tx, propertyID uuid.UUID, status domain.PropertyStatus) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE properties SET status = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL`, status, time.Now(), propertyID)
	if err != nil {
		return fmt.Errorf("failed to update property status: %w", err)
	}
	return checkAffected(result, "property")
}

func (r *contractRepository) Create(ctx context.Context, c *domain.Contract) error {
	now := time.Now()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, namedInsert("contracts", contractColumns), c); err != nil {
			return writeErr(err, "create contract")
		}
		return setPropertyStatus(ctx, tx, c.PropertyID, domain.PropertyRented)
	})
}

func (r *contractRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contract, error) {
	var c domain.Contract
	if err := r.db.GetContext(ctx, &c, selectContractQuery+" WHERE id = $1", id); err != nil {
		return nil, getErr(err, "contract")
	}
	return &c, nil
}

func (r *contractRepository) GetActiveByProperty(ctx context.Context, propertyID uuid.UUID) (*domain.Contract, error) {
	var c domain.Contract
	query := selectContractQuery + " WHERE property_id = $1 AND status = 'active' LIMIT 1"
	if err := r.db.GetContext(ctx, &c, query, propertyID); err != nil {
		return nil, getErr(err, "contract")
	}
	return &c, nil
}

func (r *contractRepository) Update(ctx context.Context, c *domain.Contract) error {
	c.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, namedUpdate("contracts", contractColumns), c)
	if err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
	}
	return checkAffected(result, "contract")
}

func (r *contractRepository) Terminate(ctx context.Context, c *domain.Contract) error {
	c.UpdatedAt = time.Now()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.NamedExecContext(ctx, namedUpdate("contracts", contractColumns), c)
		if err != nil {
			return fmt.Errorf("failed to terminate contract: %w", err)
		}
		if err := checkAffected(result, "contract"); err != nil {
			return err
		}
		return setPropertyStatus(ctx, tx, c.PropertyID, domain.PropertyAvailable)
	})
}

func (r *contractRepository) List(ctx context.Context, f domain.ContractFilter) ([]*domain.Contract, int, error) {
	w := &conditions{}
	w.where("company_id = " + w.arg(f.CompanyID))
	if f.CreatedBy != nil {
		w.where("created_by = " + w.arg(*f.CreatedBy))
	}
	if f.BrokerID != nil {
		w.where("broker_id = " + w.arg(*f.BrokerID))
	}
	if f.Status != nil {
		w.where("status = " + w.arg(*f.Status))
	}
	if f.PropertyID != nil {
		w.where("property_id = " + w.arg(*f.PropertyID))
	}
	if f.TenantID != nil {
		w.where("tenant_id = " + w.arg(*f.TenantID))
	}
	if f.EndsBefore != nil {
		w.where("end_date <= " + w.arg(*f.EndsBefore))
	}

	return selectPage[domain.Contract](ctx, r.db, "contracts", contractColumns, w, "created_at DESC", f.Limit, f.Offset)
}

func (r *contractRepository) count(ctx context.Context, column string, id uuid.UUID, activeOnly bool) (int, error) {
	query := "SELECT COUNT(*) FROM contracts WHERE " + column + " = $1"
	if activeOnly {
		query += " AND status = 'active'"
	}
	var n int
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		return 0, fmt.Errorf("failed to count contracts: %w", err)
	}
	return n, nil
}

func (r *contractRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID, activeOnly bool) (int, error) {
	return r.count(ctx, "tenant_id", tenantID, activeOnly)
}

func (r *contractRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	return r.count(ctx, "owner_id", ownerID, false)
}

func (r *contractRepository) CountByProperty(ctx context.Context, propertyID uuid.UUID, activeOnly bool) (int, error) {
	return r.count(ctx, "property_id", propertyID, activeOnly)
}

func (r *contractRepository) Stats(ctx context.Context, companyID uuid.UUID, brokerID *uuid.UUID) (*domain.ContractStats, error) {
	w := &conditions{}
	w.where("company_id = " + w.arg(companyID))
	if brokerID != nil {
		w.where("broker_id = " + w.arg(*brokerID))
	}
	query := `
		SELECT COUNT(*) AS total,
			   COUNT(*) FILTER (WHERE status = 'active') AS active,
			   COUNT(*) FILTER (WHERE status = 'terminated') AS terminated,
			   COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled,
			   COUNT(*) FILTER (WHERE status = 'expired') AS expired,
			   COALESCE(SUM(rental_amount) FILTER (WHERE status = 'active'), 0) AS total_rental_amount
		FROM contracts` + w.sql()

	var stats domain.ContractStats
	if err := r.db.GetContext(ctx, &stats, query, w.args...); err != nil {
		return nil, fmt.Errorf("failed to compute contract stats: %w", err)
	}
	return &stats, nil
}

func (r *contractRepository) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	var expired int64
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		propertyIDs := []uuid.UUID{}
		err := tx.SelectContext(ctx, &propertyIDs, `
			UPDATE contracts
			SET status = 'expired', updated_at = $1
			WHERE status = 'active' AND end_date < $1
			RETURNING property_id`, now)
		if err != nil {
			return fmt.Errorf("failed to expire contracts: %w", err)
		}
		expired = int64(len(propertyIDs))
		if expired == 0 {
			return nil
		}

		ids := make([]string, len(propertyIDs))
		for i, id := range propertyIDs {
			ids[i] = id.String()
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE properties SET status = 'available', updated_at = $1
			WHERE id = ANY($2::uuid[]) AND status = 'rented'`, now, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("failed to release properties: %w", err)
		}
		return nil
	})
	return expired, err
}
