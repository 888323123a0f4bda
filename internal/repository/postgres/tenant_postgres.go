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

var tenantColumns = []string{
	"id", "company_id", "name", "cpf", "email", "phone", "address", "city", "state",
	"zip_code", "birth_date", "monthly_income", "employer", "emergency_contact",
	"emergency_phone", "rg", "nationality", "marital_status", "profession",
	"photo_url", "notes", "created_by", "created_at", "updated_at",
}

var selectTenantQuery = "SELECT " + columnList(tenantColumns) + " FROM tenants"

type tenantRepository struct {
	db *sqlx.DB
}

// NewTenantRepository creates a new PostgreSQL repository for renters
func NewTenantRepository(db *sqlx.DB) repository.TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	now := time.Now()
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	if _, err := r.db.NamedExecContext(ctx, namedInsert("tenants", tenantColumns), tenant); err != nil {
		return writeErr(err, "create tenant")
	}
	return nil
}

// GetByID retrieves a tenant by its ID
func (r *tenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return r.getOne(ctx, selectTenantQuery+" WHERE id = $1", id)
}

// GetByCPF looks up a normalized CPF inside one company
func (r *tenantRepository) GetByCPF(ctx context.Context, companyID uuid.UUID, cpf string) (*domain.Tenant, error) {
	return r.getOne(ctx, selectTenantQuery+" WHERE company_id = $1 AND cpf = $2", companyID, cpf)
}

func (r *tenantRepository) GetByEmail(ctx context.Context, companyID uuid.UUID, email string) (*domain.Tenant, error) {
	return r.getOne(ctx, selectTenantQuery+" WHERE company_id = $1 AND email = $2", companyID, email)
}

func (r *tenantRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Tenant, error) {
	var tenant domain.Tenant
	if err := r.db.GetContext(ctx, &tenant, query, args...); err != nil {
		return nil, getErr(err, "tenant")
	}
	return &tenant, nil
}

func (r *tenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	tenant.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, namedUpdate("tenants", tenantColumns), tenant)
	if err != nil {
		return writeErr(err, "update tenant")
	}
	return checkAffected(result, "tenant")
}

func (r *tenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	return checkAffected(result, "tenant")
}

func (r *tenantRepository) List(ctx context.Context, f domain.ListFilter) ([]*domain.Tenant, int, error) {
	w := &conditions{}
	w.where("company_id = " + w.arg(f.CompanyID))
	if f.CreatedBy != nil {
		w.where("created_by = " + w.arg(*f.CreatedBy))
	}
	w.search(f.Search, "name", "cpf", "email", "phone")

	return selectPage[domain.Tenant](ctx, r.db, "tenants", tenantColumns, w, "name ASC", f.Limit, f.Offset)
}
