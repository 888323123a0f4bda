package postgres

import (
	"context"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var companyColumns = []string{
	"id", "name", "cnpj", "email", "phone", "address", "city", "state",
	"zip_code", "logo_url", "owner_id", "created_at", "updated_at",
}

type companyRepository struct {
	db *sqlx.DB
}

func NewCompanyRepository(db *sqlx.DB) repository.CompanyRepository {
	return &companyRepository{db: db}
}

func createCompany(ctx context.Context, exec sqlx.ExtContext, company *domain.Company) error {
	now := time.Now()
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	company.CreatedAt = now
	company.UpdatedAt = now

	if _, err := sqlx.NamedExecContext(ctx, exec, namedInsert("companies", companyColumns), company); err != nil {
		return writeErr(err, "create company")
	}
	return nil
}

func (r *companyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	var company domain.Company
	query := "SELECT " + columnList(companyColumns) + " FROM companies WHERE id = $1"
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		return nil, getErr(err, "company")
	}
	return &company, nil
}

func (r *companyRepository) Update(ctx context.Context, company *domain.Company) error {
	company.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, namedUpdate("companies", companyColumns), company)
	if err != nil {
		return writeErr(err, "update company")
	}
	return checkAffected(result, "company")
}
