package postgres

import (
	"context"
	"fmt"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const selectPlanQuery = `
	SELECT id, name, slug, description, price, duration_days, max_users,
		   max_managers, features, is_active, created_at, updated_at
	FROM plans`

type planRepository struct {
	db *sqlx.DB
}

func NewPlanRepository(db *sqlx.DB) repository.PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	return getPlan(ctx, r.db, selectPlanQuery+" WHERE id = $1", id)
}

func (r *planRepository) GetBySlug(ctx context.Context, slug string) (*domain.Plan, error) {
	return getPlan(ctx, r.db, selectPlanQuery+" WHERE slug = $1", slug)
}

func getPlan(ctx context.Context, q sqlx.QueryerContext, query string, arg any) (*domain.Plan, error) {
	var plan domain.Plan
	if err := sqlx.GetContext(ctx, q, &plan, query, arg); err != nil {
		return nil, getErr(err, "plan")
	}
	return &plan, nil
}

// ListActive returns the plans offered at checkout, cheapest first
func (r *planRepository) ListActive(ctx context.Context) ([]*domain.Plan, error) {
	plans := []*domain.Plan{}
	if err := r.db.SelectContext(ctx, &plans, selectPlanQuery+" WHERE is_active = true ORDER BY price ASC"); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}
