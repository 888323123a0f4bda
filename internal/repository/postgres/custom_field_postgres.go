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

var customFieldColumns = []string{
	"id", "company_id", "label", "type", "placeholder", "help_text", "is_required",
	"options", "allow_multiple", "validation", "file_config", "sort_order", "is_active",
	"created_at", "updated_at",
}

var selectCustomFieldQuery = "SELECT " + columnList(customFieldColumns) + " FROM custom_fields"

type customFieldRepository struct {
	db *sqlx.DB
}

func NewCustomFieldRepository(db *sqlx.DB) repository.CustomFieldRepository {
	return &customFieldRepository{db: db}
}

func (r *customFieldRepository) Create(ctx context.Context, field *domain.CustomField) error {
	now := time.Now()
	if field.ID == uuid.Nil {
		field.ID = uuid.New()
	}
	field.CreatedAt = now
	field.UpdatedAt = now

	if _, err := r.db.NamedExecContext(ctx, namedInsert("custom_fields", customFieldColumns), field); err != nil {
		return fmt.Errorf("failed to create custom field: %w", err)
	}
	return nil
}

func (r *customFieldRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CustomField, error) {
	var field domain.CustomField
	if err := r.db.GetContext(ctx, &field, selectCustomFieldQuery+" WHERE id = $1", id); err != nil {
		return nil, getErr(err, "custom field")
	}
	return &field, nil
}

func (r *customFieldRepository) Update(ctx context.Context, field *domain.CustomField) error {
	field.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, namedUpdate("custom_fields", customFieldColumns), field)
	if err != nil {
		return fmt.Errorf("failed to update custom field: %w", err)
	}
	return checkAffected(result, "custom field")
}

// Delete removes the field; its responses go with it through ON DELETE CASCADE
func (r *customFieldRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM custom_fields WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete custom field: %w", err)
	}
	return checkAffected(result, "custom field")
}

func (r *customFieldRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]*domain.CustomField, error) {
	query := selectCustomFieldQuery + " WHERE company_id = $1"
	if activeOnly {
		query += " AND is_active = true"
	}
	query += " ORDER BY sort_order ASC, created_at ASC"

	fields := []*domain.CustomField{}
	if err := r.db.SelectContext(ctx, &fields, query, companyID); err != nil {
		return nil, fmt.Errorf("failed to list custom fields: %w", err)
	}
	return fields, nil
}

func (r *customFieldRepository) MaxOrder(ctx context.Context, companyID uuid.UUID) (int, error) {
	var maxOrder int
	err := r.db.GetContext(ctx, &maxOrder, `SELECT COALESCE(MAX(sort_order), 0) FROM custom_fields WHERE company_id = $1`, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to get custom field order: %w", err)
	}
	return maxOrder, nil
}

// Reorder assigns sort_order 1..n following fieldIDs
func (r *customFieldRepository) Reorder(ctx context.Context, companyID uuid.UUID, fieldIDs []uuid.UUID) error {
	now := time.Now()
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i, id := range fieldIDs {
			result, err := tx.ExecContext(ctx, `
				UPDATE custom_fields SET sort_order = $1, updated_at = $2
				WHERE id = $3 AND company_id = $4`, i+1, now, id, companyID)
			if err != nil {
				return fmt.Errorf("failed to reorder custom fields: %w", err)
			}
			if err := checkAffected(result, "custom field"); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *customFieldRepository) ListResponses(ctx context.Context, userID uuid.UUID) ([]*domain.CustomFieldResponse, error) {
	responses := []*domain.CustomFieldResponse{}
	err := r.db.SelectContext(ctx, &responses, `
		SELECT id, user_id, field_id, value, created_at, updated_at
		FROM custom_field_responses
		WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom field responses: %w", err)
	}
	return responses, nil
}

func (r *customFieldRepository) SaveResponses(ctx context.Context, userID uuid.UUID, responses []*domain.CustomFieldResponse) error {
	now := time.Now()
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, resp := range responses {
			if resp.ID == uuid.Nil {
				resp.ID = uuid.New()
			}
			resp.UserID = userID
			resp.CreatedAt = now
			resp.UpdatedAt = now

			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO custom_field_responses (id, user_id, field_id, value, created_at, updated_at)
				VALUES (:id, :user_id, :field_id, :value, :created_at, :updated_at)
				ON CONFLICT (user_id, field_id)
				DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, resp)
			if err != nil {
				return fmt.Errorf("failed to save custom field response: %w", err)
			}
		}
		return nil
	})
}
