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

var documentColumns = []string{
	"id", "company_id", "entity_type", "entity_id", "document_type", "filename",
	"original_name", "mime_type", "size", "url", "description", "uploaded_by",
	"created_at", "deleted_at", "deleted_by",
}

type documentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) repository.DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.CreatedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, namedInsert("documents", documentColumns), doc); err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	query := "SELECT " + columnList(documentColumns) + " FROM documents WHERE id = $1 AND deleted_at IS NULL"
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, getErr(err, "document")
	}
	return &doc, nil
}

func (r *documentRepository) ListByEntity(ctx context.Context, companyID uuid.UUID, entityType domain.DocumentEntityType, entityID uuid.UUID) ([]*domain.Document, error) {
	docs := []*domain.Document{}
	query := "SELECT " + columnList(documentColumns) + ` FROM documents
		WHERE company_id = $1 AND entity_type = $2 AND entity_id = $3 AND deleted_at IS NULL
		ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &docs, query, companyID, entityType, entityID); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

func (r *documentRepository) CountByEntity(ctx context.Context, entityType domain.DocumentEntityType, entityID uuid.UUID) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM documents WHERE entity_type = $1 AND entity_id = $2 AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &n, query, entityType, entityID); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func (r *documentRepository) SoftDelete(ctx context.Context, id, deletedBy uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE documents SET deleted_at = $1, deleted_by = $2
		WHERE id = $3 AND deleted_at IS NULL`, time.Now(), deletedBy, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return checkAffected(result, "document")
}
