package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/authz"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/normalize"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	maxDocumentsPerEntity = 20
	maxDocumentSize       = 10 * 1024 * 1024
	documentNotFound      = "Documento não encontrado."
)

var documentMimeTypes = []string{"application/pdf", "image/jpeg", "image/png", "image/webp"}

type DocumentService struct {
	documentRepo repository.DocumentRepository
	ownerRepo    repository.PropertyOwnerRepository
	tenantRepo   repository.TenantRepository
	contractRepo repository.ContractRepository
}

func NewDocumentService(
	documentRepo repository.DocumentRepository,
	ownerRepo repository.PropertyOwnerRepository,
	tenantRepo repository.TenantRepository,
	contractRepo repository.ContractRepository,
) *DocumentService {
	return &DocumentService{
		documentRepo: documentRepo,
		ownerRepo:    ownerRepo,
		tenantRepo:   tenantRepo,
		contractRepo: contractRepo,
	}
}

type AddDocumentRequest struct {
	EntityType   domain.DocumentEntityType `json:"entityType" validate:"required"`
	EntityID     uuid.UUID                 `json:"entityId" validate:"required"`
	DocumentType domain.DocumentType       `json:"documentType" validate:"required"`
	Filename     string                    `json:"filename" validate:"required,max=255"`
	OriginalName string                    `json:"originalName" validate:"required,max=255"`
	MimeType     string                    `json:"mimeType" validate:"required"`
	Size         int64                     `json:"size" validate:"required,min=1"`
	URL          string                    `json:"url" validate:"required,url"`
	Description  *string                   `json:"description" validate:"omitempty,max=500"`
}

type DocumentDTO struct {
	ID           uuid.UUID                 `json:"id"`
	EntityType   domain.DocumentEntityType `json:"entityType"`
	EntityID     uuid.UUID                 `json:"entityId"`
	DocumentType domain.DocumentType       `json:"documentType"`
	Filename     string                    `json:"filename"`
	OriginalName string                    `json:"originalName"`
	MimeType     string                    `json:"mimeType"`
	Size         int64                     `json:"size"`
	URL          string                    `json:"url"`
	Description  *string                   `json:"description"`
	UploadedBy   uuid.UUID                 `json:"uploadedBy"`
	CreatedAt    time.Time                 `json:"createdAt"`
}

func toDocumentDTO(d *domain.Document) *DocumentDTO {
	return &DocumentDTO{
		ID:           d.ID,
		EntityType:   d.EntityType,
		EntityID:     d.EntityID,
		DocumentType: d.DocumentType,
		Filename:     d.Filename,
		OriginalName: d.OriginalName,
		MimeType:     d.MimeType,
		Size:         d.Size,
		URL:          d.URL,
		Description:  d.Description,
		UploadedBy:   d.UploadedBy,
		CreatedAt:    d.CreatedAt,
	}
}

// checkEntity makes sure the record a document hangs off exists in the
// actor's company and, for brokers, is one of theirs. verb completes the
// broker message ("adicionar documentos em", "ver documentos de", ...).
func (s *DocumentService) checkEntity(ctx context.Context, actor authz.Actor, entityType domain.DocumentEntityType, entityID uuid.UUID, verb string) error {
	switch entityType {
	case domain.DocumentEntityPropertyOwner:
		owner, err := loadScoped(ctx, actor, s.ownerRepo.GetByID, entityID, ownerNotFound)
		if err != nil {
			return err
		}
		return authz.RequireOwnership(actor, &owner.CreatedBy, fmt.Sprintf("Você só pode %s proprietários que você cadastrou.", verb))
	case domain.DocumentEntityTenant:
		tenant, err := loadScoped(ctx, actor, s.tenantRepo.GetByID, entityID, tenantNotFound)
		if err != nil {
			return err
		}
		return authz.RequireOwnership(actor, &tenant.CreatedBy, fmt.Sprintf("Você só pode %s locatários que você cadastrou.", verb))
	case domain.DocumentEntityContract:
		contract, err := loadScoped(ctx, actor, s.contractRepo.GetByID, entityID, contractNotFound)
		if err != nil {
			return err
		}
		return authz.RequireOwnership(actor, contract.BrokerID, fmt.Sprintf("Você só pode %s contratos dos quais é responsável.", verb))
	}
	return domain.BadRequest("Tipo de entidade inválido. Use: property_owner, tenant, contract.")
}

// Add registers an already uploaded file against an owner, tenant or contract
func (s *DocumentService) Add(ctx context.Context, actor authz.Actor, req AddDocumentRequest) (*DocumentDTO, error) {
	companyID, err := authz.Authorize(actor, authz.ActionManageDocuments)
	if err != nil {
		return nil, err
	}

	if !req.EntityType.Valid() {
		return nil, domain.BadRequest("Tipo de entidade inválido. Use: property_owner, tenant, contract.")
	}
	if !req.DocumentType.Valid() {
		return nil, domain.BadRequest("Tipo de documento inválido.")
	}
	if !slices.Contains(documentMimeTypes, req.MimeType) {
		return nil, domain.BadRequest(fmt.Sprintf("Tipo de arquivo nao permitido. Use: %s.", strings.Join(documentMimeTypes, ", ")))
	}
	if req.Size > maxDocumentSize {
		return nil, domain.BadRequest("Arquivo muito grande. Tamanho maximo: 10MB.")
	}
	if limit := req.DocumentType.SizeLimit(); req.Size > limit {
		return nil, domain.BadRequest(fmt.Sprintf("Arquivo muito grande para este tipo de documento. Tamanho maximo: %dMB.", limit/(1024*1024)))
	}

	if err := s.checkEntity(ctx, actor, req.EntityType, req.EntityID, "adicionar documentos em"); err != nil {
		return nil, err
	}

	fields := log.Fields{"entity_type": req.EntityType, "entity_id": req.EntityID}
	count, err := s.documentRepo.CountByEntity(ctx, req.EntityType, req.EntityID)
	if err != nil {
		return nil, internalError(err, "Erro ao adicionar documento. Tente novamente.", fields)
	}
	if count >= maxDocumentsPerEntity {
		return nil, domain.BadRequest(fmt.Sprintf("Limite de %d documentos por registro atingido.", maxDocumentsPerEntity))
	}

	doc := &domain.Document{
		ID:           uuid.New(),
		CompanyID:    companyID,
		EntityType:   req.EntityType,
		EntityID:     req.EntityID,
		DocumentType: req.DocumentType,
		Filename:     strings.TrimSpace(req.Filename),
		OriginalName: strings.TrimSpace(req.OriginalName),
		MimeType:     req.MimeType,
		Size:         req.Size,
		URL:          strings.TrimSpace(req.URL),
		Description:  normalize.Text(req.Description),
		UploadedBy:   actor.UserID,
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		return nil, internalError(err, "Erro ao adicionar documento. Tente novamente.", fields)
	}

	log.WithFields(log.Fields{"document_id": doc.ID, "entity_type": doc.EntityType, "entity_id": doc.EntityID, "uploaded_by": actor.UserID}).Info("document: added")
	return toDocumentDTO(doc), nil
}

func (s *DocumentService) List(ctx context.Context, actor authz.Actor, entityType domain.DocumentEntityType, entityID uuid.UUID) ([]*DocumentDTO, error) {
	companyID, err := authz.Authorize(actor, authz.ActionManageDocuments)
	if err != nil {
		return nil, err
	}
	if err := s.checkEntity(ctx, actor, entityType, entityID, "ver documentos de"); err != nil {
		return nil, err
	}

	docs, err := s.documentRepo.ListByEntity(ctx, companyID, entityType, entityID)
	if err != nil {
		return nil, internalError(err, "Erro ao listar documentos. Tente novamente.", log.Fields{"entity_type": entityType, "entity_id": entityID})
	}
	items := make([]*DocumentDTO, len(docs))
	for i, d := range docs {
		items[i] = toDocumentDTO(d)
	}
	return items, nil
}

// Remove soft-deletes a document
func (s *DocumentService) Remove(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if _, err := authz.Authorize(actor, authz.ActionManageDocuments); err != nil {
		return err
	}
	doc, err := loadScoped(ctx, actor, s.documentRepo.GetByID, id, documentNotFound)
	if err != nil {
		return err
	}
	if err := s.checkEntity(ctx, actor, doc.EntityType, doc.EntityID, "remover documentos de"); err != nil {
		return err
	}

	if err := s.documentRepo.SoftDelete(ctx, id, actor.UserID); err != nil {
		if isNotFound(err) {
			return domain.NotFound(documentNotFound)
		}
		return internalError(err, "Erro ao remover documento. Tente novamente.", log.Fields{"document_id": id})
	}

	log.WithFields(log.Fields{"document_id": id, "removed_by": actor.UserID}).Info("document: removed")
	return nil
}
