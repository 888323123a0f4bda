package handler

import (
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

// DocumentHandler attaches uploaded files to owners, tenants and contracts.
// The upload itself goes straight to object storage; only metadata passes here.
type DocumentHandler struct {
	documentService *service.DocumentService
	validator       *validator.Validator
}

func NewDocumentHandler(documentService *service.DocumentService, validator *validator.Validator) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		validator:       validator,
	}
}

// POST /api/v1/documents
func (h *DocumentHandler) AddDocument(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req service.AddDocumentRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	doc, err := h.documentService.Add(c.UserContext(), a, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, doc)
}

// GET /api/v1/documents?entityType=&entityId=
func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	entityType, err := queryEnum[domain.DocumentEntityType](c, "entityType")
	if err != nil {
		return err
	}
	entityID, err := queryUUID(c, "entityId")
	if err != nil {
		return err
	}
	if entityType == nil || entityID == nil {
		return domain.NewError(domain.CodeMissingRequiredField, "entityType e entityId são obrigatórios")
	}
	docs, err := h.documentService.List(c.UserContext(), a, *entityType, *entityID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, docs)
}

// DELETE /api/v1/documents/:id
func (h *DocumentHandler) RemoveDocument(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.documentService.Remove(c.UserContext(), a, id); err != nil {
		return err
	}
	return respondMessage(c, "Documento removido com sucesso")
}
