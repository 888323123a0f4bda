package handler

import (
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CustomFieldHandler struct {
	fieldService *service.CustomFieldService
	validator    *validator.Validator
}

func NewCustomFieldHandler(fieldService *service.CustomFieldService, validator *validator.Validator) *CustomFieldHandler {
	return &CustomFieldHandler{
		fieldService: fieldService,
		validator:    validator,
	}
}

type reorderRequest struct {
	FieldIDs []uuid.UUID `json:"fieldIds" validate:"required,min=1"`
}

// POST /api/v1/custom-fields
func (h *CustomFieldHandler) CreateField(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req service.CreateCustomFieldRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	field, err := h.fieldService.Create(c.UserContext(), a, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, field)
}

// GET /api/v1/custom-fields?includeInactive=true
func (h *CustomFieldHandler) ListFields(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	inactive, err := queryBool(c, "includeInactive")
	if err != nil {
		return err
	}
	list, err := h.fieldService.List(c.UserContext(), a, inactive != nil && *inactive)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, list)
}

// PATCH /api/v1/custom-fields/:id
func (h *CustomFieldHandler) UpdateField(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateCustomFieldRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	field, err := h.fieldService.Update(c.UserContext(), a, id, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, field)
}

// DELETE /api/v1/custom-fields/:id
func (h *CustomFieldHandler) DeleteField(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.fieldService.Delete(c.UserContext(), a, id); err != nil {
		return err
	}
	return respondMessage(c, "Campo excluído com sucesso")
}

// PUT /api/v1/custom-fields/reorder
func (h *CustomFieldHandler) ReorderFields(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req reorderRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	if err := h.fieldService.Reorder(c.UserContext(), a, req.FieldIDs); err != nil {
		return err
	}
	return respondMessage(c, "Campos reordenados com sucesso")
}

// GET /api/v1/custom-fields/my-fields
func (h *CustomFieldHandler) GetMyFields(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	fields, err := h.fieldService.GetMyFields(c.UserContext(), a)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fields)
}

// PUT /api/v1/custom-fields/my-fields
func (h *CustomFieldHandler) SaveMyFields(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req service.SaveFieldsRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	resp, err := h.fieldService.SaveMyFields(c.UserContext(), a, req)
	if err != nil {
		return err
	}
	return respondMessage(c, resp.Message)
}

// GET /api/v1/custom-fields/users/:userId
func (h *CustomFieldHandler) GetUserFields(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	fields, err := h.fieldService.GetUserFields(c.UserContext(), a, userID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fields)
}
