package handler

import (
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

type PropertyOwnerHandler struct {
	ownerService *service.PropertyOwnerService
	validator    *validator.Validator
}

func NewPropertyOwnerHandler(ownerService *service.PropertyOwnerService, validator *validator.Validator) *PropertyOwnerHandler {
	return &PropertyOwnerHandler{
		ownerService: ownerService,
		validator:    validator,
	}
}

// POST /api/v1/property-owners
func (h *PropertyOwnerHandler) CreateOwner(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req service.CreatePropertyOwnerRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	owner, err := h.ownerService.Create(c.UserContext(), a, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, owner)
}

// GET /api/v1/property-owners?page=&limit=&search=
func (h *PropertyOwnerHandler) ListOwners(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	page, err := h.ownerService.List(c.UserContext(), a, listParams(c))
	if err != nil {
		return err
	}
	return respondPage(c, page)
}

// GET /api/v1/property-owners/:id
func (h *PropertyOwnerHandler) GetOwner(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	owner, err := h.ownerService.Get(c.UserContext(), a, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, owner)
}

// PATCH /api/v1/property-owners/:id
func (h *PropertyOwnerHandler) UpdateOwner(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdatePropertyOwnerRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	owner, err := h.ownerService.Update(c.UserContext(), a, id, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, owner)
}

// DELETE /api/v1/property-owners/:id
func (h *PropertyOwnerHandler) DeleteOwner(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.ownerService.Delete(c.UserContext(), a, id); err != nil {
		return err
	}
	return respondMessage(c, "Proprietário excluído com sucesso")
}
