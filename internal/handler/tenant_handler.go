package handler

import (
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

// TenantHandler serves the lessees (inquilinos) registered by a company
type TenantHandler struct {
	tenantService *service.TenantService
	validator     *validator.Validator
}

func NewTenantHandler(tenantService *service.TenantService, validator *validator.Validator) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
		validator:     validator,
	}
}

// POST /api/v1/tenants
func (h *TenantHandler) CreateTenant(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req service.CreateTenantRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	tenant, err := h.tenantService.Create(c.UserContext(), a, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, tenant)
}

// GET /api/v1/tenants?page=&limit=&search=
func (h *TenantHandler) ListTenants(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	page, err := h.tenantService.List(c.UserContext(), a, listParams(c))
	if err != nil {
		return err
	}
	return respondPage(c, page)
}

// GET /api/v1/tenants/:id
func (h *TenantHandler) GetTenant(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	tenant, err := h.tenantService.Get(c.UserContext(), a, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, tenant)
}

// PATCH /api/v1/tenants/:id
func (h *TenantHandler) UpdateTenant(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateTenantRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	tenant, err := h.tenantService.Update(c.UserContext(), a, id, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, tenant)
}

// DELETE /api/v1/tenants/:id
func (h *TenantHandler) DeleteTenant(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tenantService.Delete(c.UserContext(), a, id); err != nil {
		return err
	}
	return respondMessage(c, "Inquilino excluído com sucesso")
}
