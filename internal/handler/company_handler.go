package handler

import (
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

type CompanyHandler struct {
	companyService *service.CompanyService
	validator      *validator.Validator
}

func NewCompanyHandler(companyService *service.CompanyService, validator *validator.Validator) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		validator:      validator,
	}
}

// GET /api/v1/company
func (h *CompanyHandler) GetCompany(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	company, err := h.companyService.Get(c.UserContext(), a)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, company)
}

// PATCH /api/v1/company
func (h *CompanyHandler) UpdateCompany(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req service.UpdateCompanyRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	company, err := h.companyService.Update(c.UserContext(), a, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, company)
}
