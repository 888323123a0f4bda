package handler

import (
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

type ContractHandler struct {
	contractService *service.ContractService
	validator       *validator.Validator
}

func NewContractHandler(contractService *service.ContractService, validator *validator.Validator) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
		validator:       validator,
	}
}

// POST /api/v1/contracts
func (h *ContractHandler) CreateContract(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req service.CreateContractRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	contract, err := h.contractService.Create(c.UserContext(), a, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, contract)
}

// GET /api/v1/contracts?status=&propertyId=&tenantId=
func (h *ContractHandler) ListContracts(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	params := service.ContractListParams{ListParams: listParams(c)}
	if params.Status, err = queryEnum[domain.ContractStatus](c, "status"); err != nil {
		return err
	}
	if params.PropertyID, err = queryUUID(c, "propertyId"); err != nil {
		return err
	}
	if params.TenantID, err = queryUUID(c, "tenantId"); err != nil {
		return err
	}

	page, err := h.contractService.List(c.UserContext(), a, params)
	if err != nil {
		return err
	}
	return respondPage(c, page)
}

// GET /api/v1/contracts/:id
func (h *ContractHandler) GetContract(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	contract, err := h.contractService.Get(c.UserContext(), a, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, contract)
}

// PATCH /api/v1/contracts/:id
func (h *ContractHandler) UpdateContract(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateContractRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	contract, err := h.contractService.Update(c.UserContext(), a, id, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, contract)
}

// TerminateContract ends an active contract early and frees the property
// POST /api/v1/contracts/:id/terminate
func (h *ContractHandler) TerminateContract(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.TerminateContractRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, h.validator, &req); err != nil {
			return err
		}
	}
	contract, err := h.contractService.Terminate(c.UserContext(), a, id, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, contract)
}

// GET /api/v1/contracts/:id/payments
func (h *ContractHandler) PaymentSchedule(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	schedule, err := h.contractService.PaymentSchedule(c.UserContext(), a, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, schedule)
}
