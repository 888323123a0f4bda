package handler

import (
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/gofiber/fiber/v2"
)

type PlanHandler struct {
	planService *service.PlanService
}

func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// GET /api/v1/plans
func (h *PlanHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.planService.List(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, plans)
}

// GET /api/v1/plans/:id
func (h *PlanHandler) GetPlan(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	plan, err := h.planService.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, plan)
}
