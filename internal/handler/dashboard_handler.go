package handler

import (
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
}

func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GET /api/v1/dashboard/stats
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	stats, err := h.dashboardService.GetStats(c.UserContext(), a)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, stats)
}
