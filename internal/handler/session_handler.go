package handler

import (
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/gofiber/fiber/v2"
)

type SessionHandler struct {
	authService *service.AuthService
}

func NewSessionHandler(authService *service.AuthService) *SessionHandler {
	return &SessionHandler{authService: authService}
}

// Me returns the caller with their company, plan and pending custom fields
// GET /api/v1/me
func (h *SessionHandler) Me(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	me, err := h.authService.GetMe(c.UserContext(), a.UserID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, me)
}
