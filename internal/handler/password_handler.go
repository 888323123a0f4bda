package handler

import (
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

type PasswordHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
}

func NewPasswordHandler(authService *service.AuthService, validator *validator.Validator) *PasswordHandler {
	return &PasswordHandler{
		authService: authService,
		validator:   validator,
	}
}

// RequestReset sends a reset code, or reports the running reset when a
// code is still valid
// POST /api/v1/auth/password-reset
func (h *PasswordHandler) RequestReset(c *fiber.Ctx) error {
	var req service.EmailRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	status, err := h.authService.RequestPasswordReset(c.UserContext(), req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, status)
}

// POST /api/v1/auth/resend-password-reset-code
func (h *PasswordHandler) ResendCode(c *fiber.Ctx) error {
	var req service.EmailRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	resp, err := h.authService.ResendPasswordResetCode(c.UserContext(), req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, resp)
}

// ConfirmReset sets the new password and ends every open session
// POST /api/v1/auth/confirm-password-reset
func (h *PasswordHandler) ConfirmReset(c *fiber.Ctx) error {
	var req service.ConfirmPasswordResetRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	resp, err := h.authService.ConfirmPasswordReset(c.UserContext(), req)
	if err != nil {
		return err
	}
	return respondMessage(c, resp.Message)
}
