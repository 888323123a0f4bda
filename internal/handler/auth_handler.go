package handler

import (
	"strings"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
}

func NewAuthHandler(authService *service.AuthService, validator *validator.Validator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator,
	}
}

// Register creates the owner account, its company and a pending subscription
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	resp, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, resp)
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	resp, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, resp)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// RefreshToken rotates the refresh token
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req refreshRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	tokens, err := h.authService.RefreshTokens(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, tokens)
}

// Logout revokes the bearer access token and, when sent, the refresh token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}
	}
	access := strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer"))
	if err := h.authService.Logout(c.UserContext(), access, req.RefreshToken); err != nil {
		return err
	}
	return respondMessage(c, "Sessão encerrada com sucesso")
}

// ConfirmEmail checks the verification code and returns a checkout token
// POST /api/v1/auth/confirm-email
func (h *AuthHandler) ConfirmEmail(c *fiber.Ctx) error {
	var req service.ConfirmCodeRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	token, err := h.authService.ConfirmEmail(c.UserContext(), req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, token)
}

// POST /api/v1/auth/resend-verification-code
func (h *AuthHandler) ResendVerificationCode(c *fiber.Ctx) error {
	var req service.EmailRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	resp, err := h.authService.ResendVerificationCode(c.UserContext(), req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, resp)
}

// GET /api/v1/auth/resend-status?email=
func (h *AuthHandler) ResendStatus(c *fiber.Ctx) error {
	req := service.EmailRequest{Email: c.Query("email")}
	if err := h.validator.Validate(req); err != nil {
		return err
	}
	resp, err := h.authService.GetResendStatus(c.UserContext(), req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, resp)
}
