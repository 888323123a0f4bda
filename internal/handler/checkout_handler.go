package handler

import (
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler lets a registered owner pay for a pending subscription.
// Every route runs behind RequireCheckout.
type CheckoutHandler struct {
	subscriptionService *service.SubscriptionService
	validator           *validator.Validator
}

func NewCheckoutHandler(subscriptionService *service.SubscriptionService, validator *validator.Validator) *CheckoutHandler {
	return &CheckoutHandler{
		subscriptionService: subscriptionService,
		validator:           validator,
	}
}

// GET /api/v1/checkout
func (h *CheckoutHandler) Info(c *fiber.Ctx) error {
	cl, err := tokenClaims(c)
	if err != nil {
		return err
	}
	info, err := h.subscriptionService.GetCheckoutInfo(c.UserContext(), cl)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, info)
}

// POST /api/v1/checkout/activate
func (h *CheckoutHandler) Activate(c *fiber.Ctx) error {
	cl, err := tokenClaims(c)
	if err != nil {
		return err
	}
	var req service.ActivateSubscriptionRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	resp, err := h.subscriptionService.ActivateSubscription(c.UserContext(), cl, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, resp)
}

// PATCH /api/v1/checkout/plan
func (h *CheckoutHandler) ChangePlan(c *fiber.Ctx) error {
	cl, err := tokenClaims(c)
	if err != nil {
		return err
	}
	var req service.ChangePlanRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	info, err := h.subscriptionService.ChangePlan(c.UserContext(), cl, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, info)
}
