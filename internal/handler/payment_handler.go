package handler

import (
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/validator"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// PaymentHandler serves the public pay-first signup and the gateway webhook
type PaymentHandler struct {
	paymentService *service.PaymentService
	validator      *validator.Validator
}

func NewPaymentHandler(paymentService *service.PaymentService, validator *validator.Validator) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validator:      validator,
	}
}

// CreatePendingPayment opens a checkout for a prospective customer
// POST /api/v1/payment/pending
func (h *PaymentHandler) CreatePendingPayment(c *fiber.Ctx) error {
	var req service.CreatePendingPaymentRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	resp, err := h.paymentService.CreatePendingPayment(c.UserContext(), req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, resp)
}

// GET /api/v1/payment/pending/:id
func (h *PaymentHandler) GetPendingPayment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	payment, err := h.paymentService.GetPendingPayment(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, payment)
}

// ProcessCardPayment charges the tokenized card of a pending checkout
// POST /api/v1/payment/process
func (h *PaymentHandler) ProcessCardPayment(c *fiber.Ctx) error {
	var req service.ProcessCardPaymentRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	resp, err := h.paymentService.ProcessCreditCardPayment(c.UserContext(), req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, resp)
}

// Webhook always answers 200 once the body parses so the gateway stops
// retrying events we cannot act on
// POST /api/v1/webhooks/pagarme
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	var event service.WebhookEvent
	if err := c.BodyParser(&event); err != nil {
		log.WithError(err).Warn("webhook: unreadable body")
		return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
	}
	result := h.paymentService.ProcessWebhook(c.UserContext(), event)
	return c.Status(fiber.StatusOK).JSON(result)
}
