package handler

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// Check probes one dependency for the readiness endpoint
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]Check
	timeout time.Duration
}

func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Health returns basic health status
// GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "ok",
		"service": "crm-api",
	})
}

// Ready reports each dependency and answers 503 when any is down
// GET /ready
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "ready", fiber.StatusOK
	results := fiber.Map{}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			log.WithError(err).WithField("check", name).Warn("health: dependency not ready")
			results[name] = "unavailable"
			status, code = "not_ready", fiber.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": results,
	})
}
