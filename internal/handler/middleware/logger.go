package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// Logger writes one structured line per request once the error handler has
// set the final status
func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		entry := log.WithFields(log.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.IP(),
		})
		if id, ok := c.Locals(LocalUserID).(fmt.Stringer); ok {
			entry = entry.WithField("user_id", id.String())
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("http: request failed")
		case status >= fiber.StatusBadRequest:
			entry.Warn("http: request rejected")
		default:
			entry.Info("http: request")
		}
		return nil
	}
}
