package middleware

import (
	"crypto/subtle"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookSecret checks the shared secret sent by the payment gateway. An
// empty secret disables the check (local development only; config refuses
// it in production).
func WebhookSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}
		got := c.Get(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			log.WithField("ip", c.IP()).Warn("webhook: invalid secret")
			return domain.NewError(domain.CodeUnauthorized, "Assinatura do webhook inválida")
		}
		return c.Next()
	}
}
