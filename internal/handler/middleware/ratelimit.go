package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/ratelimit"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// RateLimit caps requests per client IP within window. Redis failures let
// the request through.
func RateLimit(limiter *ratelimit.Limiter, scope string, max int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := limiter.Allow(c.UserContext(), scope, c.IP(), max, window)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"scope": scope, "ip": c.IP()}).Warn("ratelimit: check failed")
			return c.Next()
		}
		if max > 0 {
			c.Set("X-RateLimit-Limit", strconv.Itoa(max))
			c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		}
		if !res.Allowed {
			retry := int(math.Ceil(res.RetryAfter.Seconds()))
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retry))
			log.WithFields(log.Fields{"scope": scope, "ip": c.IP(), "count": res.Count}).Warn("ratelimit: limit exceeded")
			return domain.NewError(domain.CodeRateLimitExceeded, "Muitas requisições. Tente novamente em alguns instantes.").
				WithMetadata("retryAfter", retry)
		}
		return c.Next()
	}
}
