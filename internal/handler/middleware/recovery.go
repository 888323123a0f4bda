package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// Recovery turns a panic into a generic 500 and logs the stack
func Recovery() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(log.Fields{
					"method": c.Method(),
					"path":   c.Path(),
					"panic":  fmt.Sprint(r),
					"stack":  string(debug.Stack()),
				}).Error("http: panic recovered")
				err = domain.Internal("Erro interno do servidor")
			}
		}()
		return c.Next()
	}
}
