package middleware

import (
	"slices"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/gofiber/fiber/v2"
)

// RequireRole lets through callers holding one of roles. It runs after
// RequireAuth; finer rules stay in authz.
func RequireRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalRole).(domain.Role)
		if !ok {
			return domain.NewError(domain.CodeAuthenticationRequired, "")
		}
		if !slices.Contains(roles, role) {
			return domain.NewError(domain.CodeInsufficientPermissions, "").
				WithMetadata("requiredRoles", roles)
		}
		return c.Next()
	}
}
