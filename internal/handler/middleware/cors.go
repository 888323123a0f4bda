package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS allows the configured frontend origins. Credentials are only
// allowed with an explicit origin list.
func CORS(origins string) fiber.Handler {
	allow := strings.ReplaceAll(strings.TrimSpace(origins), " ", "")
	if allow == "" {
		allow = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:     allow,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		ExposeHeaders:    "X-RateLimit-Limit,X-RateLimit-Remaining,Retry-After",
		AllowCredentials: allow != "*",
		MaxAge:           3600,
	})
}
