package handler

import (
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/handler/middleware"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Health        *HealthHandler
	Auth          *AuthHandler
	Password      *PasswordHandler
	Session       *SessionHandler
	Plan          *PlanHandler
	Payment       *PaymentHandler
	Checkout      *CheckoutHandler
	User          *UserHandler
	Company       *CompanyHandler
	Tenant        *TenantHandler
	PropertyOwner *PropertyOwnerHandler
	Property      *PropertyHandler
	Contract      *ContractHandler
	Document      *DocumentHandler
	CustomField   *CustomFieldHandler
	Dashboard     *DashboardHandler
}

// Middlewares are built in main from config and shared clients
type Middlewares struct {
	// Auth requires an active subscription; AuthPending also admits unpaid owners
	Auth            fiber.Handler
	AuthPending     fiber.Handler
	Checkout        fiber.Handler
	AuthRateLimit   fiber.Handler
	PublicRateLimit fiber.Handler
	Webhook         fiber.Handler
}

func SetupRoutes(app *fiber.App, h Handlers, mw Middlewares) {
	// Health checks (public)
	app.Get("/health", h.Health.Health)
	app.Get("/ready", h.Health.Ready)

	api := app.Group("/api/v1")

	// Auth routes (public, rate limited)
	auth := api.Group("/auth", mw.AuthRateLimit)
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.RefreshToken)
	auth.Post("/logout", h.Auth.Logout)
	auth.Post("/confirm-email", h.Auth.ConfirmEmail)
	auth.Post("/resend-verification-code", h.Auth.ResendVerificationCode)
	auth.Get("/resend-status", h.Auth.ResendStatus)
	auth.Post("/password-reset", h.Password.RequestReset)
	auth.Post("/resend-password-reset-code", h.Password.ResendCode)
	auth.Post("/confirm-password-reset", h.Password.ConfirmReset)

	plans := api.Group("/plans", mw.PublicRateLimit)
	plans.Get("/", h.Plan.ListPlans)
	plans.Get("/:id", h.Plan.GetPlan)

	payment := api.Group("/payment", mw.PublicRateLimit)
	payment.Post("/pending", h.Payment.CreatePendingPayment)
	payment.Get("/pending/:id", h.Payment.GetPendingPayment)
	payment.Post("/process", h.Payment.ProcessCardPayment)

	api.Post("/webhooks/pagarme", mw.Webhook, h.Payment.Webhook)

	// Checkout (checkout token)
	checkout := api.Group("/checkout", mw.PublicRateLimit, mw.Checkout)
	checkout.Get("/", h.Checkout.Info)
	checkout.Post("/activate", h.Checkout.Activate)
	checkout.Patch("/plan", h.Checkout.ChangePlan)

	api.Get("/me", mw.AuthPending, h.Session.Me)

	// Everything below needs an active subscription
	users := api.Group("/users", mw.Auth, middleware.RequireRole(domain.RoleOwner, domain.RoleManager))
	users.Post("/", h.User.CreateUser)
	users.Get("/", h.User.ListUsers)
	users.Get("/:id", h.User.GetUser)
	users.Patch("/:id", h.User.UpdateUser)
	users.Patch("/:id/deactivate", h.User.DeactivateUser)
	users.Patch("/:id/activate", h.User.ActivateUser)
	users.Delete("/:id", h.User.DeleteUser)

	company := api.Group("/company", mw.Auth)
	company.Get("/", h.Company.GetCompany)
	company.Patch("/", h.Company.UpdateCompany)

	tenants := api.Group("/tenants", mw.Auth)
	tenants.Post("/", h.Tenant.CreateTenant)
	tenants.Get("/", h.Tenant.ListTenants)
	tenants.Get("/:id", h.Tenant.GetTenant)
	tenants.Patch("/:id", h.Tenant.UpdateTenant)
	tenants.Delete("/:id", h.Tenant.DeleteTenant)

	owners := api.Group("/property-owners", mw.Auth)
	owners.Post("/", h.PropertyOwner.CreateOwner)
	owners.Get("/", h.PropertyOwner.ListOwners)
	owners.Get("/:id", h.PropertyOwner.GetOwner)
	owners.Patch("/:id", h.PropertyOwner.UpdateOwner)
	owners.Delete("/:id", h.PropertyOwner.DeleteOwner)

	properties := api.Group("/properties", mw.Auth)
	properties.Post("/", h.Property.CreateProperty)
	properties.Get("/", h.Property.ListProperties)
	properties.Get("/:id", h.Property.GetProperty)
	properties.Patch("/:id", h.Property.UpdateProperty)
	properties.Delete("/:id", h.Property.DeleteProperty)
	properties.Post("/:id/photos", h.Property.AddPhoto)
	properties.Delete("/:id/photos/:photoId", h.Property.RemovePhoto)
	properties.Patch("/:id/photos/:photoId/primary", h.Property.SetPrimaryPhoto)

	contracts := api.Group("/contracts", mw.Auth)
	contracts.Post("/", h.Contract.CreateContract)
	contracts.Get("/", h.Contract.ListContracts)
	contracts.Get("/:id", h.Contract.GetContract)
	contracts.Patch("/:id", h.Contract.UpdateContract)
	contracts.Post("/:id/terminate", h.Contract.TerminateContract)
	contracts.Get("/:id/payments", h.Contract.PaymentSchedule)

	documents := api.Group("/documents", mw.Auth)
	documents.Post("/", h.Document.AddDocument)
	documents.Get("/", h.Document.ListDocuments)
	documents.Delete("/:id", h.Document.RemoveDocument)

	fields := api.Group("/custom-fields", mw.Auth)
	fields.Get("/my-fields", h.CustomField.GetMyFields)
	fields.Put("/my-fields", h.CustomField.SaveMyFields)
	fields.Put("/reorder", h.CustomField.ReorderFields)
	fields.Get("/users/:userId", h.CustomField.GetUserFields)
	fields.Post("/", h.CustomField.CreateField)
	fields.Get("/", h.CustomField.ListFields)
	fields.Patch("/:id", h.CustomField.UpdateField)
	fields.Delete("/:id", h.CustomField.DeleteField)

	api.Get("/dashboard/stats", mw.Auth, h.Dashboard.Stats)
}
