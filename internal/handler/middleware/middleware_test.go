package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/handler"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/handler/middleware"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/jwt"
	"github.com/gofiber/fiber/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type stubTokens struct {
	claims *domain.Claims
	err    error
}

func (s stubTokens) ValidateToken(token, tokenType string) (*domain.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token != "good-token" || tokenType != s.claims.TokenType {
		return nil, jwt.ErrInvalidToken
	}
	return s.claims, nil
}

type stubRevoker struct {
	tokenRevoked bool
	userRevoked  bool
}

func (s stubRevoker) IsTokenRevoked(context.Context, string) (bool, error) { return s.tokenRevoked, nil }
func (s stubRevoker) IsUserRevoked(context.Context, string, time.Time) (bool, error) {
	return s.userRevoked, nil
}

type stubSessions struct {
	user         *domain.User
	err          error
	allowPending bool
}

func (s *stubSessions) Validate(_ context.Context, _ uuid.UUID, allowPending bool) (*service.Session, error) {
	s.allowPending = allowPending
	if s.err != nil {
		return nil, s.err
	}
	return &service.Session{User: s.user}, nil
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})
}

func call(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, body
}

func authedRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return req
}

func TestRequireAuth(t *testing.T) {
	company := uuid.New()
	user := &domain.User{ID: uuid.New(), Name: "Paula", Role: domain.RoleManager, CompanyID: &company, IsActive: true}
	claims := &domain.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{ID: "jti-1", IssuedAt: gojwt.NewNumericDate(time.Now())},
		UserID:           user.ID,
		TokenType:        domain.TokenTypeAccess,
	}

	tests := []struct {
		name       string
		header     string
		tokens     stubTokens
		revoker    stubRevoker
		sessionErr error
		wantStatus int
		wantCode   string
	}{
		{"missing header", "", stubTokens{claims: claims}, stubRevoker{}, nil, 401, "TOKEN_NOT_FOUND"},
		{"bad scheme", "Basic abc", stubTokens{claims: claims}, stubRevoker{}, nil, 401, "INVALID_TOKEN"},
		{"invalid token", "Bearer other", stubTokens{claims: claims}, stubRevoker{}, nil, 401, "INVALID_TOKEN"},
		{"expired token", "Bearer good-token", stubTokens{err: jwt.ErrTokenExpired}, stubRevoker{}, nil, 401, "TOKEN_EXPIRED"},
		{"revoked token", "Bearer good-token", stubTokens{claims: claims}, stubRevoker{tokenRevoked: true}, nil, 401, "INVALID_TOKEN"},
		{"revoked user", "Bearer good-token", stubTokens{claims: claims}, stubRevoker{userRevoked: true}, nil, 401, "TOKEN_EXPIRED"},
		{"expired subscription", "Bearer good-token", stubTokens{claims: claims}, stubRevoker{}, domain.NewError(domain.CodeSubscriptionExpired, ""), 403, "SUBSCRIPTION_EXPIRED"},
		{"ok", "Bearer good-token", stubTokens{claims: claims}, stubRevoker{}, nil, 200, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &stubSessions{user: user, err: tt.sessionErr}
			app := newApp()
			app.Get("/private", middleware.RequireAuth(tt.tokens, tt.revoker, sessions, true), func(c *fiber.Ctx) error {
				actor, ok := middleware.ActorFrom(c)
				if !ok {
					return domain.NewError(domain.CodeAuthenticationRequired, "")
				}
				return c.JSON(fiber.Map{
					"userId":    actor.UserID,
					"companyId": c.Locals(middleware.LocalCompanyID),
					"role":      c.Locals(middleware.LocalRole),
				})
			})

			status, body := call(t, app, authedRequest(tt.header))
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%v)", status, tt.wantStatus, body)
			}
			if tt.wantCode != "" && body["code"] != tt.wantCode {
				t.Fatalf("code = %v, want %s", body["code"], tt.wantCode)
			}
			if tt.wantStatus == 200 {
				if body["userId"] != user.ID.String() || body["companyId"] != company.String() || body["role"] != "manager" {
					t.Fatalf("locals = %v", body)
				}
				if !sessions.allowPending {
					t.Fatal("allowPending not forwarded")
				}
			}
		})
	}
}

func TestRequireCheckoutRejectsAccessTokens(t *testing.T) {
	claims := &domain.Claims{UserID: uuid.New(), TokenType: domain.TokenTypeAccess}
	app := newApp()
	app.Get("/private", middleware.RequireCheckout(stubTokens{claims: claims}), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	status, body := call(t, app, authedRequest("Bearer good-token"))
	if status != 401 || body["code"] != "INVALID_TOKEN" {
		t.Fatalf("status = %d, body = %v", status, body)
	}

	claims.TokenType = domain.TokenTypeCheckout
	status, body = call(t, app, authedRequest("Bearer good-token"))
	if status != 200 || body["ok"] != true {
		t.Fatalf("checkout token: status = %d, body = %v", status, body)
	}
}

func TestRequireRole(t *testing.T) {
	app := newApp()
	withRole := func(role domain.Role) fiber.Handler {
		return func(c *fiber.Ctx) error {
			c.Locals(middleware.LocalRole, role)
			return c.Next()
		}
	}
	ok := func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) }
	guard := middleware.RequireRole(domain.RoleOwner, domain.RoleManager)
	app.Get("/broker", withRole(domain.RoleBroker), guard, ok)
	app.Get("/manager", withRole(domain.RoleManager), guard, ok)
	app.Get("/anonymous", guard, ok)

	if status, body := call(t, app, httptest.NewRequest(http.MethodGet, "/broker", nil)); status != 403 || body["code"] != "INSUFFICIENT_PERMISSIONS" {
		t.Fatalf("broker: %d %v", status, body)
	}
	if status, _ := call(t, app, httptest.NewRequest(http.MethodGet, "/manager", nil)); status != 200 {
		t.Fatalf("manager: %d", status)
	}
	if status, body := call(t, app, httptest.NewRequest(http.MethodGet, "/anonymous", nil)); status != 401 || body["code"] != "AUTHENTICATION_REQUIRED" {
		t.Fatalf("anonymous: %d %v", status, body)
	}
}

func TestWebhookSecret(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) }
	app := newApp()
	app.Post("/hook", middleware.WebhookSecret("s3cret"), ok)
	app.Post("/open", middleware.WebhookSecret(""), ok)

	req := httptest.NewRequest(http.MethodPost, "/hook", nil)
	req.Header.Set(middleware.WebhookSecretHeader, "wrong")
	if status, body := call(t, app, req); status != 401 || body["code"] != "UNAUTHORIZED" {
		t.Fatalf("wrong secret: %d %v", status, body)
	}

	req = httptest.NewRequest(http.MethodPost, "/hook", nil)
	req.Header.Set(middleware.WebhookSecretHeader, "s3cret")
	if status, _ := call(t, app, req); status != 200 {
		t.Fatalf("right secret: %d", status)
	}

	if status, _ := call(t, app, httptest.NewRequest(http.MethodPost, "/open", nil)); status != 200 {
		t.Fatalf("disabled check: %d", status)
	}
}

func TestRecovery(t *testing.T) {
	app := newApp()
	app.Use(middleware.Recovery())
	app.Get("/boom", func(c *fiber.Ctx) error { panic("nil map write") })

	status, body := call(t, app, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if status != 500 || body["code"] != "INTERNAL_SERVER_ERROR" {
		t.Fatalf("status = %d, body = %v", status, body)
	}
}

func TestCORS(t *testing.T) {
	app := newApp()
	app.Use(middleware.CORS("https://app.crm.com.br, https://admin.crm.com.br"))
	app.Get("/x", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{}) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://admin.crm.com.br")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://admin.crm.com.br" {
		t.Fatalf("allow origin = %q", got)
	}
}
