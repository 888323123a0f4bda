package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp.StatusCode, out
}

func TestErrorHandlerEnvelope(t *testing.T) {
	app := newTestApp()
	app.Get("/app-error", func(c *fiber.Ctx) error {
		return domain.NewError(domain.CodePlanLimitExceeded, "Limite atingido").WithMetadata("limit", 5)
	})
	app.Get("/wrapped", func(c *fiber.Ctx) error {
		return domain.NotFound("Imóvel não encontrado.").Wrap(errors.New("sql: no rows"))
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return errors.New("connection reset by peer")
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.ErrMethodNotAllowed
	})

	tests := []struct {
		path       string
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"/app-error", http.StatusForbidden, "PLAN_LIMIT_EXCEEDED", "Limite atingido"},
		{"/wrapped", http.StatusNotFound, "NOT_FOUND", "Imóvel não encontrado."},
		{"/plain", http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", ""},
		{"/fiber", http.StatusMethodNotAllowed, "OPERATION_NOT_ALLOWED", ""},
		{"/missing", http.StatusNotFound, "NOT_FOUND", ""},
	}
	for _, tt := range tests {
		status, body := doJSON(t, app, http.MethodGet, tt.path, "")
		if status != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d", tt.path, status, tt.wantStatus)
		}
		if body["success"] != false || body["code"] != tt.wantCode {
			t.Errorf("%s: body = %v", tt.path, body)
		}
		if tt.wantMsg != "" && body["message"] != tt.wantMsg {
			t.Errorf("%s: message = %v, want %q", tt.path, body["message"], tt.wantMsg)
		}
		if msg, _ := body["message"].(string); strings.Contains(msg, "connection reset") {
			t.Errorf("%s: internal error leaked: %q", tt.path, msg)
		}
	}

	_, body := doJSON(t, app, http.MethodGet, "/app-error", "")
	meta, _ := body["metadata"].(map[string]any)
	if meta["limit"] != float64(5) {
		t.Errorf("metadata = %v", body["metadata"])
	}
}

type signupBody struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=2"`
}

func TestParseBodyValidation(t *testing.T) {
	v := validator.NewValidator()
	app := newTestApp()
	app.Post("/signup", func(c *fiber.Ctx) error {
		var req signupBody
		if err := parseBody(c, v, &req); err != nil {
			return err
		}
		return respondMessage(c, "ok")
	})

	status, body := doJSON(t, app, http.MethodPost, "/signup", `{"email":"nope","name":"Jo"}`)
	if status != http.StatusUnprocessableEntity || body["code"] != "VALIDATION_ERROR" {
		t.Fatalf("invalid body: %d %v", status, body)
	}
	meta, _ := body["metadata"].(map[string]any)
	if fields, _ := meta["fields"].([]any); len(fields) != 1 {
		t.Fatalf("fields = %v", meta["fields"])
	}

	status, body = doJSON(t, app, http.MethodPost, "/signup", `{not json`)
	if status != http.StatusBadRequest || body["code"] != "BAD_REQUEST" {
		t.Fatalf("malformed body: %d %v", status, body)
	}

	status, body = doJSON(t, app, http.MethodPost, "/signup", `{"email":"jo@x.com","name":"Jo"}`)
	if status != http.StatusOK || body["success"] != true || body["message"] != "ok" {
		t.Fatalf("valid body: %d %v", status, body)
	}
}

func TestRespondPage(t *testing.T) {
	app := newTestApp()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := listParams(c)
		return respondPage(c, &service.Page[string]{Items: []string{"a", "b"}, Total: 45, Page: p.Page, Limit: p.Limit})
	})

	status, body := doJSON(t, app, http.MethodGet, "/items?page=2&limit=20", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	pg, _ := body["pagination"].(map[string]any)
	if pg["page"] != float64(2) || pg["limit"] != float64(20) || pg["total"] != float64(45) || pg["totalPages"] != float64(3) {
		t.Fatalf("pagination = %v", pg)
	}
	if items, _ := body["data"].([]any); len(items) != 2 {
		t.Fatalf("data = %v", body["data"])
	}
}

func TestQueryParsers(t *testing.T) {
	app := newTestApp()
	app.Get("/filter", func(c *fiber.Ctx) error {
		if _, err := queryUUID(c, "ownerId"); err != nil {
			return err
		}
		if _, err := queryBool(c, "isActive"); err != nil {
			return err
		}
		status, err := queryEnum[domain.ContractStatus](c, "status")
		if err != nil {
			return err
		}
		return respond(c, fiber.StatusOK, status)
	})

	for _, q := range []string{"ownerId=abc", "isActive=talvez", "status=whatever"} {
		status, body := doJSON(t, app, http.MethodGet, "/filter?"+q, "")
		if status != http.StatusUnprocessableEntity || body["code"] != "INVALID_INPUT" {
			t.Errorf("%s: %d %v", q, status, body)
		}
	}

	status, body := doJSON(t, app, http.MethodGet, "/filter?ownerId="+uuid.NewString()+"&isActive=true&status=active", "")
	if status != http.StatusOK || body["data"] != "active" {
		t.Fatalf("valid filters: %d %v", status, body)
	}
}

type stubPlanRepo struct {
	repository.PlanRepository
	plan *domain.Plan
}

func (r stubPlanRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Plan, error) {
	if r.plan == nil || r.plan.ID != id {
		return nil, repository.ErrNotFound
	}
	return r.plan, nil
}

func TestGetPlanPathParam(t *testing.T) {
	plan := &domain.Plan{ID: uuid.New(), Name: "Básico", Slug: "basico", Price: 4990, DurationDays: 30, IsActive: true}
	h := NewPlanHandler(service.NewPlanService(stubPlanRepo{plan: plan}))
	app := newTestApp()
	app.Get("/plans/:id", h.GetPlan)

	status, body := doJSON(t, app, http.MethodGet, "/plans/"+plan.ID.String(), "")
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	data, _ := body["data"].(map[string]any)
	if data["slug"] != "basico" || data["durationDays"] != float64(30) {
		t.Fatalf("data = %v", data)
	}

	// malformed ids cannot exist
	status, body = doJSON(t, app, http.MethodGet, "/plans/not-a-uuid", "")
	if status != http.StatusNotFound || body["code"] != "NOT_FOUND" {
		t.Fatalf("malformed id: %d %v", status, body)
	}

	status, body = doJSON(t, app, http.MethodGet, "/plans/"+uuid.NewString(), "")
	if status != http.StatusNotFound || body["code"] != "PLAN_NOT_FOUND" {
		t.Fatalf("unknown id: %d %v", status, body)
	}
}

func TestReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	app := newTestApp()
	app.Get("/ready", NewHealthHandler(map[string]Check{"database": ok, "redis": ok}).Ready)
	app.Get("/ready-down", NewHealthHandler(map[string]Check{"database": ok, "redis": down}).Ready)
	app.Get("/health", NewHealthHandler(nil).Health)

	status, body := doJSON(t, app, http.MethodGet, "/ready", "")
	if status != http.StatusOK || body["status"] != "ready" {
		t.Fatalf("ready: %d %v", status, body)
	}

	status, body = doJSON(t, app, http.MethodGet, "/ready-down", "")
	checks, _ := body["checks"].(map[string]any)
	if status != http.StatusServiceUnavailable || checks["redis"] != "unavailable" || checks["database"] != "ok" {
		t.Fatalf("ready-down: %d %v", status, body)
	}

	status, body = doJSON(t, app, http.MethodGet, "/health", "")
	if status != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health: %d %v", status, body)
	}
}
