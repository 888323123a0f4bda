package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/authz"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/handler/middleware"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type errorBody struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Code     string         `json:"code"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

func respondMessage(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": msg})
}

func respondPage[T any](c *fiber.Ctx, page *service.Page[T]) error {
	totalPages := 0
	if page.Limit > 0 {
		totalPages = (page.Total + page.Limit - 1) / page.Limit
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    page.Items,
		"pagination": pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: totalPages,
		},
	})
}

// respondError maps an error to the JSON error envelope. Only AppErrors and
// validation failures reach the client verbatim.
func respondError(c *fiber.Ctx, err error) error {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		msg := domain.NewError(domain.CodeValidationError, "").Message
		if len(verr.Fields) > 0 {
			msg = verr.Fields[0].Message
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorBody{
			Message:  msg,
			Code:     string(domain.CodeValidationError),
			Metadata: map[string]any{"fields": verr.Fields},
		})
	}

	if appErr, ok := domain.AsAppError(err); ok {
		status := appErr.Status
		if status == 0 {
			status = domain.StatusFor(appErr.Code)
		}
		return c.Status(status).JSON(errorBody{
			Message:  appErr.Message,
			Code:     string(appErr.Code),
			Metadata: appErr.Metadata,
		})
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := domain.CodeBadRequest
		switch fe.Code {
		case fiber.StatusNotFound:
			code = domain.CodeNotFound
		case fiber.StatusMethodNotAllowed:
			code = domain.CodeOperationNotAllowed
		case fiber.StatusRequestEntityTooLarge:
			code = domain.CodeInvalidInput
		}
		return c.Status(fe.Code).JSON(errorBody{Message: fe.Message, Code: string(code)})
	}

	log.WithError(err).WithFields(log.Fields{"method": c.Method(), "path": c.Path()}).Error("http: unhandled error")
	return c.Status(fiber.StatusInternalServerError).JSON(errorBody{
		Message: domain.NewError(domain.CodeInternalServerError, "").Message,
		Code:    string(domain.CodeInternalServerError),
	})
}

// ErrorHandler is installed as fiber's app-wide error handler
func ErrorHandler(c *fiber.Ctx, err error) error {
	return respondError(c, err)
}

// parseBody decodes the JSON body into dst and runs its validate tags
func parseBody(c *fiber.Ctx, v *validator.Validator, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return domain.BadRequest("Corpo da requisição inválido")
	}
	return v.Validate(dst)
}

func currentActor(c *fiber.Ctx) (authz.Actor, error) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return authz.Actor{}, domain.NewError(domain.CodeAuthenticationRequired, "")
	}
	return a, nil
}

func tokenClaims(c *fiber.Ctx) (*domain.Claims, error) {
	cl, ok := middleware.ClaimsFrom(c)
	if !ok {
		return nil, domain.NewError(domain.CodeAuthenticationRequired, "")
	}
	return cl, nil
}

// paramID parses a UUID path parameter. Malformed ids cannot exist, so they
// read as not found.
func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, domain.NotFound("")
	}
	return id, nil
}

func listParams(c *fiber.Ctx) service.ListParams {
	return service.ListParams{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", service.DefaultPageSize),
		Search: strings.TrimSpace(c.Query("search")),
	}
}

func queryUUID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.NewError(domain.CodeInvalidInput, key+" deve ser um UUID válido")
	}
	return &id, nil
}

func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, domain.NewError(domain.CodeInvalidInput, key+" deve ser true ou false")
	}
	return &b, nil
}

// queryEnum reads an optional enum filter
func queryEnum[T interface {
	~string
	Valid() bool
}](c *fiber.Ctx, key string) (*T, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v := T(raw)
	if !v.Valid() {
		return nil, domain.NewError(domain.CodeInvalidInput, key+" inválido")
	}
	return &v, nil
}
