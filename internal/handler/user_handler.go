package handler

import (
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

// UserHandler manages the members of the caller's company
type UserHandler struct {
	userService *service.UserService
	validator   *validator.Validator
}

func NewUserHandler(userService *service.UserService, validator *validator.Validator) *UserHandler {
	return &UserHandler{
		userService: userService,
		validator:   validator,
	}
}

// CreateUser invites a new member
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req service.CreateUserRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	user, err := h.userService.Create(c.UserContext(), a, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, user)
}

// ListUsers lists company members
// GET /api/v1/users?page=&limit=&search=&role=&isActive=
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	role, err := queryEnum[domain.Role](c, "role")
	if err != nil {
		return err
	}
	active, err := queryBool(c, "isActive")
	if err != nil {
		return err
	}
	page, err := h.userService.List(c.UserContext(), a, service.UserListParams{
		ListParams: listParams(c),
		Role:       role,
		IsActive:   active,
	})
	if err != nil {
		return err
	}
	return respondPage(c, page)
}

// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.userService.Get(c.UserContext(), a, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user)
}

// PATCH /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateUserRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	user, err := h.userService.Update(c.UserContext(), a, id, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user)
}

// PATCH /api/v1/users/:id/deactivate
func (h *UserHandler) DeactivateUser(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.userService.Deactivate(c.UserContext(), a, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user)
}

// PATCH /api/v1/users/:id/activate
func (h *UserHandler) ActivateUser(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.userService.Activate(c.UserContext(), a, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user)
}

// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.userService.Delete(c.UserContext(), a, id); err != nil {
		return err
	}
	return respondMessage(c, "Usuário excluído com sucesso")
}
