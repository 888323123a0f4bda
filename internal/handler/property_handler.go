package handler

import (
	"strings"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

type PropertyHandler struct {
	propertyService *service.PropertyService
	validator       *validator.Validator
}

func NewPropertyHandler(propertyService *service.PropertyService, validator *validator.Validator) *PropertyHandler {
	return &PropertyHandler{
		propertyService: propertyService,
		validator:       validator,
	}
}

// POST /api/v1/properties
func (h *PropertyHandler) CreateProperty(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req service.CreatePropertyRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	property, err := h.propertyService.Create(c.UserContext(), a, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, property)
}

// ListProperties supports the type, listingType, status, city and brokerId filters
// GET /api/v1/properties
func (h *PropertyHandler) ListProperties(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	params := service.PropertyListParams{
		ListParams: listParams(c),
		City:       strings.TrimSpace(c.Query("city")),
	}
	if params.Type, err = queryEnum[domain.PropertyType](c, "type"); err != nil {
		return err
	}
	if params.ListingType, err = queryEnum[domain.ListingType](c, "listingType"); err != nil {
		return err
	}
	if params.Status, err = queryEnum[domain.PropertyStatus](c, "status"); err != nil {
		return err
	}
	if params.BrokerID, err = queryUUID(c, "brokerId"); err != nil {
		return err
	}

	page, err := h.propertyService.List(c.UserContext(), a, params)
	if err != nil {
		return err
	}
	return respondPage(c, page)
}

// GET /api/v1/properties/:id
func (h *PropertyHandler) GetProperty(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	property, err := h.propertyService.Get(c.UserContext(), a, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, property)
}

// PATCH /api/v1/properties/:id
func (h *PropertyHandler) UpdateProperty(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdatePropertyRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	property, err := h.propertyService.Update(c.UserContext(), a, id, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, property)
}

// DELETE /api/v1/properties/:id
func (h *PropertyHandler) DeleteProperty(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.propertyService.Delete(c.UserContext(), a, id); err != nil {
		return err
	}
	return respondMessage(c, "Imóvel excluído com sucesso")
}

// POST /api/v1/properties/:id/photos
func (h *PropertyHandler) AddPhoto(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.AddPhotoRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	photo, err := h.propertyService.AddPhoto(c.UserContext(), a, id, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, photo)
}

// DELETE /api/v1/properties/:id/photos/:photoId
func (h *PropertyHandler) RemovePhoto(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	photoID, err := paramID(c, "photoId")
	if err != nil {
		return err
	}
	if err := h.propertyService.RemovePhoto(c.UserContext(), a, id, photoID); err != nil {
		return err
	}
	return respondMessage(c, "Foto removida com sucesso")
}

// PATCH /api/v1/properties/:id/photos/:photoId/primary
func (h *PropertyHandler) SetPrimaryPhoto(c *fiber.Ctx) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	photoID, err := paramID(c, "photoId")
	if err != nil {
		return err
	}
	if err := h.propertyService.SetPrimaryPhoto(c.UserContext(), a, id, photoID); err != nil {
		return err
	}
	return respondMessage(c, "Foto principal atualizada")
}
