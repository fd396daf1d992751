package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/api/dto"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/service"
)

// SitiosHandler serves the barangay zones.
type SitiosHandler struct {
	service *service.SitioService
}

// NewSitiosHandler constructs handler.
func NewSitiosHandler(svc *service.SitioService) *SitiosHandler {
	return &SitiosHandler{service: svc}
}

// List GET /sitios.
func (h *SitiosHandler) List(c *fiber.Ctx) error {
	sitios, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSitioList(sitios))
}

// Create POST /sitios.
func (h *SitiosHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.SitioRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	sitio, err := h.service.Create(c.UserContext(), actor, req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.SitioResponse{ID: sitio.ID, Name: sitio.Name, CreatedAt: sitio.CreatedAt})
}
