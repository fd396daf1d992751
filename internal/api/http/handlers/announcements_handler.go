package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/api/dto"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/service"
)

const announcementImageField = "image"

// AnnouncementsHandler manages announcement endpoints.
type AnnouncementsHandler struct {
	service *service.AnnouncementService
}

// NewAnnouncementsHandler constructs handler.
func NewAnnouncementsHandler(svc *service.AnnouncementService) *AnnouncementsHandler {
	return &AnnouncementsHandler{service: svc}
}

// Create POST /announcements.
func (h *AnnouncementsHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	input, opened, err := announcementInput(c)
	if err != nil {
		return err
	}
	defer opened.Close()

	created, err := h.service.Create(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewAnnouncementResponse(created))
}

// Update PUT /announcements/:id.
func (h *AnnouncementsHandler) Update(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	input, opened, err := announcementInput(c)
	if err != nil {
		return err
	}
	defer opened.Close()

	updated, err := h.service.Update(c.UserContext(), actor, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAnnouncementResponse(updated))
}

// Delete DELETE /announcements/:id.
func (h *AnnouncementsHandler) Delete(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// List GET /announcements.
func (h *AnnouncementsHandler) List(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	list, err := h.service.List(c.UserContext(), actor, c.Query("search"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAnnouncementList(list))
}

// Get GET /announcements/:id.
func (h *AnnouncementsHandler) Get(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	a, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAnnouncementResponse(a))
}

func announcementInput(c *fiber.Ctx) (service.AnnouncementInput, openedFiles, error) {
	var req dto.AnnouncementRequest
	if err := parseBody(c, &req); err != nil {
		return service.AnnouncementInput{}, nil, err
	}
	input := service.AnnouncementInput{
		Title:          req.Title,
		Content:        req.Content,
		Audience:       req.Audience,
		SelectedSitios: req.SelectedSitios,
		Status:         req.Status,
	}
	if !isMultipart(c) {
		return input, nil, nil
	}

	// Multipart clients may send the sitio list as one comma separated value.
	if len(input.SelectedSitios) == 1 && strings.Contains(input.SelectedSitios[0], ",") {
		input.SelectedSitios = strings.Split(input.SelectedSitios[0], ",")
	}
	image, opened, err := formUpload(c, announcementImageField)
	if err != nil {
		return service.AnnouncementInput{}, nil, err
	}
	input.Image = image
	return input, opened, nil
}
