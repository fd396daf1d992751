package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/api/dto"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/service"
)

// PermissionRequestsHandler exposes profile change requests.
type PermissionRequestsHandler struct {
	service *service.PermissionRequestService
}

// NewPermissionRequestsHandler constructs handler.
func NewPermissionRequestsHandler(svc *service.PermissionRequestService) *PermissionRequestsHandler {
	return &PermissionRequestsHandler{service: svc}
}

// Submit POST /permission-requests.
func (h *PermissionRequestsHandler) Submit(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.SubmitPermissionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	created, err := h.service.Submit(c.UserContext(), actor, service.SubmitPermissionRequestInput{
		CurrentValue:       req.CurrentValue,
		RequestChangeValue: req.RequestChangeValue,
		Reason:             req.Reason,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewPermissionRequestResponse(created))
}

// List GET /permission-requests.
func (h *PermissionRequestsHandler) List(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	limit, offset := parsePage(c)
	requests, err := h.service.List(c.UserContext(), actor, service.PermissionRequestListFilter{
		Status: queryPtr(c, "status"),
		UserID: queryPtr(c, "user_id"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPermissionRequestList(requests))
}

// Get GET /permission-requests/:id.
func (h *PermissionRequestsHandler) Get(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	req, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPermissionRequestResponse(req))
}

// UpdateStatus PUT /permission-requests/:id/status.
func (h *PermissionRequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePermissionRequestStatus
	if err := parseBody(c, &req); err != nil {
		return err
	}
	reviewed, err := h.service.Review(c.UserContext(), actor, c.Params("id"), service.ReviewPermissionRequestInput{
		Status:      req.Status,
		ReviewNotes: req.ReviewNotes,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewPermissionRequestResponse(reviewed))
}
