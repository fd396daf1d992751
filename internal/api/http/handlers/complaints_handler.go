package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/api/dto"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/service"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/storage"
	apperrors "github.com/itsmenoahpoli/brgykonek-backend/pkg/util"
)

const (
	complaintAttachmentsField = "attachments"
	resolutionImageField      = "resolution_image"
)

// ComplaintsHandler manages complaint endpoints.
type ComplaintsHandler struct {
	service *service.ComplaintService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(svc *service.ComplaintService) *ComplaintsHandler {
	return &ComplaintsHandler{service: svc}
}

// Create POST /complaints. Accepts JSON or multipart with attachments.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.CreateComplaintRequest
	var uploads []storage.Upload
	if isMultipart(c) {
		if err := parseBody(c, &req); err != nil {
			return err
		}
		date, err := parseTime(c.FormValue("date_of_report"))
		if err != nil {
			return apperrors.NewValidationError("invalid date_of_report", map[string]any{"date_of_report": err.Error()})
		}
		req.DateOfReport = date
		var opened openedFiles
		uploads, opened, err = formUploads(c, complaintAttachmentsField)
		if err != nil {
			return err
		}
		defer opened.Close()
	} else if err := parseBody(c, &req); err != nil {
		return err
	}

	complaint, err := h.service.Create(c.UserContext(), actor, service.ComplaintCreateInput{
		ResidentID:         blankToNil(req.ResidentID),
		Title:              req.Title,
		Category:           req.Category,
		Content:            req.ComplaintContent,
		LocationOfIncident: req.LocationOfIncident,
		DateOfReport:       req.DateOfReport,
		Priority:           req.Priority,
		RiskCategory:       req.PriorityRiskCategory,
		SitioID:            blankToNil(req.Sitio),
		Attachments:        uploads,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewComplaintResponse(complaint))
}

// List GET /complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	limit, offset := parsePage(c)
	complaints, err := h.service.List(c.UserContext(), actor, service.ComplaintListFilter{
		ResidentID: queryPtr(c, "resident_id"),
		SitioID:    queryPtr(c, "sitio_id"),
		Category:   queryPtr(c, "category"),
		Status:     queryPtr(c, "status"),
		Priority:   queryPtr(c, "priority"),
		SearchTerm: queryPtr(c, "search"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewComplaintList(complaints))
}

// Get GET /complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	complaint, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewComplaintResponse(complaint))
}

// UpdatePriority PATCH /complaints/:id/priority.
func (h *ComplaintsHandler) UpdatePriority(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePriorityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	complaint, err := h.service.UpdatePriority(c.UserContext(), actor, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewComplaintResponse(complaint))
}

// ToggleResolution PUT /complaints/:id/resolution. Accepts JSON or multipart
// with an optional resolution image.
func (h *ComplaintsHandler) ToggleResolution(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.ResolutionRequest
	var image *storage.Upload
	if isMultipart(c) {
		req.ResolutionNote = c.FormValue("resolution_note")
		var opened openedFiles
		image, opened, err = formUpload(c, resolutionImageField)
		if err != nil {
			return err
		}
		defer opened.Close()
	} else if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}

	complaint, err := h.service.ToggleResolution(c.UserContext(), actor, c.Params("id"), req.ResolutionNote, image)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewComplaintResponse(complaint))
}

func blankToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed
}
