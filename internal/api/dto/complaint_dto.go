package dto

import (
	"time"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
)

// CreateComplaintRequest is the JSON form of a new complaint. Multipart
// submissions use the same field names.
type CreateComplaintRequest struct {
	ResidentID           *string    `json:"resident_id" form:"resident_id"`
	Title                string     `json:"title" form:"title"`
	Category             string     `json:"category" form:"category"`
	ComplaintContent     string     `json:"complaint_content" form:"complaint_content"`
	LocationOfIncident   string     `json:"location_of_incident" form:"location_of_incident"`
	DateOfReport         *time.Time `json:"date_of_report" form:"-"`
	Priority             string     `json:"priority" form:"priority"`
	PriorityRiskCategory string     `json:"priority_risk_category" form:"priority_risk_category"`
	Sitio                *string    `json:"sitio" form:"sitio"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority string `json:"priority"`
}

// ResolutionRequest payload for the resolution toggle.
type ResolutionRequest struct {
	ResolutionNote string `json:"resolution_note" form:"resolution_note"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID         string `json:"id"`
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// ComplaintResponse renders a complaint.
type ComplaintResponse struct {
	ID                   string                   `json:"id"`
	ResidentID           string                   `json:"resident_id"`
	Resident             *UserSummary             `json:"resident,omitempty"`
	Title                string                   `json:"title"`
	Category             string                   `json:"category"`
	DateOfReport         *time.Time               `json:"date_of_report,omitempty"`
	LocationOfIncident   string                   `json:"location_of_incident"`
	ComplaintContent     string                   `json:"complaint_content"`
	Priority             domain.ComplaintPriority `json:"priority"`
	PriorityRiskCategory domain.RiskCategory      `json:"priority_risk_category"`
	Sitio                *string                  `json:"sitio,omitempty"`
	Status               domain.ComplaintStatus   `json:"status"`
	ResolutionNote       *string                  `json:"resolution_note,omitempty"`
	ResolvedBy           *string                  `json:"resolved_by,omitempty"`
	Resolver             *UserSummary             `json:"resolver,omitempty"`
	ResolvedAt           *time.Time               `json:"resolved_at,omitempty"`
	ResolutionImage      *string                  `json:"resolution_image,omitempty"`
	Attachments          []AttachmentResponse     `json:"attachments"`
	CreatedAt            time.Time                `json:"created_at"`
	UpdatedAt            time.Time                `json:"updated_at"`
}

// NewComplaintResponse maps a domain complaint.
func NewComplaintResponse(c *domain.Complaint) ComplaintResponse {
	attachments := make([]AttachmentResponse, 0, len(c.Attachments))
	for _, a := range c.Attachments {
		attachments = append(attachments, AttachmentResponse{
			ID:         a.ID,
			StorageKey: a.StorageKey,
			FileName:   a.FileName,
			MimeType:   a.MimeType,
			SizeBytes:  a.SizeBytes,
		})
	}
	return ComplaintResponse{
		ID:                   c.ID,
		ResidentID:           c.ResidentID,
		Resident:             NewUserSummary(c.Resident),
		Title:                c.Title,
		Category:             c.Category,
		DateOfReport:         c.DateOfReport,
		LocationOfIncident:   c.LocationOfIncident,
		ComplaintContent:     c.Content,
		Priority:             c.Priority,
		PriorityRiskCategory: c.PriorityRiskCategory,
		Sitio:                c.SitioID,
		Status:               c.Status,
		ResolutionNote:       c.ResolutionNote,
		ResolvedBy:           c.ResolvedBy,
		Resolver:             NewUserSummary(c.Resolver),
		ResolvedAt:           c.ResolvedAt,
		ResolutionImage:      c.ResolutionImage,
		Attachments:          attachments,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

// NewComplaintList maps a slice of complaints.
func NewComplaintList(complaints []domain.Complaint) []ComplaintResponse {
	out := make([]ComplaintResponse, 0, len(complaints))
	for i := range complaints {
		out = append(out, NewComplaintResponse(&complaints[i]))
	}
	return out
}
