package events

import (
	"time"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPermissionRequestSubmitted EventType = "permission_request_submitted"
	EventPermissionRequestReviewed  EventType = "permission_request_reviewed"
	EventComplaintCreated           EventType = "complaint_created"
	EventComplaintResolutionToggled EventType = "complaint_resolution_toggled"
	EventComplaintPriorityChanged   EventType = "complaint_priority_changed"
	EventAnnouncementPublished      EventType = "announcement_published"
)

// AllEventTypes lists every event type emitted by the services.
var AllEventTypes = []EventType{
	EventPermissionRequestSubmitted,
	EventPermissionRequestReviewed,
	EventComplaintCreated,
	EventComplaintResolutionToggled,
	EventComplaintPriorityChanged,
	EventAnnouncementPublished,
}

// Actor identifies who caused an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// PermissionRequestSubmittedPayload payload.
type PermissionRequestSubmittedPayload struct {
	UserID string   `json:"user_id"`
	Fields []string `json:"fields"`
	Reason string   `json:"reason"`
}

// PermissionRequestReviewedPayload payload.
type PermissionRequestReviewedPayload struct {
	UserID        string                         `json:"user_id"`
	Status        domain.PermissionRequestStatus `json:"status"`
	AppliedFields []string                       `json:"applied_fields,omitempty"`
	ReviewNotes   string                         `json:"review_notes,omitempty"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	ResidentID string                   `json:"resident_id"`
	Title      string                   `json:"title"`
	Category   string                   `json:"category"`
	Priority   domain.ComplaintPriority `json:"priority"`
}

// ComplaintResolutionToggledPayload payload.
type ComplaintResolutionToggledPayload struct {
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
	Note      string                 `json:"note,omitempty"`
}

// ComplaintPriorityChangedPayload payload.
type ComplaintPriorityChangedPayload struct {
	OldPriority domain.ComplaintPriority `json:"old_priority"`
	NewPriority domain.ComplaintPriority `json:"new_priority"`
}

// AnnouncementPublishedPayload payload.
type AnnouncementPublishedPayload struct {
	Title          string          `json:"title"`
	Audience       domain.Audience `json:"audience"`
	SelectedSitios []string        `json:"selected_sitios,omitempty"`
}
