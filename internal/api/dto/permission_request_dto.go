package dto

import (
	"time"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
)

// SubmitPermissionRequest payload.
type SubmitPermissionRequest struct {
	CurrentValue       map[string]any `json:"current_value"`
	RequestChangeValue map[string]any `json:"request_change_value"`
	Reason             string         `json:"reason"`
}

// UpdatePermissionRequestStatus payload.
type UpdatePermissionRequestStatus struct {
	Status      string `json:"status"`
	ReviewNotes string `json:"review_notes"`
}

// PermissionRequestResponse renders a request with owner and reviewer expanded.
type PermissionRequestResponse struct {
	ID                 string                         `json:"id"`
	UserID             string                         `json:"user_id"`
	User               *UserSummary                   `json:"user,omitempty"`
	Status             domain.PermissionRequestStatus `json:"status"`
	CurrentValue       map[string]any                 `json:"current_value"`
	RequestChangeValue map[string]any                 `json:"request_change_value"`
	Reason             string                         `json:"reason"`
	ReviewedBy         *string                        `json:"reviewed_by,omitempty"`
	Reviewer           *UserSummary                   `json:"reviewer,omitempty"`
	ReviewedAt         *time.Time                     `json:"reviewed_at,omitempty"`
	ReviewNotes        *string                        `json:"review_notes,omitempty"`
	CreatedAt          time.Time                      `json:"created_at"`
	UpdatedAt          time.Time                      `json:"updated_at"`
}

// NewPermissionRequestResponse maps a domain request.
func NewPermissionRequestResponse(r *domain.PermissionRequest) PermissionRequestResponse {
	current := r.CurrentValue
	if current == nil {
		current = map[string]any{}
	}
	return PermissionRequestResponse{
		ID:                 r.ID,
		UserID:             r.UserID,
		User:               NewUserSummary(r.User),
		Status:             r.Status,
		CurrentValue:       current,
		RequestChangeValue: r.RequestChangeValue,
		Reason:             r.Reason,
		ReviewedBy:         r.ReviewedBy,
		Reviewer:           NewUserSummary(r.Reviewer),
		ReviewedAt:         r.ReviewedAt,
		ReviewNotes:        r.ReviewNotes,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// NewPermissionRequestList maps a slice of requests.
func NewPermissionRequestList(requests []domain.PermissionRequest) []PermissionRequestResponse {
	out := make([]PermissionRequestResponse, 0, len(requests))
	for i := range requests {
		out = append(out, NewPermissionRequestResponse(&requests[i]))
	}
	return out
}
