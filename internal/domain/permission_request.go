package domain

import (
	"errors"
	"time"
)

// PermissionRequestStatus enumerates review states.
type PermissionRequestStatus string

const (
	PermissionRequestPending  PermissionRequestStatus = "pending"
	PermissionRequestApproved PermissionRequestStatus = "approved"
	PermissionRequestRejected PermissionRequestStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s PermissionRequestStatus) Valid() bool {
	switch s {
	case PermissionRequestPending, PermissionRequestApproved, PermissionRequestRejected:
		return true
	}
	return false
}

// IsDecision reports whether s is a terminal review outcome.
func (s PermissionRequestStatus) IsDecision() bool {
	return s == PermissionRequestApproved || s == PermissionRequestRejected
}

// ErrAlreadyReviewed is returned when a decided request is reviewed again.
var ErrAlreadyReviewed = errors.New("permission request already reviewed")

// ErrInvalidDecision is returned for a review outcome other than approved or rejected.
var ErrInvalidDecision = errors.New("status must be approved or rejected")

// PermissionRequest is a resident's proposal to change fields on their own profile.
type PermissionRequest struct {
	ID                 string
	UserID             string
	Status             PermissionRequestStatus
	CurrentValue       map[string]any
	RequestChangeValue map[string]any
	Reason             string
	ReviewedBy         *string
	ReviewedAt         *time.Time
	ReviewNotes        *string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	User     *UserSummary
	Reviewer *UserSummary
}

// Review moves a pending request into its terminal state.
func (r *PermissionRequest) Review(decision PermissionRequestStatus, reviewerID, notes string, at time.Time) error {
	if !decision.IsDecision() {
		return ErrInvalidDecision
	}
	if r.Status != PermissionRequestPending {
		return ErrAlreadyReviewed
	}
	r.Status = decision
	r.ReviewedBy = &reviewerID
	r.ReviewedAt = &at
	if notes != "" {
		r.ReviewNotes = &notes
	}
	return nil
}

// Patch decodes the requested change into a typed profile patch.
func (r *PermissionRequest) Patch() (ProfilePatch, error) {
	return ParseProfilePatch(r.RequestChangeValue)
}
