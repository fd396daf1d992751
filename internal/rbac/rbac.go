// Package rbac maps account roles onto the actions they may perform.
package rbac

import "github.com/itsmenoahpoli/brgykonek-backend/internal/domain"

type Action string

const (
	ActionSubmitPermissionRequest  Action = "submit_permission_request"
	ActionReviewPermissionRequests Action = "review_permission_requests"
	ActionSubmitComplaint          Action = "submit_complaint"
	ActionManageComplaints         Action = "manage_complaints"
	ActionManageAnnouncements      Action = "manage_announcements"
	ActionManageSitios             Action = "manage_sitios"
	ActionViewAllUsers             Action = "view_all_users"
	ActionEditOwnProfile           Action = "edit_own_profile"
)

func Can(role domain.Role, action Action) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleStaff:
		return action != ActionReviewPermissionRequests
	case domain.RoleResident:
		return action == ActionSubmitPermissionRequest || action == ActionSubmitComplaint
	default:
		return false
	}
}

func Normalize(role string) domain.Role {
	r := domain.Role(role)
	if r.Valid() {
		return r
	}
	return domain.RoleResident
}
