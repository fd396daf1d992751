package dto

import (
	"time"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
)

// RegisterRequest payload for resident self-registration.
type RegisterRequest struct {
	Name                string `json:"name"`
	Email               string `json:"email"`
	Password            string `json:"password"`
	MobileNumber        string `json:"mobile_number"`
	Address             string `json:"address"`
	AddressSitio        string `json:"address_sitio"`
	AddressBarangay     string `json:"address_barangay"`
	AddressMunicipality string `json:"address_municipality"`
	AddressProvince     string `json:"address_province"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest payload for initiating reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload for confirming reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// UserSummary is a referenced account.
type UserSummary struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role,omitempty"`
}

// UserResponse is a full profile. The password hash is never rendered.
type UserResponse struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	Email               string      `json:"email"`
	Role                domain.Role `json:"role"`
	MobileNumber        string      `json:"mobile_number"`
	Address             string      `json:"address"`
	AddressSitio        string      `json:"address_sitio"`
	AddressBarangay     string      `json:"address_barangay"`
	AddressMunicipality string      `json:"address_municipality"`
	AddressProvince     string      `json:"address_province"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// NewUserSummary maps a domain summary; nil stays nil.
func NewUserSummary(s *domain.UserSummary) *UserSummary {
	if s == nil {
		return nil
	}
	return &UserSummary{ID: s.ID, Name: s.Name, Email: s.Email, Role: s.Role}
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		Role:                u.Role,
		MobileNumber:        u.MobileNumber,
		Address:             u.Address,
		AddressSitio:        u.AddressSitio,
		AddressBarangay:     u.AddressBarangay,
		AddressMunicipality: u.AddressMunicipality,
		AddressProvince:     u.AddressProvince,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

// NewUserList maps a slice of users.
func NewUserList(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
