package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleResident Role = "resident"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleResident, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// User is a portal account: a resident or a barangay staff member/admin.
type User struct {
	ID                  string
	Name                string
	Email               string
	PasswordHash        string
	Role                Role
	MobileNumber        string
	Address             string
	AddressSitio        string
	AddressBarangay     string
	AddressMunicipality string
	AddressProvince     string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Summary returns the reference fields expanded into related records.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserSummary is the denormalized view of a referenced user.
type UserSummary struct {
	ID    string
	Name  string
	Email string
	Role  Role
}
