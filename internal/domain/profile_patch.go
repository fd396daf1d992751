package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Profile field names accepted in change requests.
const (
	FieldName                = "name"
	FieldMobileNumber        = "mobile_number"
	FieldAddress             = "address"
	FieldAddressSitio        = "address_sitio"
	FieldAddressBarangay     = "address_barangay"
	FieldAddressMunicipality = "address_municipality"
	FieldAddressProvince     = "address_province"
)

// Fields that may appear in a submitted diff but are never applied to an account.
const (
	FieldPassword = "password"
	FieldEmail    = "email"
)

var protectedProfileFields = map[string]struct{}{
	FieldPassword: {},
	FieldEmail:    {},
}

// UpdatableProfileFields lists the allow-listed keys in a stable order.
var UpdatableProfileFields = []string{
	FieldName,
	FieldMobileNumber,
	FieldAddress,
	FieldAddressSitio,
	FieldAddressBarangay,
	FieldAddressMunicipality,
	FieldAddressProvince,
}

// ProfilePatch is a typed set of profile changes. Nil fields are left untouched.
type ProfilePatch struct {
	Name                *string
	MobileNumber        *string
	Address             *string
	AddressSitio        *string
	AddressBarangay     *string
	AddressMunicipality *string
	AddressProvince     *string
}

// FieldErrors maps a field name to the reason it was rejected.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return "invalid profile fields: " + strings.Join(parts, "; ")
}

// Details converts the errors into a generic map for API responses.
func (e FieldErrors) Details() map[string]any {
	out := make(map[string]any, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// ParseProfilePatch decodes a client-supplied key/value diff. Protected keys are
// dropped, unknown keys and non-string values are reported as FieldErrors.
func ParseProfilePatch(raw map[string]any) (ProfilePatch, error) {
	var patch ProfilePatch
	errs := FieldErrors{}

	for key, value := range raw {
		if _, protected := protectedProfileFields[key]; protected {
			continue
		}
		target := patch.field(key)
		if target == nil {
			errs[key] = "field cannot be changed"
			continue
		}
		str, ok := value.(string)
		if !ok {
			errs[key] = "must be a string"
			continue
		}
		str = strings.TrimSpace(str)
		if key == FieldName && str == "" {
			errs[key] = "must not be empty"
			continue
		}
		*target = &str
	}

	if len(errs) > 0 {
		return ProfilePatch{}, errs
	}
	return patch, nil
}

func (p *ProfilePatch) field(key string) **string {
	switch key {
	case FieldName:
		return &p.Name
	case FieldMobileNumber:
		return &p.MobileNumber
	case FieldAddress:
		return &p.Address
	case FieldAddressSitio:
		return &p.AddressSitio
	case FieldAddressBarangay:
		return &p.AddressBarangay
	case FieldAddressMunicipality:
		return &p.AddressMunicipality
	case FieldAddressProvince:
		return &p.AddressProvince
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields returns the names of the fields set on the patch.
func (p ProfilePatch) Fields() []string {
	var fields []string
	for _, key := range UpdatableProfileFields {
		if *p.field(key) != nil {
			fields = append(fields, key)
		}
	}
	return fields
}

// ApplyTo copies every set field onto u and returns the names of the changed fields.
func (p ProfilePatch) ApplyTo(u *User) []string {
	var applied []string
	set := func(name string, src *string, dst *string) {
		if src == nil {
			return
		}
		*dst = *src
		applied = append(applied, name)
	}
	set(FieldName, p.Name, &u.Name)
	set(FieldMobileNumber, p.MobileNumber, &u.MobileNumber)
	set(FieldAddress, p.Address, &u.Address)
	set(FieldAddressSitio, p.AddressSitio, &u.AddressSitio)
	set(FieldAddressBarangay, p.AddressBarangay, &u.AddressBarangay)
	set(FieldAddressMunicipality, p.AddressMunicipality, &u.AddressMunicipality)
	set(FieldAddressProvince, p.AddressProvince, &u.AddressProvince)
	return applied
}
