package domain

import (
	"strings"
	"time"
)

// Audience selects who an announcement is for.
type Audience string

const (
	AudienceAllResidents Audience = "all_residents"
	AudienceStaffOnly    Audience = "staff_only"
	AudienceSpecificZone Audience = "specific_zone"
)

// Valid reports whether a is a known audience.
func (a Audience) Valid() bool {
	switch a {
	case AudienceAllResidents, AudienceStaffOnly, AudienceSpecificZone:
		return true
	}
	return false
}

// AnnouncementStatus enumerates publication states.
type AnnouncementStatus string

const (
	AnnouncementDraft     AnnouncementStatus = "draft"
	AnnouncementPublished AnnouncementStatus = "published"
)

// Valid reports whether s is a known status.
func (s AnnouncementStatus) Valid() bool {
	return s == AnnouncementDraft || s == AnnouncementPublished
}

// Announcement is a broadcast message from the barangay.
type Announcement struct {
	ID             string
	Title          string
	Content        string
	Audience       Audience
	SelectedSitios []string
	Status         AnnouncementStatus
	Image          *string
	CreatedBy      string
	PublishedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// VisibleToResident reports whether a resident living in sitioID may see the
// announcement. sitioID is empty when the resident's sitio is unknown.
func (a *Announcement) VisibleToResident(sitioID string) bool {
	if a.Status != AnnouncementPublished {
		return false
	}
	switch a.Audience {
	case AudienceAllResidents:
		return true
	case AudienceSpecificZone:
		if sitioID == "" {
			return false
		}
		for _, id := range a.SelectedSitios {
			if id == sitioID {
				return true
			}
		}
	}
	return false
}

// MatchesTitle performs a case-insensitive substring match on the title.
func (a *Announcement) MatchesTitle(search string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Title), strings.ToLower(search))
}

// Sitio is a geographic sub-zone of the barangay.
type Sitio struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// SitioIDByName resolves a sitio name to its id. Matching ignores case and
// surrounding whitespace.
func SitioIDByName(sitios []Sitio, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	for _, s := range sitios {
		if strings.EqualFold(s.Name, name) {
			return s.ID
		}
	}
	return ""
}
