package dto

import (
	"time"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
)

// AnnouncementRequest is the JSON form of an announcement write.
type AnnouncementRequest struct {
	Title          string   `json:"title" form:"title"`
	Content        string   `json:"content" form:"content"`
	Audience       string   `json:"audience" form:"audience"`
	SelectedSitios []string `json:"selected_sitios" form:"selected_sitios"`
	Status         string   `json:"status" form:"status"`
}

// AnnouncementResponse renders an announcement.
type AnnouncementResponse struct {
	ID             string                    `json:"id"`
	Title          string                    `json:"title"`
	Content        string                    `json:"content"`
	Audience       domain.Audience           `json:"audience"`
	SelectedSitios []string                  `json:"selected_sitios"`
	Status         domain.AnnouncementStatus `json:"status"`
	Image          *string                   `json:"image,omitempty"`
	CreatedBy      string                    `json:"created_by"`
	PublishedAt    *time.Time                `json:"published_at,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// NewAnnouncementResponse maps a domain announcement.
func NewAnnouncementResponse(a *domain.Announcement) AnnouncementResponse {
	sitios := a.SelectedSitios
	if sitios == nil {
		sitios = []string{}
	}
	return AnnouncementResponse{
		ID:             a.ID,
		Title:          a.Title,
		Content:        a.Content,
		Audience:       a.Audience,
		SelectedSitios: sitios,
		Status:         a.Status,
		Image:          a.Image,
		CreatedBy:      a.CreatedBy,
		PublishedAt:    a.PublishedAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// NewAnnouncementList maps a slice of announcements.
func NewAnnouncementList(list []domain.Announcement) []AnnouncementResponse {
	out := make([]AnnouncementResponse, 0, len(list))
	for i := range list {
		out = append(out, NewAnnouncementResponse(&list[i]))
	}
	return out
}

// SitioRequest payload.
type SitioRequest struct {
	Name string `json:"name"`
}

// SitioResponse renders a sitio.
type SitioResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSitioList maps a slice of sitios.
func NewSitioList(sitios []domain.Sitio) []SitioResponse {
	out := make([]SitioResponse, 0, len(sitios))
	for _, s := range sitios {
		out = append(out, SitioResponse{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt})
	}
	return out
}
