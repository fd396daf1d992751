package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/cache"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/events"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/rbac"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/repository"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/storage"
	apperrors "github.com/itsmenoahpoli/brgykonek-backend/pkg/util"
)

// AnnouncementService manages announcements and their audience filtering.
type AnnouncementService struct {
	announcements repository.AnnouncementRepository
	users         repository.UserRepository
	sitios        *SitioService
	cache         *cache.Store
	store         storage.ObjectStore
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	now           func() time.Time
}

// AnnouncementDependencies bundles collaborators for the service.
type AnnouncementDependencies struct {
	AnnouncementRepo repository.AnnouncementRepository
	UserRepo         repository.UserRepository
	Sitios           *SitioService
	Cache            *cache.Store
	Store            storage.ObjectStore
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// AnnouncementInput is the editable content of an announcement.
type AnnouncementInput struct {
	Title          string
	Content        string
	Audience       string
	SelectedSitios []string
	Status         string
	Image          *storage.Upload
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(deps AnnouncementDependencies) *AnnouncementService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{
		announcements: deps.AnnouncementRepo,
		users:         deps.UserRepo,
		sitios:        deps.Sitios,
		cache:         deps.Cache,
		store:         deps.Store,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		now:           utcNow,
	}
}

// Create stores a new announcement.
func (s *AnnouncementService) Create(ctx context.Context, actor Actor, input AnnouncementInput) (*domain.Announcement, error) {
	if err := actor.require(rbac.ActionManageAnnouncements); err != nil {
		return nil, err
	}
	a := &domain.Announcement{CreatedBy: actor.UserID}
	if err := s.apply(ctx, a, input); err != nil {
		return nil, err
	}

	uploaded, err := s.uploadImage(ctx, a, input.Image)
	if err != nil {
		return nil, err
	}
	if err := s.announcements.Create(ctx, a); err != nil {
		discardFiles(ctx, s.store, s.logger, uploaded)
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.KeyPublishedAnnouncements)
	if a.Status == domain.AnnouncementPublished {
		s.publishAnnounced(ctx, actor, a)
	}
	return a, nil
}

// Update replaces the content of an announcement.
func (s *AnnouncementService) Update(ctx context.Context, actor Actor, id string, input AnnouncementInput) (*domain.Announcement, error) {
	if err := actor.require(rbac.ActionManageAnnouncements); err != nil {
		return nil, err
	}
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	wasPublished := a.Status == domain.AnnouncementPublished
	oldImage := a.Image

	if err := s.apply(ctx, a, input); err != nil {
		return nil, err
	}
	uploaded, err := s.uploadImage(ctx, a, input.Image)
	if err != nil {
		return nil, err
	}
	if err := s.announcements.Update(ctx, a); err != nil {
		discardFiles(ctx, s.store, s.logger, uploaded)
		return nil, err
	}
	if len(uploaded) > 0 && oldImage != nil {
		discardFiles(ctx, s.store, s.logger, []storage.Object{{Key: *oldImage}})
	}

	s.cache.Invalidate(ctx, cache.KeyPublishedAnnouncements)
	if !wasPublished && a.Status == domain.AnnouncementPublished {
		s.publishAnnounced(ctx, actor, a)
	}
	return a, nil
}

// Delete removes an announcement and its image.
func (s *AnnouncementService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := actor.require(rbac.ActionManageAnnouncements); err != nil {
		return err
	}
	a, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.announcements.Delete(ctx, a.ID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("announcement", nil)
		}
		return err
	}
	if a.Image != nil {
		discardFiles(ctx, s.store, s.logger, []storage.Object{{Key: *a.Image}})
	}
	s.cache.Invalidate(ctx, cache.KeyPublishedAnnouncements)
	return nil
}

// List returns the announcements visible to the actor. Managers see every
// announcement; residents only published ones addressed to everyone or to
// their sitio.
func (s *AnnouncementService) List(ctx context.Context, actor Actor, search string) ([]domain.Announcement, error) {
	if actor.UserID == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.Can(rbac.ActionManageAnnouncements) {
		filter := repository.AnnouncementFilter{}
		if strings.TrimSpace(search) != "" {
			filter.SearchTerm = &search
		}
		return s.announcements.List(ctx, filter)
	}

	published, err := s.published(ctx)
	if err != nil {
		return nil, err
	}
	sitioID, err := s.residentSitioID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	visible := []domain.Announcement{}
	for _, a := range published {
		if a.VisibleToResident(sitioID) && a.MatchesTitle(search) {
			visible = append(visible, a)
		}
	}
	return visible, nil
}

// Get returns one announcement if the actor may see it.
func (s *AnnouncementService) Get(ctx context.Context, actor Actor, id string) (*domain.Announcement, error) {
	if actor.UserID == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Can(rbac.ActionManageAnnouncements) {
		return a, nil
	}
	sitioID, err := s.residentSitioID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !a.VisibleToResident(sitioID) {
		return nil, apperrors.NewNotFound("announcement", nil)
	}
	return a, nil
}

func (s *AnnouncementService) apply(ctx context.Context, a *domain.Announcement, input AnnouncementInput) error {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	audience := domain.Audience(strings.TrimSpace(input.Audience))
	status := domain.AnnouncementStatus(strings.TrimSpace(input.Status))
	if status == "" {
		status = domain.AnnouncementDraft
	}

	details := map[string]any{}
	if title == "" {
		details["title"] = "is required"
	}
	if content == "" {
		details["content"] = "is required"
	}
	if !audience.Valid() {
		details["audience"] = "must be one of all_residents, staff_only, specific_zone"
	}
	if !status.Valid() {
		details["status"] = "must be draft or published"
	}
	selected := dedupe(input.SelectedSitios)
	if audience == domain.AudienceSpecificZone && len(selected) == 0 {
		details["selected_sitios"] = "at least one sitio is required for specific_zone"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid announcement", details)
	}

	if audience == domain.AudienceSpecificZone {
		if err := s.ensureSitios(ctx, selected); err != nil {
			return err
		}
	} else {
		selected = []string{}
	}

	a.Title = title
	a.Content = content
	a.Audience = audience
	a.SelectedSitios = selected
	a.Status = status
	switch {
	case status == domain.AnnouncementDraft:
		a.PublishedAt = nil
	case a.PublishedAt == nil:
		a.PublishedAt = ptr(s.now())
	}
	return nil
}

func (s *AnnouncementService) ensureSitios(ctx context.Context, ids []string) error {
	sitios, err := s.sitios.List(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(sitios))
	for _, sitio := range sitios {
		known[sitio.ID] = struct{}{}
	}
	var unknown []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return apperrors.NewValidationError("unknown sitio", map[string]any{"selected_sitios": unknown})
	}
	return nil
}

func (s *AnnouncementService) uploadImage(ctx context.Context, a *domain.Announcement, image *storage.Upload) ([]storage.Object, error) {
	if image == nil {
		return nil, nil
	}
	uploaded, err := uploadFiles(ctx, s.store, s.logger, storage.PrefixAnnouncementImages, []storage.Upload{*image})
	if err != nil {
		return nil, err
	}
	a.Image = &uploaded[0].Key
	return uploaded, nil
}

func (s *AnnouncementService) published(ctx context.Context) ([]domain.Announcement, error) {
	return cache.Remember(ctx, s.cache, cache.KeyPublishedAnnouncements, func(ctx context.Context) ([]domain.Announcement, error) {
		status := domain.AnnouncementPublished
		return s.announcements.List(ctx, repository.AnnouncementFilter{Status: &status})
	})
}

func (s *AnnouncementService) residentSitioID(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return "", apperrors.NewUnauthorized("user not found")
		}
		return "", err
	}
	sitios, err := s.sitios.List(ctx)
	if err != nil {
		return "", err
	}
	return domain.SitioIDByName(sitios, user.AddressSitio), nil
}

func (s *AnnouncementService) find(ctx context.Context, id string) (*domain.Announcement, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("announcement", nil)
	}
	a, err := s.announcements.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("announcement", nil)
		}
		return nil, err
	}
	return a, nil
}

func (s *AnnouncementService) publishAnnounced(ctx context.Context, actor Actor, a *domain.Announcement) {
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventAnnouncementPublished, a.ID, actor.eventActor(),
		events.AnnouncementPublishedPayload{Title: a.Title, Audience: a.Audience, SelectedSitios: a.SelectedSitios}))
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
