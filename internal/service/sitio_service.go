package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/cache"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/rbac"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/repository"
	apperrors "github.com/itsmenoahpoli/brgykonek-backend/pkg/util"
)

// SitioService manages the barangay's zones.
type SitioService struct {
	sitios repository.SitioRepository
	cache  *cache.Store
	logger *zap.Logger
}

// NewSitioService constructs the service.
func NewSitioService(sitios repository.SitioRepository, store *cache.Store, logger *zap.Logger) *SitioService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SitioService{sitios: sitios, cache: store, logger: logger}
}

// List returns every sitio ordered by name.
func (s *SitioService) List(ctx context.Context) ([]domain.Sitio, error) {
	return cache.Remember(ctx, s.cache, cache.KeySitios, s.sitios.List)
}

// Create adds a sitio. Names are unique.
func (s *SitioService) Create(ctx context.Context, actor Actor, name string) (*domain.Sitio, error) {
	if err := actor.require(rbac.ActionManageSitios); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"name": "is required"})
	}
	sitio := &domain.Sitio{Name: name}
	if err := s.sitios.Create(ctx, sitio); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("sitio already exists", map[string]any{"name": name})
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KeySitios)
	s.logger.Info("sitio created", zap.String("sitio_id", sitio.ID), zap.String("name", sitio.Name))
	return sitio, nil
}
