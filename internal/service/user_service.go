package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/rbac"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/repository"
	apperrors "github.com/itsmenoahpoli/brgykonek-backend/pkg/util"
)

// UserService serves account profiles.
type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// UserListFilter narrows the account directory.
type UserListFilter struct {
	Role       *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, logger: logger}
}

// Me returns the actor's own account.
func (s *UserService) Me(ctx context.Context, actor Actor) (*domain.User, error) {
	if actor.UserID == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// UpdateOwnProfile applies a profile patch directly. Residents must go
// through a permission request instead.
func (s *UserService) UpdateOwnProfile(ctx context.Context, actor Actor, changes map[string]any) (*domain.User, error) {
	if err := actor.require(rbac.ActionEditOwnProfile); err != nil {
		if actor.Role == domain.RoleResident {
			return nil, apperrors.NewForbidden("residents must submit a permission request to change their profile")
		}
		return nil, err
	}

	patch, err := domain.ParseProfilePatch(changes)
	if err != nil {
		var fieldErrs domain.FieldErrors
		if errors.As(err, &fieldErrs) {
			return nil, apperrors.NewValidationError("invalid profile fields", fieldErrs.Details())
		}
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, apperrors.NewValidationError("no updatable fields", map[string]any{
			"allowed_fields": domain.UpdatableProfileFields,
		})
	}

	user, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	applied := patch.ApplyTo(user)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("profile updated", zap.String("user_id", user.ID), zap.Strings("fields", applied))
	return user, nil
}

// List returns accounts for staff and admins.
func (s *UserService) List(ctx context.Context, actor Actor, filter UserListFilter) ([]domain.User, error) {
	if err := actor.require(rbac.ActionViewAllUsers); err != nil {
		return nil, err
	}
	repoFilter := repository.UserFilter{SearchTerm: filter.SearchTerm, Limit: filter.Limit, Offset: filter.Offset}
	if filter.Role != nil && *filter.Role != "" {
		role := domain.Role(*filter.Role)
		if !role.Valid() {
			return nil, apperrors.NewValidationError("invalid role filter", map[string]any{"role": *filter.Role})
		}
		repoFilter.Role = &role
	}
	return s.users.List(ctx, repoFilter)
}
