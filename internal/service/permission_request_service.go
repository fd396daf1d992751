package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/events"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/rbac"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/repository"
	apperrors "github.com/itsmenoahpoli/brgykonek-backend/pkg/util"
)

// PermissionRequestService runs the profile change request workflow.
type PermissionRequestService struct {
	requests   repository.PermissionRequestRepository
	users      repository.UserRepository
	tx         repository.TxManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// PermissionRequestDependencies bundles collaborators for the service.
type PermissionRequestDependencies struct {
	RequestRepo repository.PermissionRequestRepository
	UserRepo    repository.UserRepository
	TxManager   repository.TxManager
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// SubmitPermissionRequestInput is the payload of a new request.
type SubmitPermissionRequestInput struct {
	CurrentValue       map[string]any
	RequestChangeValue map[string]any
	Reason             string
}

// PermissionRequestListFilter narrows listings. UserID is honoured only for
// reviewers.
type PermissionRequestListFilter struct {
	Status *string
	UserID *string
	Limit  int
	Offset int
}

// ReviewPermissionRequestInput is the reviewer's decision.
type ReviewPermissionRequestInput struct {
	Status      string
	ReviewNotes string
}

// NewPermissionRequestService constructs the service.
func NewPermissionRequestService(deps PermissionRequestDependencies) *PermissionRequestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionRequestService{
		requests:   deps.RequestRepo,
		users:      deps.UserRepo,
		tx:         deps.TxManager,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        utcNow,
	}
}

// Submit records a pending change request owned by the actor.
func (s *PermissionRequestService) Submit(ctx context.Context, actor Actor, input SubmitPermissionRequestInput) (*domain.PermissionRequest, error) {
	if err := actor.require(rbac.ActionSubmitPermissionRequest); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(input.Reason)
	details := map[string]any{}
	if len(input.RequestChangeValue) == 0 {
		details["request_change_value"] = "is required"
	}
	if reason == "" {
		details["reason"] = "is required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", details)
	}

	patch, err := domain.ParseProfilePatch(input.RequestChangeValue)
	if err != nil {
		var fieldErrs domain.FieldErrors
		if errors.As(err, &fieldErrs) {
			return nil, apperrors.NewValidationError("invalid request_change_value", fieldErrs.Details())
		}
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, apperrors.NewValidationError("request_change_value has no updatable fields", map[string]any{
			"allowed_fields": domain.UpdatableProfileFields,
		})
	}

	req := &domain.PermissionRequest{
		UserID:             actor.UserID,
		Status:             domain.PermissionRequestPending,
		CurrentValue:       input.CurrentValue,
		RequestChangeValue: input.RequestChangeValue,
		Reason:             reason,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	created, err := s.requests.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventPermissionRequestSubmitted, created.ID, actor.eventActor(),
		events.PermissionRequestSubmittedPayload{UserID: created.UserID, Fields: patch.Fields(), Reason: reason}))
	return created, nil
}

// List returns requests newest first. Callers without review rights only see
// their own requests.
func (s *PermissionRequestService) List(ctx context.Context, actor Actor, filter PermissionRequestListFilter) ([]domain.PermissionRequest, error) {
	if actor.UserID == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	repoFilter := repository.PermissionRequestFilter{Limit: filter.Limit, Offset: filter.Offset}
	if filter.Status != nil && *filter.Status != "" {
		status := domain.PermissionRequestStatus(*filter.Status)
		if !status.Valid() {
			return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"status": *filter.Status})
		}
		repoFilter.Status = &status
	}

	if actor.Can(rbac.ActionReviewPermissionRequests) {
		if filter.UserID != nil && *filter.UserID != "" {
			if !validID(*filter.UserID) {
				return []domain.PermissionRequest{}, nil
			}
			repoFilter.UserID = filter.UserID
		}
	} else {
		repoFilter.UserID = ptr(actor.UserID)
	}

	return s.requests.List(ctx, repoFilter)
}

// Get returns one request to its owner or a reviewer.
func (s *PermissionRequestService) Get(ctx context.Context, actor Actor, id string) (*domain.PermissionRequest, error) {
	if actor.UserID == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !validID(id) {
		return nil, apperrors.NewNotFound("permission request", nil)
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("permission request", nil)
		}
		return nil, err
	}
	if req.UserID != actor.UserID && !actor.Can(rbac.ActionReviewPermissionRequests) {
		return nil, apperrors.NewForbidden("not allowed to view this permission request")
	}
	return req, nil
}

// Review approves or rejects a pending request. Approval applies the
// allow-listed profile fields to the owner in the same transaction that
// records the decision.
func (s *PermissionRequestService) Review(ctx context.Context, actor Actor, id string, input ReviewPermissionRequestInput) (*domain.PermissionRequest, error) {
	if err := actor.require(rbac.ActionReviewPermissionRequests); err != nil {
		return nil, err
	}
	decision := domain.PermissionRequestStatus(strings.TrimSpace(input.Status))
	if !decision.IsDecision() {
		return nil, apperrors.NewValidationError(domain.ErrInvalidDecision.Error(), map[string]any{"status": input.Status})
	}
	if !validID(id) {
		return nil, apperrors.NewNotFound("permission request", nil)
	}

	var applied []string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, err := s.requests.GetForUpdate(ctx, id)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewNotFound("permission request", nil)
			}
			return err
		}

		if err := req.Review(decision, actor.UserID, strings.TrimSpace(input.ReviewNotes), s.now()); err != nil {
			if errors.Is(err, domain.ErrAlreadyReviewed) {
				return apperrors.NewConflict(err.Error(), map[string]any{"status": req.Status})
			}
			return apperrors.NewValidationError(err.Error(), nil)
		}

		if decision == domain.PermissionRequestApproved {
			applied, err = s.applyPatch(ctx, req)
			if err != nil {
				return err
			}
		}
		return s.requests.UpdateReview(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	reviewed, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("permission request reviewed",
		zap.String("request_id", reviewed.ID),
		zap.String("user_id", reviewed.UserID),
		zap.String("reviewer_id", actor.UserID),
		zap.String("status", string(reviewed.Status)),
		zap.Strings("applied_fields", applied))

	payload := events.PermissionRequestReviewedPayload{
		UserID:        reviewed.UserID,
		Status:        reviewed.Status,
		AppliedFields: applied,
	}
	if reviewed.ReviewNotes != nil {
		payload.ReviewNotes = *reviewed.ReviewNotes
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventPermissionRequestReviewed, reviewed.ID, actor.eventActor(), payload))
	return reviewed, nil
}

func (s *PermissionRequestService) applyPatch(ctx context.Context, req *domain.PermissionRequest) ([]string, error) {
	patch, err := req.Patch()
	if err != nil {
		var fieldErrs domain.FieldErrors
		if errors.As(err, &fieldErrs) {
			return nil, apperrors.NewValidationError("stored change request is not applicable", fieldErrs.Details())
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": req.UserID})
		}
		return nil, err
	}

	applied := patch.ApplyTo(user)
	if len(applied) == 0 {
		return nil, nil
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return applied, nil
}
