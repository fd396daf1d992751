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
	"github.com/itsmenoahpoli/brgykonek-backend/internal/storage"
	apperrors "github.com/itsmenoahpoli/brgykonek-backend/pkg/util"
)

// ComplaintService coordinates complaint workflows.
type ComplaintService struct {
	complaints  repository.ComplaintRepository
	attachments repository.AttachmentRepository
	users       repository.UserRepository
	sitios      repository.SitioRepository
	tx          repository.TxManager
	store       storage.ObjectStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// ComplaintDependencies bundles collaborators for complaint service.
type ComplaintDependencies struct {
	ComplaintRepo  repository.ComplaintRepository
	AttachmentRepo repository.AttachmentRepository
	UserRepo       repository.UserRepository
	SitioRepo      repository.SitioRepository
	TxManager      repository.TxManager
	Store          storage.ObjectStore
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// ComplaintCreateInput describes complaint creation payload.
type ComplaintCreateInput struct {
	ResidentID         *string
	Title              string
	Category           string
	Content            string
	LocationOfIncident string
	DateOfReport       *time.Time
	Priority           string
	RiskCategory       string
	SitioID            *string
	Attachments        []storage.Upload
}

// ComplaintListFilter describes listing filters.
type ComplaintListFilter struct {
	ResidentID *string
	SitioID    *string
	Category   *string
	Status     *string
	Priority   *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{
		complaints:  deps.ComplaintRepo,
		attachments: deps.AttachmentRepo,
		users:       deps.UserRepo,
		sitios:      deps.SitioRepo,
		tx:          deps.TxManager,
		store:       deps.Store,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		now:         utcNow,
	}
}

// Create files a complaint. Managers may file on behalf of a resident.
func (s *ComplaintService) Create(ctx context.Context, actor Actor, input ComplaintCreateInput) (*domain.Complaint, error) {
	if err := actor.require(rbac.ActionSubmitComplaint); err != nil {
		return nil, err
	}

	residentID := actor.UserID
	if input.ResidentID != nil && *input.ResidentID != "" && *input.ResidentID != actor.UserID {
		if !actor.Can(rbac.ActionManageComplaints) {
			return nil, apperrors.NewForbidden("cannot file complaints for another resident")
		}
		if !validID(*input.ResidentID) {
			return nil, apperrors.NewValidationError("unknown resident", map[string]any{"resident_id": *input.ResidentID})
		}
		if _, err := s.users.GetByID(ctx, *input.ResidentID); err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.NewValidationError("unknown resident", map[string]any{"resident_id": *input.ResidentID})
			}
			return nil, err
		}
		residentID = *input.ResidentID
	}

	complaint := &domain.Complaint{
		ResidentID:         residentID,
		Title:              strings.TrimSpace(input.Title),
		Category:           strings.TrimSpace(input.Category),
		Content:            strings.TrimSpace(input.Content),
		LocationOfIncident: strings.TrimSpace(input.LocationOfIncident),
		DateOfReport:       input.DateOfReport,
		Status:             domain.ComplaintStatusPending,
	}

	details := map[string]any{}
	if complaint.Title == "" {
		details["title"] = "is required"
	}
	if complaint.Category == "" {
		details["category"] = "is required"
	}
	if complaint.Content == "" {
		details["complaint_content"] = "is required"
	}
	priority, risk, ok := resolvePriority(input.Priority, input.RiskCategory)
	if !ok {
		details["priority"] = "must be one of low, medium, high (risk category may also be critical)"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid complaint", details)
	}
	complaint.Priority = priority
	complaint.PriorityRiskCategory = risk

	if input.SitioID != nil && *input.SitioID != "" {
		if err := s.ensureSitio(ctx, *input.SitioID); err != nil {
			return nil, err
		}
		complaint.SitioID = input.SitioID
	}

	uploaded, err := s.uploadAll(ctx, storage.PrefixComplaintAttachments, input.Attachments)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.complaints.Create(ctx, complaint); err != nil {
			return err
		}
		attachments := make([]domain.Attachment, 0, len(uploaded))
		for _, obj := range uploaded {
			attachments = append(attachments, domain.Attachment{
				StorageKey: obj.Key,
				FileName:   obj.FileName,
				MimeType:   obj.ContentType,
				SizeBytes:  obj.Size,
			})
		}
		return s.attachments.CreateForComplaint(ctx, complaint.ID, attachments)
	})
	if err != nil {
		s.discard(ctx, uploaded)
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventComplaintCreated, complaint.ID, actor.eventActor(),
		events.ComplaintCreatedPayload{
			ResidentID: complaint.ResidentID,
			Title:      complaint.Title,
			Category:   complaint.Category,
			Priority:   complaint.Priority,
		}))

	return s.load(ctx, complaint.ID)
}

// List returns complaints newest first. Residents only see their own.
func (s *ComplaintService) List(ctx context.Context, actor Actor, filter ComplaintListFilter) ([]domain.Complaint, error) {
	if actor.UserID == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	repoFilter := repository.ComplaintFilter{
		Category:   filter.Category,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if filter.Status != nil && *filter.Status != "" {
		status := domain.ComplaintStatus(*filter.Status)
		if !status.Valid() {
			return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"status": *filter.Status})
		}
		repoFilter.Statuses = []domain.ComplaintStatus{status}
	}
	if filter.Priority != nil && *filter.Priority != "" {
		priority := domain.ComplaintPriority(*filter.Priority)
		if !priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority filter", map[string]any{"priority": *filter.Priority})
		}
		repoFilter.Priorities = []domain.ComplaintPriority{priority}
	}
	if filter.SitioID != nil && *filter.SitioID != "" {
		if !validID(*filter.SitioID) {
			return []domain.Complaint{}, nil
		}
		repoFilter.SitioID = filter.SitioID
	}

	if actor.Can(rbac.ActionManageComplaints) {
		if filter.ResidentID != nil && *filter.ResidentID != "" {
			if !validID(*filter.ResidentID) {
				return []domain.Complaint{}, nil
			}
			repoFilter.ResidentID = filter.ResidentID
		}
	} else {
		repoFilter.ResidentID = ptr(actor.UserID)
	}
	return s.complaints.List(ctx, repoFilter)
}

// Get returns a complaint with attachments to its resident or a manager.
func (s *ComplaintService) Get(ctx context.Context, actor Actor, id string) (*domain.Complaint, error) {
	if actor.UserID == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	complaint, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if complaint.ResidentID != actor.UserID && !actor.Can(rbac.ActionManageComplaints) {
		return nil, apperrors.NewForbidden("not allowed to view this complaint")
	}
	attachments, err := s.attachments.ListByComplaint(ctx, complaint.ID)
	if err != nil {
		return nil, err
	}
	complaint.Attachments = attachments
	return complaint, nil
}

// UpdatePriority changes the handling priority of a complaint.
func (s *ComplaintService) UpdatePriority(ctx context.Context, actor Actor, id, priority string) (*domain.Complaint, error) {
	if err := actor.require(rbac.ActionManageComplaints); err != nil {
		return nil, err
	}
	newPriority := domain.ComplaintPriority(strings.TrimSpace(priority))
	if !newPriority.Valid() {
		return nil, apperrors.NewValidationError("priority must be one of low, medium, high", map[string]any{"priority": priority})
	}
	complaint, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	old := complaint.Priority
	if old == newPriority {
		return complaint, nil
	}
	complaint.SetPriority(newPriority)
	if err := s.complaints.Update(ctx, complaint); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventComplaintPriorityChanged, complaint.ID, actor.eventActor(),
		events.ComplaintPriorityChangedPayload{OldPriority: old, NewPriority: newPriority}))
	return s.load(ctx, complaint.ID)
}

// ToggleResolution flips a complaint between resolved and pending. The image
// is only stored when the complaint becomes resolved.
func (s *ComplaintService) ToggleResolution(ctx context.Context, actor Actor, id, note string, image *storage.Upload) (*domain.Complaint, error) {
	if err := actor.require(rbac.ActionManageComplaints); err != nil {
		return nil, err
	}
	complaint, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	var uploaded []storage.Object
	var imageKey *string
	if image != nil && complaint.Status != domain.ComplaintStatusResolved {
		uploaded, err = s.uploadAll(ctx, storage.PrefixResolutionImages, []storage.Upload{*image})
		if err != nil {
			return nil, err
		}
		imageKey = &uploaded[0].Key
	}

	oldStatus := complaint.Status
	oldImage := complaint.ResolutionImage
	complaint.ToggleResolution(actor.UserID, strings.TrimSpace(note), imageKey, s.now())
	if err := s.complaints.Update(ctx, complaint); err != nil {
		s.discard(ctx, uploaded)
		return nil, err
	}
	if oldImage != nil && complaint.ResolutionImage == nil {
		s.discard(ctx, []storage.Object{{Key: *oldImage}})
	}

	s.logger.Info("complaint resolution toggled",
		zap.String("complaint_id", complaint.ID),
		zap.String("actor_id", actor.UserID),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(complaint.Status)))

	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventComplaintResolutionToggled, complaint.ID, actor.eventActor(),
		events.ComplaintResolutionToggledPayload{OldStatus: oldStatus, NewStatus: complaint.Status, Note: strings.TrimSpace(note)}))
	return s.load(ctx, complaint.ID)
}

func (s *ComplaintService) find(ctx context.Context, id string) (*domain.Complaint, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("complaint", nil)
	}
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("complaint", nil)
		}
		return nil, err
	}
	return complaint, nil
}

func (s *ComplaintService) load(ctx context.Context, id string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByComplaint(ctx, id)
	if err != nil {
		return nil, err
	}
	complaint.Attachments = attachments
	return complaint, nil
}

func (s *ComplaintService) ensureSitio(ctx context.Context, sitioID string) error {
	sitios, err := s.sitios.List(ctx)
	if err != nil {
		return err
	}
	for _, sitio := range sitios {
		if sitio.ID == sitioID {
			return nil
		}
	}
	return apperrors.NewValidationError("unknown sitio", map[string]any{"sitio_id": sitioID})
}

func (s *ComplaintService) uploadAll(ctx context.Context, prefix string, uploads []storage.Upload) ([]storage.Object, error) {
	return uploadFiles(ctx, s.store, s.logger, prefix, uploads)
}

func (s *ComplaintService) discard(ctx context.Context, objects []storage.Object) {
	discardFiles(ctx, s.store, s.logger, objects)
}

// resolvePriority derives priority and risk category from the optional
// inputs. A risk category takes precedence; critical maps to high priority.
func resolvePriority(priority, risk string) (domain.ComplaintPriority, domain.RiskCategory, bool) {
	priority = strings.TrimSpace(strings.ToLower(priority))
	risk = strings.TrimSpace(strings.ToLower(risk))
	switch {
	case risk != "":
		category := domain.RiskCategory(risk)
		if !category.Valid() {
			return "", "", false
		}
		return category.Priority(), category, true
	case priority != "":
		p := domain.ComplaintPriority(priority)
		if !p.Valid() {
			return "", "", false
		}
		return p, domain.RiskCategory(p), true
	default:
		return domain.ComplaintPriorityMedium, domain.RiskMedium, true
	}
}

func uploadFiles(ctx context.Context, store storage.ObjectStore, logger *zap.Logger, prefix string, uploads []storage.Upload) ([]storage.Object, error) {
	if len(uploads) == 0 {
		return nil, nil
	}
	if store == nil {
		return nil, apperrors.NewValidationError("file uploads are not available", nil)
	}
	objects := make([]storage.Object, 0, len(uploads))
	for _, upload := range uploads {
		obj, err := store.Put(ctx, prefix, upload)
		if err != nil {
			discardFiles(ctx, store, logger, objects)
			if errors.Is(err, storage.ErrFileTooLarge) || errors.Is(err, storage.ErrUnsupportedType) || errors.Is(err, storage.ErrEmptyFile) {
				return nil, apperrors.NewValidationError(err.Error(), map[string]any{"file": upload.FileName})
			}
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func discardFiles(ctx context.Context, store storage.ObjectStore, logger *zap.Logger, objects []storage.Object) {
	if store == nil {
		return
	}
	for _, obj := range objects {
		if err := store.Remove(ctx, obj.Key); err != nil {
			logger.Warn("failed to remove orphaned upload", zap.String("key", obj.Key), zap.Error(err))
		}
	}
}
