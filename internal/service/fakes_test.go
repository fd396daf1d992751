package service

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/events"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/repository"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/storage"
	apperrors "github.com/itsmenoahpoli/brgykonek-backend/pkg/util"
)

type fakeTxKey struct{}

func inFakeTx(ctx context.Context) bool {
	v, _ := ctx.Value(fakeTxKey{}).(bool)
	return v
}

type fakeTx struct {
	calls int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(context.WithValue(ctx, fakeTxKey{}, true))
}

var clock = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func tick() time.Time {
	clock = clock.Add(time.Second)
	return clock
}

// users

type fakeUsers struct {
	mu          sync.Mutex
	byID        map[string]domain.User
	updates     int
	updatedInTx bool
	updateErr   error
}

func newFakeUsers(users ...domain.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]domain.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == user.Email {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = tick()
	user.UpdatedAt = user.CreatedAt
	f.byID[user.ID] = *user
	return nil
}

func (f *fakeUsers) Update(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.updates++
	f.updatedInTx = inFakeTx(ctx)
	user.UpdatedAt = tick()
	f.byID[user.ID] = *user
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.User{}
	for _, u := range f.byID {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeUsers) get(id string) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

// permission requests

type fakePermissionRequests struct {
	mu              sync.Mutex
	users           *fakeUsers
	byID            map[string]domain.PermissionRequest
	order           []string
	lockedInTx      bool
	updateReviewErr error
}

func newFakePermissionRequests(users *fakeUsers) *fakePermissionRequests {
	return &fakePermissionRequests{users: users, byID: map[string]domain.PermissionRequest{}}
}

func (f *fakePermissionRequests) Create(_ context.Context, req *domain.PermissionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req.ID = uuid.NewString()
	req.CreatedAt = tick()
	req.UpdatedAt = req.CreatedAt
	f.byID[req.ID] = *req
	f.order = append(f.order, req.ID)
	return nil
}

func (f *fakePermissionRequests) expand(req domain.PermissionRequest) *domain.PermissionRequest {
	owner := f.users.get(req.UserID)
	req.User = owner.Summary()
	if req.ReviewedBy != nil {
		reviewer := f.users.get(*req.ReviewedBy)
		req.Reviewer = reviewer.Summary()
	}
	return &req
}

func (f *fakePermissionRequests) GetByID(_ context.Context, id string) (*domain.PermissionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return f.expand(req), nil
}

func (f *fakePermissionRequests) GetForUpdate(ctx context.Context, id string) (*domain.PermissionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockedInTx = inFakeTx(ctx)
	req, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &req, nil
}

func (f *fakePermissionRequests) List(_ context.Context, filter repository.PermissionRequestFilter) ([]domain.PermissionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.PermissionRequest{}
	for i := len(f.order) - 1; i >= 0; i-- {
		req := f.byID[f.order[i]]
		if filter.UserID != nil && req.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		out = append(out, *f.expand(req))
	}
	return out, nil
}

func (f *fakePermissionRequests) UpdateReview(_ context.Context, req *domain.PermissionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateReviewErr != nil {
		return f.updateReviewErr
	}
	stored, ok := f.byID[req.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = req.Status
	stored.ReviewedBy = req.ReviewedBy
	stored.ReviewedAt = req.ReviewedAt
	stored.ReviewNotes = req.ReviewNotes
	stored.UpdatedAt = tick()
	f.byID[req.ID] = stored
	return nil
}

// complaints

type fakeComplaints struct {
	mu    sync.Mutex
	users *fakeUsers
	byID  map[string]domain.Complaint
	order []string
}

func newFakeComplaints(users *fakeUsers) *fakeComplaints {
	return &fakeComplaints{users: users, byID: map[string]domain.Complaint{}}
}

func (f *fakeComplaints) Create(_ context.Context, c *domain.Complaint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = tick()
	c.UpdatedAt = c.CreatedAt
	f.byID[c.ID] = *c
	f.order = append(f.order, c.ID)
	return nil
}

func (f *fakeComplaints) Update(_ context.Context, c *domain.Complaint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	c.UpdatedAt = tick()
	stored := *c
	stored.Resident, stored.Resolver, stored.Attachments = nil, nil, nil
	f.byID[c.ID] = stored
	return nil
}

func (f *fakeComplaints) expand(c domain.Complaint) *domain.Complaint {
	resident := f.users.get(c.ResidentID)
	c.Resident = resident.Summary()
	if c.ResolvedBy != nil {
		resolver := f.users.get(*c.ResolvedBy)
		c.Resolver = resolver.Summary()
	}
	return &c
}

func (f *fakeComplaints) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return f.expand(c), nil
}

func (f *fakeComplaints) List(_ context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Complaint{}
	for i := len(f.order) - 1; i >= 0; i-- {
		c := f.byID[f.order[i]]
		if filter.ResidentID != nil && c.ResidentID != *filter.ResidentID {
			continue
		}
		if len(filter.Statuses) > 0 && c.Status != filter.Statuses[0] {
			continue
		}
		if len(filter.Priorities) > 0 && c.Priority != filter.Priorities[0] {
			continue
		}
		out = append(out, *f.expand(c))
	}
	return out, nil
}

type fakeAttachments struct {
	mu        sync.Mutex
	rows      []domain.Attachment
	createErr error
}

func (f *fakeAttachments) CreateForComplaint(_ context.Context, complaintID string, attachments []domain.Attachment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range attachments {
		attachments[i].ID = uuid.NewString()
		attachments[i].ComplaintID = complaintID
		attachments[i].CreatedAt = tick()
		f.rows = append(f.rows, attachments[i])
	}
	return nil
}

func (f *fakeAttachments) ListByComplaint(_ context.Context, complaintID string) ([]domain.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Attachment
	for _, a := range f.rows {
		if a.ComplaintID == complaintID {
			out = append(out, a)
		}
	}
	return out, nil
}

// sitios and announcements

type fakeSitios struct {
	mu        sync.Mutex
	rows      []domain.Sitio
	listCalls int
}

func (f *fakeSitios) Create(_ context.Context, s *domain.Sitio) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rows {
		if strings.EqualFold(existing.Name, s.Name) {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	s.ID = uuid.NewString()
	s.CreatedAt = tick()
	f.rows = append(f.rows, *s)
	return nil
}

func (f *fakeSitios) List(context.Context) ([]domain.Sitio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]domain.Sitio{}, f.rows...), nil
}

type fakeAnnouncements struct {
	mu        sync.Mutex
	byID      map[string]domain.Announcement
	order     []string
	listCalls int
}

func newFakeAnnouncements() *fakeAnnouncements {
	return &fakeAnnouncements{byID: map[string]domain.Announcement{}}
}

func (f *fakeAnnouncements) Create(_ context.Context, a *domain.Announcement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = uuid.NewString()
	a.CreatedAt = tick()
	a.UpdatedAt = a.CreatedAt
	f.byID[a.ID] = *a
	f.order = append(f.order, a.ID)
	return nil
}

func (f *fakeAnnouncements) Update(_ context.Context, a *domain.Announcement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	a.UpdatedAt = tick()
	f.byID[a.ID] = *a
	return nil
}

func (f *fakeAnnouncements) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeAnnouncements) GetByID(_ context.Context, id string) (*domain.Announcement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (f *fakeAnnouncements) List(_ context.Context, filter repository.AnnouncementFilter) ([]domain.Announcement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := []domain.Announcement{}
	for i := len(f.order) - 1; i >= 0; i-- {
		a, ok := f.byID[f.order[i]]
		if !ok {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.SearchTerm != nil && !a.MatchesTitle(*filter.SearchTerm) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// password resets

type fakeResets struct {
	mu      sync.Mutex
	byToken map[string]domain.PasswordResetToken
}

func newFakeResets() *fakeResets {
	return &fakeResets{byToken: map[string]domain.PasswordResetToken{}}
}

func (f *fakeResets) Create(_ context.Context, t *domain.PasswordResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = tick()
	f.byToken[t.Token] = *t
	return nil
}

func (f *fakeResets) GetByToken(_ context.Context, token string) (*domain.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byToken[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (f *fakeResets) MarkUsed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, t := range f.byToken {
		if t.ID == id {
			if t.UsedAt != nil {
				return pgx.ErrNoRows
			}
			now := tick()
			t.UsedAt = &now
			f.byToken[key] = t
			return nil
		}
	}
	return pgx.ErrNoRows
}

// object storage

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(_ context.Context, prefix string, upload storage.Upload) (storage.Object, error) {
	if f.putErr != nil {
		return storage.Object{}, f.putErr
	}
	if err := storage.ValidateUpload(upload, 1024*1024); err != nil {
		return storage.Object{}, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(upload.Body); err != nil {
		return storage.Object{}, err
	}
	key := storage.ObjectKey(prefix, upload.FileName)
	f.mu.Lock()
	f.objects[key] = buf.Bytes()
	f.mu.Unlock()
	return storage.Object{Key: key, FileName: upload.FileName, ContentType: upload.ContentType, Size: int64(buf.Len())}, nil
}

func (f *fakeStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.removed = append(f.removed, key)
	return nil
}

func pngUpload(name string) storage.Upload {
	body := []byte("\x89PNG fake image")
	return storage.Upload{FileName: name, ContentType: "image/png", Size: int64(len(body)), Body: bytes.NewReader(body)}
}

// events

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, len(d.events))
	for i, e := range d.events {
		out[i] = e.Type
	}
	return out
}

// accounts

var (
	adminUser = domain.User{ID: uuid.NewString(), Name: "Kapitan Admin", Email: "admin@brgy.test", Role: domain.RoleAdmin}
	staffUser = domain.User{ID: uuid.NewString(), Name: "Staff Member", Email: "staff@brgy.test", Role: domain.RoleStaff}
	resident  = domain.User{
		ID: uuid.NewString(), Name: "Juan Dela Cruz", Email: "juan@brgy.test", PasswordHash: "hash",
		Role: domain.RoleResident, MobileNumber: "09170000000", AddressSitio: "Sitio Uno",
	}
	otherResident = domain.User{ID: uuid.NewString(), Name: "Maria Clara", Email: "maria@brgy.test", Role: domain.RoleResident, AddressSitio: "Sitio Dos"}
)

func actorOf(u domain.User) Actor {
	return ActorFromUser(&u)
}

// statusOf returns the HTTP status an error would be rendered with.
func statusOf(err error) int {
	if err == nil {
		return 0
	}
	return apperrors.ToDomainError(err).HTTPStatus
}
