package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmenoahpoli/brgykonek-backend/internal/domain"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/events"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/storage"
)

type complaintFixture struct {
	svc         *ComplaintService
	users       *fakeUsers
	complaints  *fakeComplaints
	attachments *fakeAttachments
	sitios      *fakeSitios
	store       *fakeStore
	dispatcher  *recordingDispatcher
}

func newComplaintFixture() *complaintFixture {
	users := newFakeUsers(adminUser, staffUser, resident, otherResident)
	f := &complaintFixture{
		users:       users,
		complaints:  newFakeComplaints(users),
		attachments: &fakeAttachments{},
		sitios:      &fakeSitios{rows: []domain.Sitio{{ID: uuid.NewString(), Name: "Sitio Uno"}}},
		store:       newFakeStore(),
		dispatcher:  &recordingDispatcher{},
	}
	f.svc = NewComplaintService(ComplaintDependencies{
		ComplaintRepo:  f.complaints,
		AttachmentRepo: f.attachments,
		UserRepo:       users,
		SitioRepo:      f.sitios,
		TxManager:      &fakeTx{},
		Store:          f.store,
		Dispatcher:     f.dispatcher,
	})
	f.svc.now = tick
	return f
}

func (f *complaintFixture) file(t *testing.T, owner domain.User) *domain.Complaint {
	t.Helper()
	c, err := f.svc.Create(context.Background(), actorOf(owner), ComplaintCreateInput{
		Title:    "Clogged canal",
		Category: "sanitation",
		Content:  "The canal near the chapel overflows.",
	})
	require.NoError(t, err)
	return c
}

func TestCreateComplaint(t *testing.T) {
	f := newComplaintFixture()
	sitioID := f.sitios.rows[0].ID

	c, err := f.svc.Create(context.Background(), actorOf(resident), ComplaintCreateInput{
		Title:        " Streetlight out ",
		Category:     "infrastructure",
		Content:      "Dark corner at Purok 3",
		RiskCategory: "critical",
		SitioID:      &sitioID,
		Attachments:  []storage.Upload{pngUpload("photo.png")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Streetlight out", c.Title)
	assert.Equal(t, resident.ID, c.ResidentID)
	assert.Equal(t, domain.ComplaintStatusPending, c.Status)
	assert.Equal(t, domain.ComplaintPriorityHigh, c.Priority)
	assert.Equal(t, domain.RiskCritical, c.PriorityRiskCategory)
	require.NotNil(t, c.Resident)
	assert.Equal(t, resident.Name, c.Resident.Name)
	require.Len(t, c.Attachments, 1)
	assert.Equal(t, "photo.png", c.Attachments[0].FileName)
	assert.Contains(t, f.store.objects, c.Attachments[0].StorageKey)
	assert.Equal(t, []events.EventType{events.EventComplaintCreated}, f.dispatcher.types())
}

func TestCreateComplaintValidation(t *testing.T) {
	f := newComplaintFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, actorOf(resident), ComplaintCreateInput{Title: "x"})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	_, err = f.svc.Create(ctx, actorOf(resident), ComplaintCreateInput{Title: "x", Category: "y", Content: "z", Priority: "urgent"})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	_, err = f.svc.Create(ctx, actorOf(resident), ComplaintCreateInput{Title: "x", Category: "y", Content: "z", SitioID: ptr(uuid.NewString())})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	bad := storage.Upload{FileName: "run.exe", ContentType: "application/x-msdownload", Size: 3}
	_, err = f.svc.Create(ctx, actorOf(resident), ComplaintCreateInput{Title: "x", Category: "y", Content: "z", Attachments: []storage.Upload{bad}})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	assert.Empty(t, f.complaints.byID)
}

func TestCreateComplaintDiscardsUploadsWhenAttachmentsFail(t *testing.T) {
	f := newComplaintFixture()
	f.attachments.createErr = errors.New("insert failed")

	_, err := f.svc.Create(context.Background(), actorOf(resident), ComplaintCreateInput{
		Title:       "Broken bench",
		Category:    "infrastructure",
		Content:     "Plaza bench collapsed",
		Attachments: []storage.Upload{pngUpload("one.png"), pngUpload("two.png")},
	})
	require.Error(t, err)
	assert.Empty(t, f.store.objects)
	assert.Len(t, f.store.removed, 2)
	assert.Empty(t, f.dispatcher.types())
}

func TestCreateComplaintOnBehalf(t *testing.T) {
	f := newComplaintFixture()
	ctx := context.Background()

	c, err := f.svc.Create(ctx, actorOf(staffUser), ComplaintCreateInput{
		ResidentID: ptr(otherResident.ID), Title: "Noise", Category: "peace_and_order", Content: "Karaoke past midnight", Priority: "low",
	})
	require.NoError(t, err)
	assert.Equal(t, otherResident.ID, c.ResidentID)
	assert.Equal(t, domain.RiskLow, c.PriorityRiskCategory)

	_, err = f.svc.Create(ctx, actorOf(resident), ComplaintCreateInput{
		ResidentID: ptr(otherResident.ID), Title: "Noise", Category: "x", Content: "y",
	})
	assert.Equal(t, http.StatusForbidden, statusOf(err))
}

func TestListAndGetComplaintsScoping(t *testing.T) {
	f := newComplaintFixture()
	ctx := context.Background()
	mine := f.file(t, resident)
	theirs := f.file(t, otherResident)

	list, err := f.svc.List(ctx, actorOf(resident), ComplaintListFilter{ResidentID: ptr(otherResident.ID)})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	all, err := f.svc.List(ctx, actorOf(staffUser), ComplaintListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.Get(ctx, actorOf(resident), theirs.ID)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	_, err = f.svc.Get(ctx, actorOf(adminUser), theirs.ID)
	assert.NoError(t, err)

	_, err = f.svc.List(ctx, actorOf(staffUser), ComplaintListFilter{Status: ptr("closed")})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestUpdateComplaintPriority(t *testing.T) {
	f := newComplaintFixture()
	ctx := context.Background()
	c := f.file(t, resident)

	_, err := f.svc.UpdatePriority(ctx, actorOf(resident), c.ID, "high")
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	_, err = f.svc.UpdatePriority(ctx, actorOf(staffUser), c.ID, "critical")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	updated, err := f.svc.UpdatePriority(ctx, actorOf(staffUser), c.ID, "high")
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintPriorityHigh, updated.Priority)
	assert.Equal(t, domain.RiskHigh, updated.PriorityRiskCategory)
	assert.Contains(t, f.dispatcher.types(), events.EventComplaintPriorityChanged)
}

func TestUpdatePriorityKeepsRiskInStep(t *testing.T) {
	f := newComplaintFixture()
	ctx := context.Background()
	c, err := f.svc.Create(ctx, actorOf(resident), ComplaintCreateInput{
		Title: "Live wire", Category: "electrical", Content: "Fallen line on the road", RiskCategory: "critical",
	})
	require.NoError(t, err)

	lowered, err := f.svc.UpdatePriority(ctx, actorOf(adminUser), c.ID, "low")
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintPriorityLow, lowered.Priority)
	assert.Equal(t, domain.RiskLow, lowered.PriorityRiskCategory)

	stored, err := f.complaints.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskLow, stored.PriorityRiskCategory)
}

func TestToggleResolution(t *testing.T) {
	f := newComplaintFixture()
	ctx := context.Background()
	c := f.file(t, resident)
	image := pngUpload("after.png")

	resolved, err := f.svc.ToggleResolution(ctx, actorOf(adminUser), c.ID, "cleared the canal", &image)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, adminUser.ID, *resolved.ResolvedBy)
	assert.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.ResolutionImage)
	assert.Contains(t, f.store.objects, *resolved.ResolutionImage)
	require.NotNil(t, resolved.Resolver)
	assert.Equal(t, adminUser.Name, resolved.Resolver.Name)
	assert.Equal(t, "cleared the canal", *resolved.ResolutionNote)

	reopened, err := f.svc.ToggleResolution(ctx, actorOf(staffUser), c.ID, "water is back", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusPending, reopened.Status)
	assert.Nil(t, reopened.ResolvedBy)
	assert.Nil(t, reopened.ResolvedAt)
	assert.Nil(t, reopened.ResolutionImage)
	assert.Equal(t, "water is back", *reopened.ResolutionNote)
	assert.NotContains(t, f.store.objects, *resolved.ResolutionImage)
	assert.Contains(t, f.store.removed, *resolved.ResolutionImage)
}

func TestToggleResolutionErrors(t *testing.T) {
	f := newComplaintFixture()
	ctx := context.Background()
	c := f.file(t, resident)

	_, err := f.svc.ToggleResolution(ctx, actorOf(resident), c.ID, "done", nil)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	_, err = f.svc.ToggleResolution(ctx, actorOf(adminUser), uuid.NewString(), "done", nil)
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	f.store.putErr = errors.New("bucket unavailable")
	image := pngUpload("after.png")
	_, err = f.svc.ToggleResolution(ctx, actorOf(adminUser), c.ID, "done", &image)
	assert.Equal(t, http.StatusInternalServerError, statusOf(err))
	stored, _ := f.complaints.GetByID(ctx, c.ID)
	assert.Equal(t, domain.ComplaintStatusPending, stored.Status)
}

func TestResolvePriority(t *testing.T) {
	tests := []struct {
		priority, risk string
		wantP          domain.ComplaintPriority
		wantR          domain.RiskCategory
		ok             bool
	}{
		{"", "", domain.ComplaintPriorityMedium, domain.RiskMedium, true},
		{"low", "", domain.ComplaintPriorityLow, domain.RiskLow, true},
		{"", "Critical", domain.ComplaintPriorityHigh, domain.RiskCritical, true},
		{"low", "high", domain.ComplaintPriorityHigh, domain.RiskHigh, true},
		{"", "extreme", "", "", false},
		{"critical", "", "", "", false},
	}
	for _, tt := range tests {
		p, r, ok := resolvePriority(tt.priority, tt.risk)
		assert.Equal(t, tt.ok, ok, "%s/%s", tt.priority, tt.risk)
		assert.Equal(t, tt.wantP, p)
		assert.Equal(t, tt.wantR, r)
	}
}
