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
	apperrors "github.com/itsmenoahpoli/brgykonek-backend/pkg/util"
)

type permissionFixture struct {
	svc        *PermissionRequestService
	users      *fakeUsers
	requests   *fakePermissionRequests
	tx         *fakeTx
	dispatcher *recordingDispatcher
}

func newPermissionFixture() *permissionFixture {
	users := newFakeUsers(adminUser, staffUser, resident, otherResident)
	requests := newFakePermissionRequests(users)
	f := &permissionFixture{
		users:      users,
		requests:   requests,
		tx:         &fakeTx{},
		dispatcher: &recordingDispatcher{},
	}
	f.svc = NewPermissionRequestService(PermissionRequestDependencies{
		RequestRepo: requests,
		UserRepo:    users,
		TxManager:   f.tx,
		Dispatcher:  f.dispatcher,
	})
	f.svc.now = tick
	return f
}

func (f *permissionFixture) submit(t *testing.T, owner domain.User, change map[string]any) *domain.PermissionRequest {
	t.Helper()
	req, err := f.svc.Submit(context.Background(), actorOf(owner), SubmitPermissionRequestInput{
		CurrentValue:       map[string]any{"name": owner.Name},
		RequestChangeValue: change,
		Reason:             "  legal name change  ",
	})
	require.NoError(t, err)
	return req
}

func TestSubmitPermissionRequest(t *testing.T) {
	f := newPermissionFixture()

	req := f.submit(t, resident, map[string]any{"name": "Juan D. Cruz"})

	assert.Equal(t, domain.PermissionRequestPending, req.Status)
	assert.Equal(t, resident.ID, req.UserID)
	assert.Equal(t, "legal name change", req.Reason)
	require.NotNil(t, req.User)
	assert.Equal(t, resident.Name, req.User.Name)
	assert.Equal(t, resident.Email, req.User.Email)
	assert.Nil(t, req.ReviewedBy)
	assert.Nil(t, req.ReviewedAt)
	assert.Nil(t, req.Reviewer)
	assert.Equal(t, []events.EventType{events.EventPermissionRequestSubmitted}, f.dispatcher.types())
}

func TestSubmitPermissionRequestValidation(t *testing.T) {
	tests := []struct {
		name   string
		input  SubmitPermissionRequestInput
		detail string
	}{
		{"missing change", SubmitPermissionRequestInput{Reason: "because"}, "request_change_value"},
		{"empty change", SubmitPermissionRequestInput{RequestChangeValue: map[string]any{}, Reason: "because"}, "request_change_value"},
		{"blank reason", SubmitPermissionRequestInput{RequestChangeValue: map[string]any{"name": "X"}, Reason: "   "}, "reason"},
		{"unknown field", SubmitPermissionRequestInput{RequestChangeValue: map[string]any{"role": "admin"}, Reason: "because"}, "role"},
		{"non string", SubmitPermissionRequestInput{RequestChangeValue: map[string]any{"mobile_number": 917}, Reason: "because"}, "mobile_number"},
		{"protected only", SubmitPermissionRequestInput{RequestChangeValue: map[string]any{"password": "x"}, Reason: "because"}, "allowed_fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPermissionFixture()
			_, err := f.svc.Submit(context.Background(), actorOf(resident), tt.input)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, statusOf(err))
			assert.Contains(t, apperrors.ToDomainError(err).Details, tt.detail)
			assert.Empty(t, f.requests.byID)
			assert.Empty(t, f.dispatcher.types())
		})
	}
}

func TestListPermissionRequestsScoping(t *testing.T) {
	f := newPermissionFixture()
	ctx := context.Background()
	first := f.submit(t, resident, map[string]any{"name": "First"})
	f.submit(t, otherResident, map[string]any{"name": "Other"})
	second := f.submit(t, resident, map[string]any{"address": "Purok 2"})
	_, err := f.svc.Review(ctx, actorOf(adminUser), first.ID, ReviewPermissionRequestInput{Status: "rejected"})
	require.NoError(t, err)

	t.Run("resident user_id param ignored", func(t *testing.T) {
		list, err := f.svc.List(ctx, actorOf(resident), PermissionRequestListFilter{UserID: ptr(otherResident.ID)})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)
	})

	t.Run("resident status filter honoured", func(t *testing.T) {
		list, err := f.svc.List(ctx, actorOf(resident), PermissionRequestListFilter{Status: ptr("pending")})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, second.ID, list[0].ID)
	})

	t.Run("admin sees everyone and filters by user", func(t *testing.T) {
		all, err := f.svc.List(ctx, actorOf(adminUser), PermissionRequestListFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		theirs, err := f.svc.List(ctx, actorOf(adminUser), PermissionRequestListFilter{UserID: ptr(otherResident.ID)})
		require.NoError(t, err)
		require.Len(t, theirs, 1)
		assert.Equal(t, otherResident.ID, theirs[0].UserID)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := f.svc.List(ctx, actorOf(adminUser), PermissionRequestListFilter{Status: ptr("archived")})
		assert.Equal(t, http.StatusBadRequest, statusOf(err))
	})
}

func TestGetPermissionRequest(t *testing.T) {
	f := newPermissionFixture()
	ctx := context.Background()
	req := f.submit(t, resident, map[string]any{"name": "X"})

	got, err := f.svc.Get(ctx, actorOf(resident), req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, got.ID)

	_, err = f.svc.Get(ctx, actorOf(adminUser), req.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, actorOf(otherResident), req.ID)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	_, err = f.svc.Get(ctx, actorOf(resident), uuid.NewString())
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	_, err = f.svc.Get(ctx, actorOf(resident), "not-a-uuid")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestReviewApproveAppliesAllowListedFields(t *testing.T) {
	f := newPermissionFixture()
	req := f.submit(t, resident, map[string]any{
		"name":          "X",
		"address_sitio": "Sitio Dos",
		"password":      "ignored",
		"email":         "hijack@example.com",
	})

	reviewed, err := f.svc.Review(context.Background(), actorOf(adminUser), req.ID, ReviewPermissionRequestInput{Status: "approved"})
	require.NoError(t, err)

	assert.Equal(t, domain.PermissionRequestApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, adminUser.ID, *reviewed.ReviewedBy)
	assert.NotNil(t, reviewed.ReviewedAt)
	assert.Nil(t, reviewed.ReviewNotes)
	require.NotNil(t, reviewed.Reviewer)
	assert.Equal(t, adminUser.Name, reviewed.Reviewer.Name)
	require.NotNil(t, reviewed.User)
	assert.Equal(t, "X", reviewed.User.Name)

	owner := f.users.get(resident.ID)
	assert.Equal(t, "X", owner.Name)
	assert.Equal(t, "Sitio Dos", owner.AddressSitio)
	assert.Equal(t, resident.Email, owner.Email)
	assert.Equal(t, resident.PasswordHash, owner.PasswordHash)
	assert.Equal(t, resident.MobileNumber, owner.MobileNumber)

	assert.Equal(t, 1, f.tx.calls)
	assert.True(t, f.requests.lockedInTx)
	assert.True(t, f.users.updatedInTx)

	types := f.dispatcher.types()
	assert.Equal(t, events.EventPermissionRequestReviewed, types[len(types)-1])
}

func TestReviewRejectLeavesUserUntouched(t *testing.T) {
	f := newPermissionFixture()
	req := f.submit(t, resident, map[string]any{"name": "X"})

	reviewed, err := f.svc.Review(context.Background(), actorOf(adminUser), req.ID,
		ReviewPermissionRequestInput{Status: "rejected", ReviewNotes: "  please attach an ID  "})
	require.NoError(t, err)

	assert.Equal(t, domain.PermissionRequestRejected, reviewed.Status)
	require.NotNil(t, reviewed.ReviewNotes)
	assert.Equal(t, "please attach an ID", *reviewed.ReviewNotes)
	assert.Equal(t, resident.Name, f.users.get(resident.ID).Name)
	assert.Zero(t, f.users.updates)
}

func TestReviewErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("resident forbidden", func(t *testing.T) {
		f := newPermissionFixture()
		req := f.submit(t, resident, map[string]any{"name": "X"})
		_, err := f.svc.Review(ctx, actorOf(resident), req.ID, ReviewPermissionRequestInput{Status: "approved"})
		assert.Equal(t, http.StatusForbidden, statusOf(err))
	})

	t.Run("staff forbidden", func(t *testing.T) {
		f := newPermissionFixture()
		req := f.submit(t, resident, map[string]any{"name": "X"})
		_, err := f.svc.Review(ctx, actorOf(staffUser), req.ID, ReviewPermissionRequestInput{Status: "approved"})
		assert.Equal(t, http.StatusForbidden, statusOf(err))
	})

	t.Run("invalid status", func(t *testing.T) {
		f := newPermissionFixture()
		req := f.submit(t, resident, map[string]any{"name": "X"})
		for _, status := range []string{"pending", "bogus", ""} {
			_, err := f.svc.Review(ctx, actorOf(adminUser), req.ID, ReviewPermissionRequestInput{Status: status})
			assert.Equal(t, http.StatusBadRequest, statusOf(err), status)
		}
		assert.Zero(t, f.tx.calls)
	})

	t.Run("missing request", func(t *testing.T) {
		f := newPermissionFixture()
		_, err := f.svc.Review(ctx, actorOf(adminUser), uuid.NewString(), ReviewPermissionRequestInput{Status: "approved"})
		assert.Equal(t, http.StatusNotFound, statusOf(err))
	})

	t.Run("second review conflicts", func(t *testing.T) {
		f := newPermissionFixture()
		req := f.submit(t, resident, map[string]any{"name": "X"})
		_, err := f.svc.Review(ctx, actorOf(adminUser), req.ID, ReviewPermissionRequestInput{Status: "approved"})
		require.NoError(t, err)

		_, err = f.svc.Review(ctx, actorOf(adminUser), req.ID, ReviewPermissionRequestInput{Status: "rejected"})
		assert.Equal(t, http.StatusConflict, statusOf(err))
		assert.Equal(t, 1, f.users.updates)
	})

	t.Run("owner deleted", func(t *testing.T) {
		f := newPermissionFixture()
		req := f.submit(t, resident, map[string]any{"name": "X"})
		delete(f.users.byID, resident.ID)
		_, err := f.svc.Review(ctx, actorOf(adminUser), req.ID, ReviewPermissionRequestInput{Status: "approved"})
		assert.Equal(t, http.StatusNotFound, statusOf(err))
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		f := newPermissionFixture()
		req := f.submit(t, resident, map[string]any{"name": "X"})
		f.requests.updateReviewErr = errors.New("connection reset")
		_, err := f.svc.Review(ctx, actorOf(adminUser), req.ID, ReviewPermissionRequestInput{Status: "approved"})
		assert.Equal(t, http.StatusInternalServerError, statusOf(err))
	})
}
