package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/services"
	"github.com/AchilleasB/blood-quest/donation-service/internal/mocks"
)

const (
	donorEmail     = "donor@example.com"
	otherEmail     = "other@example.com"
	volunteerEmail = "volunteer@example.com"
	adminEmail     = "admin@example.com"
	blockedEmail   = "blocked@example.com"
)

func seedUsers(users *mocks.MockUserRepository) {
	users.SeedUser(mocks.NewTestUser(donorEmail, domain.RoleDonor))
	users.SeedUser(mocks.NewTestUser(otherEmail, domain.RoleDonor))
	users.SeedUser(mocks.NewTestUser(volunteerEmail, domain.RoleVolunteer))
	users.SeedUser(mocks.NewTestUser(adminEmail, domain.RoleAdmin))
	blocked := mocks.NewTestUser(blockedEmail, domain.RoleDonor)
	blocked.Status = domain.UserBlocked
	users.SeedUser(blocked)
}

type requestFixture struct {
	users    *mocks.MockUserRepository
	requests *mocks.MockDonationRequestRepository
	events   *mocks.MockEventRecorder
	metrics  *mocks.MockMetrics
	svc      *services.DonationRequestService
}

func newRequestFixture() *requestFixture {
	f := &requestFixture{
		users:    mocks.NewMockUserRepository(),
		requests: mocks.NewMockDonationRequestRepository(),
		events:   mocks.NewMockEventRecorder(),
		metrics:  mocks.NewMockMetrics(),
	}
	seedUsers(f.users)
	authz := services.NewAuthorizer(f.users, f.metrics, nil)
	f.svc = services.NewDonationRequestService(f.requests, authz, f.events, f.metrics, nil)
	return f
}

func as(email string) domain.Identity {
	return domain.Identity{Email: email}
}

func TestDonationRequestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults_to_pending_and_forces_requester", func(t *testing.T) {
		f := newRequestFixture()
		req := mocks.NewTestRequest("", "spoofed@example.com", "")
		req.DonorEmail = "spoofed@example.com"

		id, err := f.svc.Create(ctx, as(donorEmail), req)
		require.NoError(t, err)

		stored, ok := f.requests.Get(id)
		require.True(t, ok)
		assert.Equal(t, domain.RequestPending, stored.Status)
		assert.Equal(t, donorEmail, stored.RequesterEmail)
		assert.Empty(t, stored.DonorEmail)
		assert.False(t, stored.CreatedAt.IsZero())
	})

	t.Run("requester_name_defaults_to_caller", func(t *testing.T) {
		f := newRequestFixture()
		id, err := f.svc.Create(ctx, as(donorEmail), mocks.NewTestRequest("", "", ""))
		require.NoError(t, err)

		stored, _ := f.requests.Get(id)
		assert.Equal(t, "Test donor", stored.RequesterName)
	})

	t.Run("unknown_status_is_rejected_before_the_store", func(t *testing.T) {
		f := newRequestFixture()
		_, err := f.svc.Create(ctx, as(donorEmail), mocks.NewTestRequest("", "", "approved"))
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, 0, f.requests.CallCount())
		assert.Equal(t, 0, f.users.CallCount())
	})

	t.Run("blocked_user_cannot_create", func(t *testing.T) {
		f := newRequestFixture()
		_, err := f.svc.Create(ctx, as(blockedEmail), mocks.NewTestRequest("", "", ""))
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Empty(t, f.requests.InsertCalls)
	})
}

func TestDonationRequestService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		caller  string
		status  domain.RequestStatus
		wantErr error
	}{
		{"owner_sees_inprogress", donorEmail, domain.RequestInProgress, nil},
		{"other_donor_sees_pending", otherEmail, domain.RequestPending, nil},
		{"other_donor_cannot_see_inprogress", otherEmail, domain.RequestInProgress, domain.ErrForbidden},
		{"volunteer_sees_done", volunteerEmail, domain.RequestDone, nil},
		{"blocked_user_sees_pending", blockedEmail, domain.RequestPending, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRequestFixture()
			f.requests.SeedRequest(mocks.NewTestRequest("req-1", donorEmail, tt.status))

			got, err := f.svc.Get(ctx, as(tt.caller), "req-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "req-1", got.ID)
		})
	}

	t.Run("missing_request_is_not_found", func(t *testing.T) {
		f := newRequestFixture()
		_, err := f.svc.Get(ctx, as(adminEmail), "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDonationRequestService_ChangeStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("volunteer_writes_status_without_reading_request", func(t *testing.T) {
		f := newRequestFixture()
		f.requests.SeedRequest(mocks.NewTestRequest("req-1", donorEmail, domain.RequestInProgress))

		err := f.svc.ChangeStatus(ctx, as(volunteerEmail), "req-1", "done")
		require.NoError(t, err)

		assert.Empty(t, f.requests.FindByIDCalls)
		require.Len(t, f.requests.StatusWrites, 1)
		assert.Equal(t, mocks.StatusWrite{ID: "req-1", Status: domain.RequestDone}, f.requests.StatusWrites[0])

		events := f.events.GetEvents()
		require.Len(t, events, 1)
		assert.Equal(t, ports.EventRequestStatusChanged, events[0].Type)
		assert.Equal(t, "done", events[0].To)
		assert.Equal(t, volunteerEmail, events[0].Actor)
		assert.NotEmpty(t, events[0].ID)
		assert.Equal(t, []string{"donation_request:done"}, f.metrics.Transitions)
	})

	t.Run("missing_id_is_upserted", func(t *testing.T) {
		f := newRequestFixture()

		err := f.svc.ChangeStatus(ctx, as(adminEmail), "ghost", "canceled")
		require.NoError(t, err)

		stored, ok := f.requests.Get("ghost")
		require.True(t, ok)
		assert.Equal(t, domain.RequestCanceled, stored.Status)
	})

	t.Run("reachability_is_not_checked", func(t *testing.T) {
		f := newRequestFixture()
		f.requests.SeedRequest(mocks.NewTestRequest("req-1", donorEmail, domain.RequestDone))

		require.NoError(t, f.svc.ChangeStatus(ctx, as(volunteerEmail), "req-1", "pending"))
		stored, _ := f.requests.Get("req-1")
		assert.Equal(t, domain.RequestPending, stored.Status)
	})

	t.Run("owner_changes_own_status", func(t *testing.T) {
		f := newRequestFixture()
		f.requests.SeedRequest(mocks.NewTestRequest("req-1", donorEmail, domain.RequestPending))

		require.NoError(t, f.svc.ChangeStatus(ctx, as(donorEmail), "req-1", "canceled"))
		events := f.events.GetEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "pending", events[0].From)
	})

	t.Run("donor_cannot_change_others_status", func(t *testing.T) {
		f := newRequestFixture()
		f.requests.SeedRequest(mocks.NewTestRequest("req-1", otherEmail, domain.RequestPending))

		err := f.svc.ChangeStatus(ctx, as(donorEmail), "req-1", "done")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Empty(t, f.requests.StatusWrites)
		assert.Empty(t, f.events.GetEvents())
	})

	t.Run("unknown_status_writes_nothing", func(t *testing.T) {
		f := newRequestFixture()
		err := f.svc.ChangeStatus(ctx, as(adminEmail), "req-1", "approved")
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, 0, f.requests.CallCount())
	})

	t.Run("event_failure_does_not_fail_the_change", func(t *testing.T) {
		f := newRequestFixture()
		f.events.RecordError = domain.Upstream("outbox unavailable", nil)

		require.NoError(t, f.svc.ChangeStatus(ctx, as(adminEmail), "req-1", "done"))
		assert.Len(t, f.requests.StatusWrites, 1)
	})
}

func TestDonationRequestService_Donate(t *testing.T) {
	ctx := context.Background()

	t.Run("pending_request_moves_to_inprogress", func(t *testing.T) {
		f := newRequestFixture()
		f.requests.SeedRequest(mocks.NewTestRequest("req-1", otherEmail, domain.RequestPending))

		require.NoError(t, f.svc.Donate(ctx, as(donorEmail), "req-1"))

		require.Len(t, f.requests.StatusWrites, 1)
		write := f.requests.StatusWrites[0]
		assert.Equal(t, domain.RequestInProgress, write.Status)
		require.NotNil(t, write.Donor)
		assert.Equal(t, donorEmail, write.Donor.DonorEmail)
		assert.Equal(t, "Test donor", write.Donor.DonorName)

		events := f.events.GetEvents()
		require.Len(t, events, 1)
		assert.Equal(t, ports.EventRequestDonated, events[0].Type)
	})

	t.Run("non_pending_request_is_rejected", func(t *testing.T) {
		f := newRequestFixture()
		f.requests.SeedRequest(mocks.NewTestRequest("req-1", otherEmail, domain.RequestInProgress))

		err := f.svc.Donate(ctx, as(donorEmail), "req-1")
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Empty(t, f.requests.StatusWrites)
	})

	t.Run("blocked_user_cannot_donate", func(t *testing.T) {
		f := newRequestFixture()
		f.requests.SeedRequest(mocks.NewTestRequest("req-1", otherEmail, domain.RequestPending))

		err := f.svc.Donate(ctx, as(blockedEmail), "req-1")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Equal(t, 0, f.requests.CallCount())
	})
}

func TestDonationRequestService_Listing(t *testing.T) {
	ctx := context.Background()
	f := newRequestFixture()
	f.requests.SeedRequest(mocks.NewTestRequest("req-1", donorEmail, domain.RequestPending))
	f.requests.SeedRequest(mocks.NewTestRequest("req-2", donorEmail, domain.RequestDone))
	f.requests.SeedRequest(mocks.NewTestRequest("req-3", otherEmail, domain.RequestPending))

	own, err := f.svc.ListOwn(ctx, as(donorEmail), donorEmail, "")
	require.NoError(t, err)
	assert.Len(t, own, 2)

	ownDone, err := f.svc.ListOwn(ctx, as(donorEmail), donorEmail, "done")
	require.NoError(t, err)
	require.Len(t, ownDone, 1)
	assert.Equal(t, "req-2", ownDone[0].ID)

	_, err = f.svc.ListOwn(ctx, as(donorEmail), otherEmail, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.ListOwn(ctx, as(donorEmail), donorEmail, "approved")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.ListAll(ctx, as(donorEmail), "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	all, err := f.svc.ListAll(ctx, as(volunteerEmail), "pending")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := f.svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	found, err := f.svc.Search(ctx, domain.RequestFilter{BloodGroup: "A+", District: "Dhaka", RequesterEmail: otherEmail})
	require.NoError(t, err)
	assert.Len(t, found, 3)
}

func TestDonationRequestService_Recent(t *testing.T) {
	ctx := context.Background()
	f := newRequestFixture()
	for i, date := range []string{"2025-01-01", "2025-04-01", "2025-02-01", "2025-03-01"} {
		r := mocks.NewTestRequest(string(rune('a'+i)), donorEmail, domain.RequestPending)
		r.DonationDate = date
		f.requests.SeedRequest(r)
	}

	recent, err := f.svc.Recent(ctx, as(donorEmail), donorEmail)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "2025-04-01", recent[0].DonationDate)
	assert.Equal(t, "2025-02-01", recent[2].DonationDate)
}

func TestDonationRequestService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	hospital := "General Hospital"

	t.Run("empty_patch_is_rejected", func(t *testing.T) {
		f := newRequestFixture()
		err := f.svc.Update(ctx, as(donorEmail), "req-1", domain.RequestPatch{})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, 0, f.requests.CallCount())
	})

	t.Run("owner_updates", func(t *testing.T) {
		f := newRequestFixture()
		f.requests.SeedRequest(mocks.NewTestRequest("req-1", donorEmail, domain.RequestPending))

		require.NoError(t, f.svc.Update(ctx, as(donorEmail), "req-1", domain.RequestPatch{HospitalName: &hospital}))
		stored, _ := f.requests.Get("req-1")
		assert.Equal(t, hospital, stored.HospitalName)
		assert.Equal(t, domain.RequestPending, stored.Status)
	})

	t.Run("volunteer_cannot_update_others", func(t *testing.T) {
		f := newRequestFixture()
		f.requests.SeedRequest(mocks.NewTestRequest("req-1", donorEmail, domain.RequestPending))

		err := f.svc.Update(ctx, as(volunteerEmail), "req-1", domain.RequestPatch{HospitalName: &hospital})
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Empty(t, f.requests.UpdateCalls)
	})

	t.Run("admin_deletes_without_reading", func(t *testing.T) {
		f := newRequestFixture()
		f.requests.SeedRequest(mocks.NewTestRequest("req-1", donorEmail, domain.RequestPending))

		require.NoError(t, f.svc.Delete(ctx, as(adminEmail), "req-1"))
		assert.Empty(t, f.requests.FindByIDCalls)
		_, ok := f.requests.Get("req-1")
		assert.False(t, ok)
	})

	t.Run("donor_cannot_delete_others", func(t *testing.T) {
		f := newRequestFixture()
		f.requests.SeedRequest(mocks.NewTestRequest("req-1", otherEmail, domain.RequestPending))

		err := f.svc.Delete(ctx, as(donorEmail), "req-1")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Empty(t, f.requests.DeleteCalls)
	})
}
