package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	ctx := context.Background()
	org := "Helping Hands"
	require.NoError(t, s.ProfileRepository.Create(ctx, &domain.Profile{ID: "n1", Role: domain.RoleNGO, Name: "Alice", OrganizationName: &org}))
	require.NoError(t, s.ProfileRepository.Create(ctx, &domain.Profile{ID: "v1", Role: domain.RoleVolunteer, Name: "Bob", Skills: []string{"translation"}}))
	require.NoError(t, s.OpportunityRepository.Create(ctx, &domain.Opportunity{ID: "o1", NGOID: "n1", Title: "Translate", Status: domain.OpportunityStatusOpen}))
	return s
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.Applications().Create(ctx, &domain.Application{ID: "a1", OpportunityID: "o1", VolunteerID: "v1", State: domain.ApplicationStatePending}); err != nil {
			return err
		}
		return tx.Outbox().Append(ctx, &domain.Event{Type: domain.EventApplicationSubmitted, AggregateID: "a1"})
	})
	require.NoError(t, err)

	a, err := s.ApplicationRepository.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatePending, a.State)
	assert.Len(t, s.Events(), 1)
}

func TestWithinTx_DiscardsOnError(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		_ = tx.Applications().Create(ctx, &domain.Application{ID: "a1", OpportunityID: "o1", VolunteerID: "v1", State: domain.ApplicationStatePending})
		_ = tx.Outbox().Append(ctx, &domain.Event{Type: domain.EventApplicationSubmitted, AggregateID: "a1"})
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.ApplicationRepository.GetByID(ctx, "a1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, s.Events(), "a failed transaction leaves no events")
}

func TestWithinTx_CancelledContextRollsBack(t *testing.T) {
	s := seed(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		o, err := tx.Opportunities().GetForUpdate(ctx, "o1")
		if err != nil {
			return err
		}
		o.Status = domain.OpportunityStatusClosed
		if err := tx.Opportunities().UpdateStatus(ctx, o); err != nil {
			return err
		}
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	o, err := s.OpportunityRepository.GetByID(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.OpportunityStatusOpen, o.Status)
}

func TestApplications_OneActivePerPair(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	require.NoError(t, s.ApplicationRepository.Create(ctx, &domain.Application{ID: "a1", OpportunityID: "o1", VolunteerID: "v1", State: domain.ApplicationStatePending}))
	err := s.ApplicationRepository.Create(ctx, &domain.Application{ID: "a2", OpportunityID: "o1", VolunteerID: "v1", State: domain.ApplicationStatePending})
	assert.ErrorIs(t, err, domain.ErrAlreadyApplied)

	a, err := s.ApplicationRepository.GetByID(ctx, "a1")
	require.NoError(t, err)
	require.NoError(t, a.Apply(domain.ActionWithdraw, time.Now()))
	require.NoError(t, s.ApplicationRepository.Update(ctx, a))

	assert.NoError(t, s.ApplicationRepository.Create(ctx, &domain.Application{ID: "a3", OpportunityID: "o1", VolunteerID: "v1", State: domain.ApplicationStatePending}))
	active, err := s.ApplicationRepository.FindActive(ctx, "o1", "v1")
	require.NoError(t, err)
	assert.Equal(t, "a3", active.ID)
}

func TestOpportunities_ListJoinsNGOName(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	list, err := s.OpportunityRepository.ListByStatus(ctx, []domain.OpportunityStatus{domain.OpportunityStatusOpen})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Helping Hands", list[0].NGOName)

	list, err = s.OpportunityRepository.ListByStatus(ctx, []domain.OpportunityStatus{domain.OpportunityStatusClosed})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReadsReturnCopies(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	p, err := s.ProfileRepository.GetByID(ctx, "v1")
	require.NoError(t, err)
	p.Skills[0] = "mutated"

	again, err := s.ProfileRepository.GetByID(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"translation"}, again.Skills)
}

func TestOutbox_FailureLifecycle(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	e := &domain.Event{Type: domain.EventApplicationAccepted, AggregateID: "a1"}
	require.NoError(t, s.OutboxRepository.Append(ctx, e))
	require.NoError(t, s.OutboxRepository.MarkFailed(ctx, e.ID, "down", 2))

	pending, err := s.OutboxRepository.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)

	require.NoError(t, s.OutboxRepository.MarkFailed(ctx, e.ID, "down", 2))
	pending, err = s.OutboxRepository.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, domain.EventStatusDead, s.Events()[0].Status)
}

func TestOutbox_PurgeDelivered(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	e := &domain.Event{Type: domain.EventApplicationAccepted, AggregateID: "a1"}
	require.NoError(t, s.OutboxRepository.Append(ctx, e))
	require.NoError(t, s.OutboxRepository.MarkDelivered(ctx, e.ID))

	n, err := s.OutboxRepository.PurgeDelivered(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.OutboxRepository.PurgeDelivered(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, s.Events())
}

func TestNotifications(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.NotificationRepository.Create(ctx, &domain.Notification{ProfileID: "v1", Title: "t"}))
	}
	page, total, err := s.NotificationRepository.List(ctx, "v1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(3), total)
	assert.Len(t, page, 2)

	require.NoError(t, s.NotificationRepository.MarkAsRead(ctx, page[0].ID, "v1"))
	assert.ErrorIs(t, s.NotificationRepository.MarkAsRead(ctx, page[0].ID, "n1"), domain.ErrNotFound)
}
